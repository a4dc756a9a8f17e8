package boot

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/abiosoft/ishell"

	"github.com/risky-soc/riskymon/pkg/cli/sh"
)

var (
	// BootCmd starts the image.
	BootCmd = ishell.Cmd{
		Name:    "boot",
		Aliases: []string{"b"},
		Help:    "[ADDR]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var addr *uint32
			if len(c.Args) > 0 {
				val, err := sh.ParseAddr(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid ADDR: %v", err))
					return
				}
				addr = &val
			}
			if err := sh.ClientFrom(c).Boot(context.Background(), addr); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]*uint32{"boot": addr}, "booted")
		}),
	}

	// AttachCmd prints device output until interrupted.
	AttachCmd = ishell.Cmd{
		Name:    "attach",
		Aliases: []string{"a"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if s.Conn == nil {
				c.Err(sh.ErrNotConnected)
				return
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if err := s.Conn.Client.Attach(ctx, os.Stdout); err != nil && err != context.Canceled {
				c.Err(err)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&BootCmd,
		&AttachCmd,
	)
}
