package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/risky-soc/riskymon/pkg/link"
	"github.com/risky-soc/riskymon/pkg/loader"
)

// ErrNotConnected is reported by commands requiring a connection.
var ErrNotConnected = errors.New("not connected")

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// ClientFrom gets the loader client of the current connection.
func ClientFrom(c *ishell.Context) *loader.Client {
	return ShellFrom(c).Conn.Client
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.Conn == nil || !s.Conn.Client.Connected() {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Print prints v as JSON in JSON mode, or the text otherwise.
func Print(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// FormatInfo prints monitor Info into friendly string for display.
func FormatInfo(info *loader.Info) string {
	return fmt.Sprintf("%s: version %d, buffer %d bytes, boot %08x",
		info.Banner, info.Version, info.BufferSize, info.BootAddr)
}

// ParseAddr parses a hex number with an optional 0x prefix.
func ParseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}

// ParseAddrs parses names[i] from args, all required.
func ParseAddrs(args []string, names ...string) ([]uint32, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%s required", strings.Join(names[len(args):], " "))
	}
	vals := make([]uint32, len(names))
	for n := range names {
		v, err := ParseAddr(args[n])
		if err != nil {
			return nil, fmt.Errorf("Invalid %s: %v", names[n], err)
		}
		vals[n] = v
	}
	return vals, nil
}

// ProgressTo displays transfer progress on the shell while interactive.
func ProgressTo(c *ishell.Context) func() {
	s := ShellFrom(c)
	if !s.Interactive || s.OutputJSON {
		return func() {}
	}
	bar := c.ProgressBar()
	bar.Start()
	s.Conn.Client.Progress = func(p loader.Progress) {
		if p.Total > 0 {
			bar.Suffix(fmt.Sprintf(" %s %d/%d", p.Phase, p.Done, p.Total))
			bar.Progress(int(uint64(p.Done) * 100 / uint64(p.Total)))
		}
	}
	return func() {
		s.Conn.Client.Progress = nil
		bar.Stop()
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect connects the monitor at url.
func (s *Shell) Connect(url string) error {
	conn, err := s.Config.Dial(context.Background(), url)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Disconnect disconnects current monitor.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.LinkURL)
		}
		if err := s.Connect(s.Config.LinkURL); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				// in case ports is nil, make it empty slice.
				ports = []string{}
			}
			if ShellFrom(c).OutputJSON {
				Print(c, ports, "")
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ConnectCmd connects a monitor.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.LinkURL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if url == "" {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
				return
			}
			info := s.Conn.Client.Info()
			Print(c, info, FormatInfo(info))
		},
	}

	// DisconnectCmd disconnects current monitor.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
