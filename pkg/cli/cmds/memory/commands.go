package memory

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/risky-soc/riskymon/pkg/cli/sh"
	"github.com/risky-soc/riskymon/pkg/monitor"
)

// Block is a range of device memory for JSON output.
type Block struct {
	Address uint32 `json:"address"`
	Size    uint32 `json:"size"`
	Data    string `json:"data,omitempty"`
	CRC     *uint8 `json:"crc,omitempty"`
}

// FormatRows formats data at addr as rows of monitor.DumpRowSize bytes.
func FormatRows(addr uint32, data []byte) string {
	var w bytes.Buffer
	for off := 0; off < len(data); off += monitor.DumpRowSize {
		row := data[off:]
		if len(row) > monitor.DumpRowSize {
			row = row[:monitor.DumpRowSize]
		}
		if off > 0 {
			w.WriteByte('\n')
		}
		fmt.Fprintf(&w, "%08x: % x", addr+uint32(off), row)
	}
	return w.String()
}

// DefaultEnd is the end of a dump without END, clamped to the top of the
// address space. The end is exclusive, so the last byte is not reachable.
func DefaultEnd(start uint32) uint32 {
	if start > math.MaxUint32-monitor.DumpDefaultLength {
		return math.MaxUint32
	}
	return start + monitor.DumpDefaultLength
}

var (
	// InfoCmd queries monitor info.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			info, err := sh.ClientFrom(c).ReadInfo(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, info, sh.FormatInfo(info))
		}),
	}

	// EchoCmd toggles monitor echo.
	EchoCmd = ishell.Cmd{
		Name:    "echo",
		Aliases: []string{"e"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			on, err := sh.ClientFrom(c).Echo(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]bool{"echo": on}, fmt.Sprintf("echo %v", on))
		}),
	}

	// DumpCmd prints a memory range.
	DumpCmd = ishell.Cmd{
		Name:    "dump",
		Aliases: []string{"m"},
		Help:    "START [END], END defaults to START+128 capped at ffffffff",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := sh.ParseAddrs(c.Args, "START")
			if err != nil {
				c.Err(err)
				return
			}
			start, end := vals[0], DefaultEnd(vals[0])
			if len(c.Args) > 1 {
				if end, err = sh.ParseAddr(c.Args[1]); err != nil {
					c.Err(fmt.Errorf("Invalid END: %v", err))
					return
				}
			}
			data, err := sh.ClientFrom(c).ReadMemory(context.Background(), start, end)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, &Block{Address: start, Size: uint32(len(data)), Data: hex.EncodeToString(data)},
				FormatRows(start, data))
		}),
	}

	// ReadCmd saves a memory range to a file.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "START END FILE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := sh.ParseAddrs(c.Args, "START", "END")
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			f, err := os.Create(c.Args[2])
			if err != nil {
				c.Err(err)
				return
			}
			defer f.Close()
			done := sh.ProgressTo(c)
			err = sh.ClientFrom(c).ReadMemoryStream(context.Background(), vals[0], vals[1], f)
			done()
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, &Block{Address: vals[0], Size: vals[1] - vals[0]},
				fmt.Sprintf("%d bytes saved to %s", vals[1]-vals[0], c.Args[2]))
		}),
	}

	// CopyCmd copies memory on the device.
	CopyCmd = ishell.Cmd{
		Name:    "copy",
		Aliases: []string{"cp"},
		Help:    "START END DEST",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := sh.ParseAddrs(c.Args, "START", "END", "DEST")
			if err != nil {
				c.Err(err)
				return
			}
			if err := sh.ClientFrom(c).CopyMemory(context.Background(), vals[0], vals[1], vals[2]); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, &Block{Address: vals[2], Size: vals[1] - vals[0]}, "OK")
		}),
	}

	// PatchCmd writes bytes.
	PatchCmd = ishell.Cmd{
		Name:    "patch",
		Aliases: []string{"p"},
		Help:    "ADDR BYTE...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := sh.ParseAddrs(c.Args, "ADDR")
			if err != nil {
				c.Err(err)
				return
			}
			data := make([]byte, 0, len(c.Args)-1)
			for _, arg := range c.Args[1:] {
				b, err := strconv.ParseUint(arg, 16, 8)
				if err != nil {
					c.Err(fmt.Errorf("Invalid BYTE %q: %v", arg, err))
					return
				}
				data = append(data, byte(b))
			}
			if err := sh.ClientFrom(c).WriteMemory(context.Background(), vals[0], data); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, &Block{Address: vals[0], Size: uint32(len(data))}, "OK")
		}),
	}

	// LoadCmd writes a file and verifies it.
	LoadCmd = ishell.Cmd{
		Name:    "load",
		Aliases: []string{"ld"},
		Help:    "FILE [ADDR]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			client := sh.ClientFrom(c)
			addr := client.Info().BootAddr
			if len(c.Args) > 1 {
				var err error
				if addr, err = sh.ParseAddr(c.Args[1]); err != nil {
					c.Err(fmt.Errorf("Invalid ADDR: %v", err))
					return
				}
			}
			data, err := os.ReadFile(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ctx := context.Background()
			done := sh.ProgressTo(c)
			err = client.WriteMemory(ctx, addr, data)
			if err == nil {
				err = client.VerifyMemory(ctx, addr, data)
			}
			done()
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, &Block{Address: addr, Size: uint32(len(data))},
				fmt.Sprintf("%d bytes loaded at %08x", len(data), addr))
		}),
	}

	// CRCCmd computes CRC-8 of a memory range.
	CRCCmd = ishell.Cmd{
		Name:    "crc",
		Help:    "START END",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, err := sh.ParseAddrs(c.Args, "START", "END")
			if err != nil {
				c.Err(err)
				return
			}
			crc, err := sh.ClientFrom(c).Checksum(context.Background(), vals[0], vals[1])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, &Block{Address: vals[0], Size: vals[1] - vals[0], CRC: &crc},
				fmt.Sprintf("%02x", crc))
		}),
	}
)

func init() {
	sh.AddCmds(
		&InfoCmd,
		&EchoCmd,
		&DumpCmd,
		&ReadCmd,
		&CopyCmd,
		&PatchCmd,
		&LoadCmd,
		&CRCCmd,
	)
}
