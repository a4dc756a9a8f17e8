// Package flags binds the monitor's default config to the command line and
// the environment on hosts. The firmware does not link it.
package flags

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/risky-soc/riskymon/pkg/monitor"
)

func init() {
	SetBootAddr(monitor.Default(), os.Getenv("RISKY_BOOT_ADDR"))
}

// SetBootAddr sets conf.BootAddr from val if it is a valid number.
func SetBootAddr(conf *monitor.Config, val string) {
	if val == "" {
		return
	}
	if addr, err := strconv.ParseUint(val, 0, 32); err == nil {
		conf.BootAddr = uint32(addr)
	}
}

// Hex32 is a flag.Value for 32-bit numbers, accepting 0x prefixed input.
type Hex32 uint32

// String implements flag.Value.
func (h *Hex32) String() string {
	return fmt.Sprintf("0x%08x", uint32(*h))
}

// Set implements flag.Value.
func (h *Hex32) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*h = Hex32(v)
	return nil
}

// Uint32 is a flag.Value for 32-bit decimal numbers.
type Uint32 uint32

// String implements flag.Value.
func (u *Uint32) String() string {
	return strconv.FormatUint(uint64(*u), 10)
}

// Set implements flag.Value.
func (u *Uint32) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*u = Uint32(v)
	return nil
}

// SetupFlags sets command line flags for the default monitor config.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, monitor.Default())
}

// SetupFlagSet binds fs to conf.
func SetupFlagSet(fs *flag.FlagSet, conf *monitor.Config) {
	fs.Var((*Hex32)(&conf.BootAddr), "boot-addr", "Default boot address.")
	fs.Var((*Uint32)(&conf.ClockFreq), "clock-freq", "Cycle counter frequency (Hz).")
	fs.Var((*Uint32)(&conf.Baud), "baud", "UART baud rate.")
	fs.DurationVar(&conf.Timeout, "autoboot-timeout", conf.Timeout, "Inactivity timeout before autoboot.")
}
