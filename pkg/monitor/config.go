package monitor

import (
	"strconv"
	"time"
)

// Build-time defaults of the risky SoC.
const (
	// Version is reported by the info command and in the banner.
	Version uint32 = 1
	// DefaultBootAddr is the ROM base, where the resident image lives.
	DefaultBootAddr uint32 = 0x00000000
	// DefaultClockFreq is the core clock in Hz.
	DefaultClockFreq uint32 = 12000000
	// DefaultBaud is the UART baud rate.
	DefaultBaud uint32 = 115200
	// DefaultTimeout is how long the monitor waits before autoboot.
	DefaultTimeout = 250 * time.Millisecond
	// DumpDefaultLength is the length of a dump without an end address.
	DumpDefaultLength uint32 = 128
)

// Config defines the configuration of the monitor.
type Config struct {
	BootAddr  uint32
	ClockFreq uint32
	Baud      uint32
	Timeout   time.Duration
}

var defaultConfig = Config{
	BootAddr:  DefaultBootAddr,
	ClockFreq: DefaultClockFreq,
	Baud:      DefaultBaud,
	Timeout:   DefaultTimeout,
}

// Default gets default config. Hosts adjust it before NewConfig, see
// package flags.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Banner returns the banner line, product name and version.
func (c *Config) Banner() string {
	return "risky-b" + strconv.FormatUint(uint64(Version), 10)
}

// NewMonitor creates a Monitor using the config.
func (c *Config) NewMonitor(t Transport, mem AddressSpace, counter Counter, booter Booter) *Monitor {
	return New(c, t, mem, &Clock{Counter: counter, Freq: c.ClockFreq}, booter)
}
