package sh

import (
	"flag"
	"os"
	"time"
)

// Config defines the connection settings of the shell.
type Config struct {
	// LinkURL is the link to the monitor, see link.Dial.
	LinkURL string
	// Timeout bounds each monitor response.
	Timeout time.Duration
	// Wait waits for the monitor to come out of reset instead of probing.
	Wait bool
}

var defaultConfig = Config{
	Timeout: 5 * time.Second,
}

func init() {
	if val := os.Getenv("RISKY_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
}

// SetupFlags sets up flags for the default config.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Monitor link URL or serial device.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Monitor response timeout.")
	flag.BoolVar(&defaultConfig.Wait, "wait", defaultConfig.Wait, "Wait for the monitor reset banner when connecting.")
}

// Default returns the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config from default.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
