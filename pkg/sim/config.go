package sim

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"

	"github.com/risky-soc/riskymon/pkg/events"
	"github.com/risky-soc/riskymon/pkg/link"
	"github.com/risky-soc/riskymon/pkg/monitor"
)

// Config defines the configuration of the simulated board.
type Config struct {
	// LinkURL is where the board UART is served, see link.Listen.
	LinkURL string
	// Image is loaded at the boot address before the first session.
	Image string
	// Reboot restarts the monitor on the same stream after a boot.
	Reboot bool
	// EventsURL is the MQTT broker for monitor events, empty disables.
	EventsURL string
	// Instance identifies the board in events.
	Instance string
	// PollInterval is how long the monitor sleeps when idle.
	PollInterval time.Duration
}

// DefaultLinkURL is the default UART listen address.
const DefaultLinkURL = "tcp://127.0.0.1:2323"

var defaultConfig = Config{
	LinkURL:      DefaultLinkURL,
	PollInterval: time.Millisecond,
}

func init() {
	if val := os.Getenv("RISKY_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("RISKY_MQTT_URL"); val != "" {
		defaultConfig.EventsURL = val
	}
	defaultConfig.Instance = InstanceID()
}

// InstanceID derives a stable ID for this host.
func InstanceID() string {
	id, err := machineid.ProtectedID("riskymon")
	if err != nil {
		if host, err := os.Hostname(); err == nil {
			return host
		}
		return "risky"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "UART listen URL: tcp://, ws://, mqtt://...?device=ID, pty: or stdio:.")
	flag.StringVar(&defaultConfig.Image, "image", defaultConfig.Image, "Image file loaded at the boot address.")
	flag.BoolVar(&defaultConfig.Reboot, "reboot", defaultConfig.Reboot, "Restart the monitor after boot.")
	flag.StringVar(&defaultConfig.EventsURL, "events", defaultConfig.EventsURL, "MQTT broker URL for monitor events.")
	flag.StringVar(&defaultConfig.Instance, "instance", defaultConfig.Instance, "Board instance ID.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Idle poll interval.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewBoard creates a Board serving on LinkURL, with the image loaded and
// the event publisher connected.
func (c *Config) NewBoard(mc *monitor.Config) (*Board, error) {
	b := NewBoard(c, mc)
	if c.Image != "" {
		f, err := os.Open(c.Image)
		if err != nil {
			return nil, err
		}
		_, err = b.LoadImage(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", c.Image, err)
		}
	}
	if c.EventsURL != "" {
		pub, err := events.NewPublisher(c.EventsURL, c.Instance)
		if err != nil {
			return nil, err
		}
		b.Events = pub
	}
	l, err := link.Listen(c.LinkURL)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Listener = l
	return b, nil
}
