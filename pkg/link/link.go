package link

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// Listener accepts streams for a simulated board, one at a time.
type Listener interface {
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
	Close() error
	// Addr describes where clients connect.
	Addr() string
}

// Parse parses a link URL. A string without a scheme is a serial device.
func Parse(linkURL string) (*url.URL, error) {
	if !strings.Contains(linkURL, ":") || isWindowsPort(linkURL) {
		return &url.URL{Scheme: "serial", Path: strings.TrimSuffix(linkURL, ":")}, nil
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL %q: %w", linkURL, err)
	}
	if u.Scheme == "" {
		u.Scheme = "serial"
	}
	return u, nil
}

// COM1: style names parse as a URL scheme.
func isWindowsPort(s string) bool {
	s = strings.TrimSuffix(strings.ToUpper(s), ":")
	return strings.HasPrefix(s, "COM") && len(s) > 3 && strings.Trim(s[3:], "0123456789") == ""
}

// Dial opens a stream to a monitor.
func Dial(ctx context.Context, linkURL string) (io.ReadWriteCloser, error) {
	u, err := Parse(linkURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "serial":
		return dialSerial(u)
	case "tcp":
		return dialTCP(ctx, u)
	case "ws", "wss":
		return dialWebsocket(u)
	case "mqtt", "mqtts":
		return dialMQTT(u)
	default:
		return nil, &UnknownSchemeError{Scheme: u.Scheme, Op: "dial"}
	}
}

// Listen serves streams for a simulated board.
func Listen(linkURL string) (Listener, error) {
	u, err := Parse(linkURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return listenTCP(u)
	case "ws":
		return listenWebsocket(u)
	case "mqtt", "mqtts":
		return listenMQTT(u)
	case "pty":
		return listenPty()
	case "stdio":
		return listenStdio()
	default:
		return nil, &UnknownSchemeError{Scheme: u.Scheme, Op: "listen"}
	}
}

// single hands out one stream for the lifetime of the listener. Later
// Accept calls wait until the listener is closed.
type single struct {
	addr    string
	open    func() (io.ReadWriteCloser, error)
	lock    sync.Mutex
	taken   bool
	closeCh chan struct{}
	once    sync.Once
}

func newSingle(addr string, open func() (io.ReadWriteCloser, error)) *single {
	return &single{addr: addr, open: open, closeCh: make(chan struct{})}
}

func (l *single) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	l.lock.Lock()
	first := !l.taken
	l.taken = true
	l.lock.Unlock()
	if first {
		select {
		case <-l.closeCh:
		default:
			return l.open()
		}
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closeCh:
		return nil, ErrListenerClosed
	}
}

func (l *single) Close() error {
	l.once.Do(func() { close(l.closeCh) })
	return nil
}

func (l *single) Addr() string {
	return l.addr
}
