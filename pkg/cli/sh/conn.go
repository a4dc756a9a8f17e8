package sh

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/risky-soc/riskymon/pkg/link"
	"github.com/risky-soc/riskymon/pkg/loader"
)

// Conn is an open link with a loader client on it.
type Conn struct {
	URL    string
	Stream io.ReadWriteCloser
	Client *loader.Client
}

// Dial opens the link and attaches a loader client to the monitor.
func (c *Config) Dial(ctx context.Context, url string) (*Conn, error) {
	stream, err := link.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	conn := &Conn{URL: url, Stream: stream, Client: loader.New(stream)}
	if c.Timeout > 0 {
		conn.Client.Timeout = c.Timeout
	}
	if c.Wait {
		err = conn.Client.WaitForReset(ctx)
	} else {
		err = conn.Client.Connect(ctx)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}
	glog.V(2).Infof("connected %s", url)
	return conn, nil
}

// Close closes the client and the link.
func (c *Conn) Close() error {
	return c.Client.Close()
}
