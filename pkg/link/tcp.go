package link

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"

	"github.com/golang/glog"
)

func dialTCP(ctx context.Context, u *url.URL) (io.ReadWriteCloser, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", u.Host)
}

type tcpListener struct {
	listener net.Listener
}

func listenTCP(u *url.URL) (Listener, error) {
	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	glog.Infof("listening on tcp://%s", l.Addr())
	return &tcpListener{listener: l}, nil
}

// Accept closes the listener when ctx is done.
func (l *tcpListener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		conn, err := l.listener.Accept()
		resultCh <- result{conn, err}
	}()
	select {
	case r := <-resultCh:
		if errors.Is(r.err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		if r.err != nil {
			return nil, r.err
		}
		glog.Infof("accepted %s", r.conn.RemoteAddr())
		return r.conn, nil
	case <-ctx.Done():
		l.listener.Close()
		if r := <-resultCh; r.conn != nil {
			r.conn.Close()
		}
		return nil, ctx.Err()
	}
}

func (l *tcpListener) Close() error {
	return l.listener.Close()
}

func (l *tcpListener) Addr() string {
	return "tcp://" + l.listener.Addr().String()
}
