package link

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

func dialWebsocket(u *url.URL) (io.ReadWriteCloser, error) {
	origin := "http://" + u.Host + "/"
	if u.Scheme == "wss" {
		origin = "https://" + u.Host + "/"
	}
	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// wsConn keeps the handler of a served websocket alive until the stream is
// closed.
type wsConn struct {
	*websocket.Conn
	once   sync.Once
	doneCh chan struct{}
}

func (c *wsConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.doneCh) })
	return err
}

type wsListener struct {
	listener net.Listener
	server   *http.Server
	connCh   chan *wsConn
	closeCh  chan struct{}
	once     sync.Once
	addr     string
}

func listenWebsocket(u *url.URL) (Listener, error) {
	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	wl := &wsListener{
		listener: l,
		connCh:   make(chan *wsConn),
		closeCh:  make(chan struct{}),
		addr:     "ws://" + l.Addr().String() + path,
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(wl.serve))
	wl.server = &http.Server{Handler: mux}
	go func() {
		if err := wl.server.Serve(l); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket server: %v", err)
		}
	}()
	glog.Infof("listening on %s", wl.addr)
	return wl, nil
}

func (l *wsListener) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	c := &wsConn{Conn: conn, doneCh: make(chan struct{})}
	select {
	case l.connCh <- c:
		glog.Infof("accepted websocket %s", conn.Request().RemoteAddr)
		<-c.doneCh
	case <-conn.Request().Context().Done():
	}
}

func (l *wsListener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case c := <-l.connCh:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closeCh:
		return nil, ErrListenerClosed
	}
}

func (l *wsListener) Close() error {
	l.once.Do(func() { close(l.closeCh) })
	return l.server.Close()
}

func (l *wsListener) Addr() string {
	return l.addr
}
