package link

import (
	"io"

	"github.com/creack/pty"
	"github.com/golang/glog"
)

// ptyStream is the master side; the slave stays open so the stream does
// not see EOF between terminal sessions.
type ptyStream struct {
	io.ReadWriteCloser
	tty io.Closer
}

func (s *ptyStream) Close() error {
	s.tty.Close()
	return s.ReadWriteCloser.Close()
}

func listenPty() (Listener, error) {
	master, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	glog.Infof("serial console on %s", tty.Name())
	return newSingle(tty.Name(), func() (io.ReadWriteCloser, error) {
		return &ptyStream{ReadWriteCloser: master, tty: tty}, nil
	}), nil
}
