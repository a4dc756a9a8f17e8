package link

import (
	"io"
	"os"

	"golang.org/x/term"
)

// stdioStream puts an interactive terminal in raw mode so the monitor sees
// every byte, and restores it on Close.
type stdioStream struct {
	in    *os.File
	out   *os.File
	state *term.State
}

func (s *stdioStream) Read(p []byte) (int, error) {
	return s.in.Read(p)
}

func (s *stdioStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *stdioStream) Close() error {
	if s.state != nil {
		return term.Restore(int(s.in.Fd()), s.state)
	}
	return nil
}

func openStdio() (io.ReadWriteCloser, error) {
	s := &stdioStream{in: os.Stdin, out: os.Stdout}
	if fd := int(s.in.Fd()); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		s.state = state
	}
	return s, nil
}

func listenStdio() (Listener, error) {
	return newSingle("stdio", openStdio), nil
}
