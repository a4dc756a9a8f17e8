package link

import (
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		in     string
		scheme string
		host   string
		path   string
	}{
		{"/dev/ttyUSB0", "serial", "", "/dev/ttyUSB0"},
		{"COM3", "serial", "", "COM3"},
		{"COM12:", "serial", "", "COM12"},
		{"serial:///dev/ttyACM0?baud=9600", "serial", "", "/dev/ttyACM0"},
		{"tcp://localhost:2323", "tcp", "localhost:2323", ""},
		{"ws://localhost:8080/uart", "ws", "localhost:8080", "/uart"},
		{"mqtt://broker:1883/risky/?device=sim", "mqtt", "broker:1883", "/risky/"},
		{"pty:", "pty", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			u, err := Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.scheme, u.Scheme)
			require.Equal(t, tc.host, u.Host)
			require.Equal(t, tc.path, u.Path)
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := SerialMode(&url.URL{})
	require.NoError(t, err)
	require.Equal(t, DefaultBaud, mode.BaudRate)
	require.Equal(t, 8, mode.DataBits)
	require.Equal(t, serial.NoParity, mode.Parity)

	u, _ := Parse("serial:///dev/ttyUSB0?baud=9600")
	mode, err = SerialMode(u)
	require.NoError(t, err)
	require.Equal(t, 9600, mode.BaudRate)

	u, _ = Parse("serial:///dev/ttyUSB0?baud=fast")
	_, err = SerialMode(u)
	require.Error(t, err)
}

func TestUnknownScheme(t *testing.T) {
	_, err := Dial(context.Background(), "gopher://host")
	require.Error(t, err)
	require.IsType(t, &UnknownSchemeError{}, err)
	require.Contains(t, err.Error(), "dial")

	_, err = Listen("/dev/ttyUSB0")
	require.IsType(t, &UnknownSchemeError{}, err)

	_, err = Dial(context.Background(), "pty:")
	require.IsType(t, &UnknownSchemeError{}, err)
}

func TestMissingDevice(t *testing.T) {
	_, err := Listen("mqtt://localhost:1883/risky/")
	require.Equal(t, ErrNoDevice, err)
	_, err = Dial(context.Background(), "serial:")
	require.Equal(t, ErrNoDevice, err)
}

func roundTrip(t *testing.T, l Listener) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptCh := make(chan io.ReadWriteCloser, 1)
	go func() {
		s, err := l.Accept(ctx)
		if err == nil {
			acceptCh <- s
		}
		close(acceptCh)
	}()

	client, err := Dial(ctx, l.Addr())
	require.NoError(t, err)
	defer client.Close()

	var server io.ReadWriteCloser
	select {
	case server = <-acceptCh:
		require.NotNil(t, server)
	case <-ctx.Done():
		t.Fatal("accept timeout")
	}
	defer server.Close()

	_, err = client.Write([]byte("i\r\n"))
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	require.Equal(t, "i\r\n", string(buf))

	_, err = server.Write([]byte("i 1\r\n"))
	require.NoError(t, err)
	buf = make([]byte, 5)
	_, err = io.ReadFull(client, buf)
	require.NoError(t, err)
	require.Equal(t, "i 1\r\n", string(buf))
}

func TestTCPRoundTrip(t *testing.T) {
	l, err := Listen("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	roundTrip(t, l)
}

func TestWebsocketRoundTrip(t *testing.T) {
	l, err := Listen("ws://127.0.0.1:0/uart")
	require.NoError(t, err)
	defer l.Close()
	roundTrip(t, l)
}

func TestTCPAcceptCancelled(t *testing.T) {
	l, err := Listen("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Accept(ctx)
	require.Equal(t, context.Canceled, err)
}

type nopStream struct {
	io.Reader
	io.Writer
	closed bool
}

func (s *nopStream) Close() error {
	s.closed = true
	return nil
}

func TestSingleListener(t *testing.T) {
	opened := 0
	l := newSingle("test", func() (io.ReadWriteCloser, error) {
		opened++
		return &nopStream{}, nil
	})
	require.Equal(t, "test", l.Addr())

	s, err := l.Accept(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, 1, opened)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Accept(ctx)
	require.Equal(t, context.DeadlineExceeded, err)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	_, err = l.Accept(context.Background())
	require.Equal(t, ErrListenerClosed, err)
	require.Equal(t, 1, opened)
}
