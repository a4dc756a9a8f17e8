package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/risky-soc/riskymon/pkg/monitor"
	"github.com/risky-soc/riskymon/pkg/sim"
)

type simDevice struct {
	t      *testing.T
	board  *sim.Board
	client *Client
	doneCh chan error
}

// newSimDevice connects a Client to a simulated board over a pipe.
func newSimDevice(t *testing.T) *simDevice {
	mc := monitor.NewConfig()
	mc.Timeout = time.Minute
	conf := sim.NewConfig()
	conf.PollInterval = 100 * time.Microsecond
	d := &simDevice{
		t:      t,
		board:  sim.NewBoard(conf, mc),
		doneCh: make(chan error, 1),
	}
	clientConn, boardConn := net.Pipe()
	go func() {
		d.doneCh <- d.board.Serve(context.Background(), boardConn)
		boardConn.Close()
	}()
	d.client = New(clientConn)
	require.NoError(t, d.client.Connect(context.Background()))
	return d
}

func (d *simDevice) Close() {
	d.client.Close()
}

func testPattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i/256)
	}
	return data
}

func TestClientConnect(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	require.True(t, c.Connected())
	require.Equal(t, &Info{Banner: "risky-b1", Version: 1, BufferSize: 0x400, BootAddr: 0}, c.Info())
	require.Equal(t, 337, c.WriteChunkSize())
	require.False(t, c.EchoEnabled())
}

func TestClientConnectRunning(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	c.attached, c.info = false, nil
	require.NoError(t, c.Connect(context.Background()))
	require.Equal(t, uint32(0x400), c.Info().BufferSize)
}

func TestClientWriteRead(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	ctx := context.Background()
	data := testPattern(1000)

	var progress []Progress
	c.Progress = func(p Progress) { progress = append(progress, p) }
	require.NoError(t, c.WriteMemory(ctx, 0x10000000, data))
	require.Equal(t, []Progress{
		{"write", 337, 1000},
		{"write", 674, 1000},
		{"write", 1000, 1000},
	}, progress)
	require.Equal(t, data, d.board.Memory.Read(0x10000000, len(data)))

	out, err := c.ReadMemory(ctx, 0x10000000, 0x10000064)
	require.NoError(t, err)
	require.Equal(t, data[:100], out)

	progress = nil
	var buf bytes.Buffer
	require.NoError(t, c.ReadMemoryStream(ctx, 0x10000000, 0x10000000+1000, &buf))
	require.Equal(t, data, buf.Bytes())
	require.Equal(t, []Progress{
		{"read", 256, 1000},
		{"read", 512, 1000},
		{"read", 768, 1000},
		{"read", 1000, 1000},
	}, progress)

	out, err = c.ReadMemory(ctx, 0x100, 0x100)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestClientCopyChecksum(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	ctx := context.Background()
	data := []byte("hello, risky")

	require.NoError(t, c.WriteMemory(ctx, 0x1000, data))
	require.NoError(t, c.CopyMemory(ctx, 0x1000, 0x1000+uint32(len(data)), 0x2000))
	require.Equal(t, data, d.board.Memory.Read(0x2000, len(data)))

	crc, err := c.Checksum(ctx, 0x2000, 0x2000+uint32(len(data)))
	require.NoError(t, err)
	require.Equal(t, Checksum(data), crc)
	require.NoError(t, c.VerifyMemory(ctx, 0x2000, data))

	err = c.VerifyMemory(ctx, 0x2000, []byte("hello, world"))
	require.True(t, errors.Is(err, ErrVerifyFailed))
}

func TestClientInvalidRange(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	ctx := context.Background()
	_, err := d.client.ReadMemory(ctx, 0x10, 0)
	require.Equal(t, ErrInvalidRange, err)
	require.Equal(t, ErrInvalidRange, d.client.CopyMemory(ctx, 0x10, 0, 0x100))
	require.Equal(t, ErrInvalidRange, d.client.ReadMemoryStream(ctx, 0x10, 0, &bytes.Buffer{}))
}

func TestClientEcho(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	ctx := context.Background()

	on, err := c.Echo(ctx)
	require.NoError(t, err)
	require.True(t, on)

	require.NoError(t, c.WriteMemory(ctx, 0x40, []byte{1, 2, 3}))
	out, err := c.ReadMemory(ctx, 0x40, 0x43)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, out)

	on, err = c.Echo(ctx)
	require.NoError(t, err)
	require.False(t, on)
	_, err = c.ReadInfo(ctx)
	require.NoError(t, err)
}

func TestClientLearnsEcho(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	ctx := context.Background()

	// toggled behind the client's back
	require.NoError(t, c.send("e"))
	line, err := c.readLine(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, "e 1", line)
	require.False(t, c.EchoEnabled())

	info, err := c.ReadInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "risky-b1", info.Banner)
	require.True(t, c.EchoEnabled())
}

func TestClientBoot(t *testing.T) {
	d := newSimDevice(t)
	defer d.Close()
	c := d.client
	addr := uint32(0x10000000)
	require.NoError(t, c.Boot(context.Background(), &addr))
	require.False(t, c.Connected())
	require.Nil(t, c.Info())

	select {
	case err := <-d.doneCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("board did not boot")
	}
	_, _, err := c.Command(context.Background(), 'i')
	require.Equal(t, ErrNotConnected, err)
	require.Equal(t, ErrNotConnected, c.Boot(context.Background(), nil))
}

// scriptedDevice answers command lines with canned responses. A line found
// in late is answered once, after lateBy, and then from replies.
type scriptedDevice struct {
	conn    net.Conn
	replies map[string]string
	late    map[string]string
	lateBy  time.Duration
}

func newScripted(t *testing.T, greeting string, replies map[string]string) *Client {
	return newScriptedDevice(&scriptedDevice{replies: replies}, greeting)
}

func newScriptedDevice(d *scriptedDevice, greeting string) *Client {
	clientConn, deviceConn := net.Pipe()
	d.conn = deviceConn
	go d.run(greeting)
	c := New(clientConn)
	c.Timeout = 100 * time.Millisecond
	return c
}

func (d *scriptedDevice) reply(line string) (string, bool) {
	if reply, ok := d.late[line]; ok {
		delete(d.late, line)
		time.Sleep(d.lateBy)
		return reply, true
	}
	reply, ok := d.replies[line]
	return reply, ok
}

func (d *scriptedDevice) run(greeting string) {
	defer d.conn.Close()
	if greeting != "" {
		if _, err := d.conn.Write([]byte(greeting)); err != nil {
			return
		}
	}
	scanner := bufio.NewScanner(d.conn)
	for scanner.Scan() {
		if reply, ok := d.reply(strings.TrimSpace(scanner.Text())); ok {
			if _, err := d.conn.Write([]byte(reply)); err != nil {
				return
			}
		}
	}
}

const infoReply = "risky-b1\r\nk 400\r\nb 0\r\ni 1\r\n"

func attached(c *Client) *Client {
	c.attached = true
	c.info = &Info{Banner: "risky-b1", Version: 1, BufferSize: 0x400}
	return c
}

func TestClientWaitForReset(t *testing.T) {
	c := newScripted(t, "\x00noise\r\nbooting\r\nrisky-b1\r\n", map[string]string{"i": infoReply})
	defer c.Close()
	require.NoError(t, c.WaitForReset(context.Background()))
	require.Equal(t, uint32(1), c.Info().Version)
}

func TestClientBadInfo(t *testing.T) {
	testCases := []struct {
		name     string
		greeting string
		reply    string
	}{
		{"version", "risky-b2\r\n", infoReply},
		{"banner", "risky-b1\r\n", "risky-b2\r\nk 400\r\nb 0\r\ni 1\r\n"},
		{"missing banner", "risky-b1\r\n", "i 1\r\n"},
		{"no buffer size", "risky-b1\r\n", "risky-b1\r\nb 0\r\ni 1\r\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newScripted(t, tc.greeting, map[string]string{"i": tc.reply})
			defer c.Close()
			err := c.WaitForReset(context.Background())
			require.True(t, errors.Is(err, ErrBadInfo), "%v", err)
			require.False(t, c.Connected())
		})
	}
}

func TestClientUnexpectedInfoLine(t *testing.T) {
	c := newScripted(t, "risky-b1\r\n", map[string]string{"i": "risky-b1\r\nx 5\r\ni 1\r\n"})
	defer c.Close()
	err := c.WaitForReset(context.Background())
	require.Equal(t, &UnexpectedLineError{Code: 'i', Line: "x 5"}, err)
}

func TestClientResponseErrors(t *testing.T) {
	c := attached(newScripted(t, "", map[string]string{
		"m 0 10":    "e: overrun\r\n",
		"m 0 20":    "m 5\r\n",
		"m 0 2":     "00000001:   00 00\r\nm 2\r\n",
		"m 0 3":     "00000000:   00 00\r\nm 3\r\n",
		"m 0 4":     "garbage\r\nm 4\r\n",
		"c 0 10 20": "extra\r\nc 10\r\n",
		"c 0 20 40": "c 8\r\n",
		"p 0 1 2":   "p 1\r\n",
	}))
	defer c.Close()
	ctx := context.Background()

	_, err := c.ReadMemory(ctx, 0, 0x10)
	require.Equal(t, &DeviceError{Message: "overrun"}, err)

	_, err = c.ReadMemory(ctx, 0, 0x20)
	require.Equal(t, &CountMismatchError{Code: 'm', Expected: 0x20, Actual: 5}, err)

	_, err = c.ReadMemory(ctx, 0, 2)
	require.Equal(t, &AddressMismatchError{Expected: 0, Actual: 1}, err)

	_, err = c.ReadMemory(ctx, 0, 3)
	require.Equal(t, &CountMismatchError{Code: 'm', Expected: 3, Actual: 2}, err)

	_, err = c.ReadMemory(ctx, 0, 4)
	require.Equal(t, &UnexpectedLineError{Code: 'm', Line: "garbage"}, err)

	err = c.CopyMemory(ctx, 0, 0x10, 0x20)
	require.Equal(t, &UnexpectedLineError{Code: 'c', Line: "extra"}, err)

	err = c.CopyMemory(ctx, 0, 0x20, 0x40)
	require.Equal(t, &CountMismatchError{Code: 'c', Expected: 0x20, Actual: 8}, err)

	err = c.WriteMemory(ctx, 0, []byte{1, 2})
	require.Equal(t, &CountMismatchError{Code: 'p', Expected: 2, Actual: 1}, err)
}

func TestClientTimeout(t *testing.T) {
	c := attached(newScripted(t, "", nil))
	defer c.Close()
	_, err := c.ReadMemory(context.Background(), 0, 0x10)
	require.True(t, errors.Is(err, ErrTimeout), "%v", err)
}

func TestClientNotConnected(t *testing.T) {
	c := newScripted(t, "", nil)
	defer c.Close()
	_, _, err := c.Command(context.Background(), 'i')
	require.Equal(t, ErrNotConnected, err)
	require.Equal(t, ErrNotConnected, c.WriteMemory(context.Background(), 0, []byte{1}))
}

func TestClientAttach(t *testing.T) {
	clientConn, deviceConn := net.Pipe()
	go func() {
		deviceConn.Write([]byte("hello from image\r\n"))
		deviceConn.Close()
	}()
	c := New(clientConn)
	defer c.Close()

	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Attach(ctx, &buf))
	require.Equal(t, "hello from image\r\n", buf.String())
}

func TestClientLateReplyAfterTimeout(t *testing.T) {
	c := attached(newScriptedDevice(&scriptedDevice{
		replies: map[string]string{
			"i":                "risky-b1\r\nk 400\r\nb 0\r\ni 1\r\n",
			"c 7000 7010 8000": "c 10\r\n",
		},
		late:   map[string]string{"c 1000 1010 2000": "c 10\r\n"},
		lateBy: 250 * time.Millisecond,
	}, ""))
	defer c.Close()
	ctx := context.Background()

	err := c.CopyMemory(ctx, 0x1000, 0x1010, 0x2000)
	require.True(t, errors.Is(err, ErrTimeout), "%v", err)

	// the late "c 10" must not answer this one
	err = c.CopyMemory(ctx, 0x5000, 0x5010, 0x6000)
	require.True(t, errors.Is(err, ErrTimeout), "%v", err)

	require.NoError(t, c.CopyMemory(ctx, 0x7000, 0x7010, 0x8000))
}

func TestClientLateInfoAfterTimeout(t *testing.T) {
	c := attached(newScriptedDevice(&scriptedDevice{
		replies: map[string]string{
			"i":     infoReply,
			"m 0 0": "m 0\r\n",
		},
		late:   map[string]string{"i": "risky-b9\r\nk 10\r\nb 0\r\ni 9\r\n"},
		lateBy: 250 * time.Millisecond,
	}, ""))
	defer c.Close()
	ctx := context.Background()

	_, err := c.ReadInfo(ctx)
	require.True(t, errors.Is(err, ErrTimeout), "%v", err)

	info, err := c.ReadInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, &Info{Banner: "risky-b1", Version: 1, BufferSize: 0x400}, info)
}

func TestClientResyncFails(t *testing.T) {
	c := attached(newScripted(t, "", nil))
	defer c.Close()
	ctx := context.Background()
	_, err := c.ReadMemory(ctx, 0, 0x10)
	require.True(t, errors.Is(err, ErrTimeout), "%v", err)
	_, err = c.ReadMemory(ctx, 0, 0x10)
	require.True(t, errors.Is(err, ErrTimeout), "%v", err)
	require.Contains(t, err.Error(), "resync")
}
