package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/sigurn/crc8"
)

const (
	// DefaultTimeout bounds the wait for each response line.
	DefaultTimeout = 5 * time.Second
	// DefaultChunkSize is the size of each read of ReadMemoryStream.
	DefaultChunkSize uint32 = 256
	// ProbeTimeout is how long Connect waits for a banner before querying
	// a monitor that is already running.
	ProbeTimeout = 500 * time.Millisecond
)

// patchOverhead is the longest patch line without its bytes.
const patchOverhead = len("p 00000000\r\n")

// crcTable is CRC-8 with polynomial 0x07.
var crcTable = crc8.MakeTable(crc8.CRC8)

// Info is what the monitor reports about itself.
type Info struct {
	Banner     string `json:"banner"`
	Version    uint32 `json:"version"`
	BufferSize uint32 `json:"buffer_size"`
	BootAddr   uint32 `json:"boot_addr"`
}

// Progress reports a long running transfer.
type Progress struct {
	Phase string
	Done  uint32
	Total uint32
}

// ProgressFunc receives Progress after every chunk.
type ProgressFunc func(Progress)

type chunk struct {
	data []byte
	err  error
}

// Client talks to a monitor over a byte stream. It is not safe for
// concurrent use.
type Client struct {
	Timeout   time.Duration
	ChunkSize uint32
	Progress  ProgressFunc

	rw       io.ReadWriter
	chunkCh  chan chunk
	stopCh   chan struct{}
	stopOnce sync.Once
	buf      []byte
	err      error

	attached bool
	echo     bool
	info     *Info

	// staleCode is the code of a command whose response may still arrive,
	// zero when the stream is in step.
	staleCode byte
}

// New creates a Client and starts reading rw.
func New(rw io.ReadWriter) *Client {
	c := &Client{
		Timeout:   DefaultTimeout,
		ChunkSize: DefaultChunkSize,
		rw:        rw,
		chunkCh:   make(chan chunk, 16),
		stopCh:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer close(c.chunkCh)
	for {
		buf := make([]byte, 512)
		n, err := c.rw.Read(buf)
		if n > 0 {
			select {
			case c.chunkCh <- chunk{data: buf[:n]}:
			case <-c.stopCh:
				return
			}
		}
		if err != nil {
			select {
			case c.chunkCh <- chunk{err: err}:
			case <-c.stopCh:
			}
			return
		}
	}
}

// Close stops reading and closes the stream if it is an io.Closer.
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Connected tells whether a monitor has been detected and not booted away.
func (c *Client) Connected() bool {
	return c.attached
}

// Info returns the info read when connecting, nil if not connected.
func (c *Client) Info() *Info {
	return c.info
}

// EchoEnabled returns the echo state as known to the client.
func (c *Client) EchoEnabled() bool {
	return c.echo
}

func (c *Client) nextLine() (string, bool) {
	for {
		i := bytes.IndexAny(c.buf, "\r\n")
		if i < 0 {
			return "", false
		}
		line := string(c.buf[:i])
		c.buf = c.buf[i+1:]
		if line != "" {
			return line, true
		}
	}
}

// readLine returns the next non-empty line. timeout 0 waits for ctx only.
func (c *Client) readLine(ctx context.Context, timeout time.Duration) (string, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	for {
		if line, ok := c.nextLine(); ok {
			glog.V(4).Infof("< %s", line)
			return line, nil
		}
		if c.err != nil {
			return "", c.err
		}
		select {
		case ch, ok := <-c.chunkCh:
			switch {
			case !ok:
				c.err = io.EOF
			case ch.err != nil:
				c.err = ch.err
			default:
				c.buf = append(c.buf, ch.data...)
			}
		case <-timer:
			return "", ErrTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *Client) send(line string) error {
	glog.V(4).Infof("> %s", line)
	_, err := io.WriteString(c.rw, line+"\r\n")
	return err
}

// WaitForReset waits for the banner of a monitor coming out of reset, then
// reads and validates its info.
func (c *Client) WaitForReset(ctx context.Context) error {
	for {
		line, err := c.readLine(ctx, 0)
		if err != nil {
			return err
		}
		if version, ok := ParseBanner(line); ok {
			return c.attach(ctx, version, line)
		}
	}
}

// Connect attaches to a monitor which either comes out of reset within
// ProbeTimeout or is already running and answers the info command.
func (c *Client) Connect(ctx context.Context) error {
	for {
		line, err := c.readLine(ctx, ProbeTimeout)
		if err == ErrTimeout {
			break
		}
		if err != nil {
			return err
		}
		if version, ok := ParseBanner(line); ok {
			return c.attach(ctx, version, line)
		}
	}
	c.attached = true
	info, err := c.ReadInfo(ctx)
	if err != nil {
		c.attached = false
		return err
	}
	return c.validate(info, info.Version, info.Banner)
}

func (c *Client) attach(ctx context.Context, version uint32, banner string) error {
	c.attached, c.echo, c.staleCode = true, false, 0
	info, err := c.ReadInfo(ctx)
	if err != nil {
		c.attached = false
		return err
	}
	return c.validate(info, version, banner)
}

func (c *Client) validate(info *Info, version uint32, banner string) error {
	bannerVersion, ok := ParseBanner(info.Banner)
	switch {
	case !ok || bannerVersion != info.Version:
		c.attached = false
		return fmt.Errorf("%w: banner %q with version %d", ErrBadInfo, info.Banner, info.Version)
	case info.Version != version:
		c.attached = false
		return fmt.Errorf("%w: version %d, reset banner reports %d", ErrBadInfo, info.Version, version)
	case !strings.HasSuffix(strings.TrimSpace(banner), info.Banner):
		c.attached = false
		return fmt.Errorf("%w: banner %q, reset banner %q", ErrBadInfo, info.Banner, banner)
	case info.BufferSize <= uint32(patchOverhead):
		c.attached = false
		return fmt.Errorf("%w: buffer size %d", ErrBadInfo, info.BufferSize)
	}
	c.info = info
	glog.V(2).Infof("connected %s, buffer %d, boot %08x", info.Banner, info.BufferSize, info.BootAddr)
	return nil
}

// Command sends a command and collects response lines up to the status
// line of the same code.
func (c *Client) Command(ctx context.Context, code byte, args ...uint32) (uint32, []string, error) {
	if !c.attached {
		return 0, nil, ErrNotConnected
	}
	if c.staleCode != 0 {
		if err := c.resync(ctx); err != nil {
			return 0, nil, err
		}
	}
	line := FormatCommand(code, args...)
	if err := c.send(line); err != nil {
		c.staleCode = code
		return 0, nil, err
	}
	var lines []string
	for first := true; ; first = false {
		resp, err := c.readLine(ctx, c.Timeout)
		if err != nil {
			c.staleCode = code
			return 0, lines, fmt.Errorf("%s: %w", line, err)
		}
		status, val, isStatus := ParseStatus(resp)
		isStatus = isStatus && status == code
		if first && resp == line && (c.echo || !isStatus) {
			// echo enabled outside this client
			c.echo = true
			continue
		}
		if msg, ok := ParseError(resp); ok {
			return 0, lines, &DeviceError{Message: msg}
		}
		if isStatus {
			return val, lines, nil
		}
		lines = append(lines, resp)
	}
}

// resync discards the output of a command that failed before its status
// arrived. The monitor answers in order, so everything up to the status of
// a marker command belongs to earlier commands. The marker differs from
// the failed command so a late status cannot be taken for it.
func (c *Client) resync(ctx context.Context) error {
	c.buf = c.buf[:0]
	for drained := c.err != nil; !drained; {
		select {
		case ch, ok := <-c.chunkCh:
			switch {
			case !ok:
				c.err, drained = io.EOF, true
			case ch.err != nil:
				c.err, drained = ch.err, true
			}
		default:
			drained = true
		}
	}
	marker := FormatCommand('i')
	if c.staleCode == 'i' {
		marker = FormatCommand('m', 0, 0)
	}
	glog.V(2).Infof("resync after %c with %s", c.staleCode, marker)
	if err := c.send(marker); err != nil {
		return err
	}
	for {
		resp, err := c.readLine(ctx, c.Timeout)
		if err != nil {
			return fmt.Errorf("resync: %w", err)
		}
		if code, _, ok := ParseStatus(resp); ok && code == marker[0] {
			c.staleCode = 0
			return nil
		}
	}
}

// ReadInfo queries the monitor with the info command.
func (c *Client) ReadInfo(ctx context.Context) (*Info, error) {
	version, lines, err := c.Command(ctx, 'i')
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: missing banner", ErrBadInfo)
	}
	info := &Info{Banner: strings.TrimSpace(lines[0]), Version: version}
	for _, line := range lines[1:] {
		code, val, ok := ParseStatus(line)
		switch {
		case ok && code == 'k':
			info.BufferSize = val
		case ok && code == 'b':
			info.BootAddr = val
		default:
			return nil, &UnexpectedLineError{Code: 'i', Line: line}
		}
	}
	return info, nil
}

// Echo toggles echo and returns the new state.
func (c *Client) Echo(ctx context.Context) (bool, error) {
	status, lines, err := c.Command(ctx, 'e')
	if err != nil {
		return c.echo, err
	}
	if len(lines) > 0 {
		return c.echo, &UnexpectedLineError{Code: 'e', Line: lines[0]}
	}
	c.echo = status != 0
	return c.echo, nil
}

// Boot starts the image at addr, or at the default boot address when addr
// is nil. The monitor does not answer; the client is disconnected.
func (c *Client) Boot(ctx context.Context, addr *uint32) error {
	if !c.attached {
		return ErrNotConnected
	}
	line := FormatCommand('b')
	if addr != nil {
		line = FormatCommand('b', *addr)
	}
	c.attached, c.info = false, nil
	return c.send(line)
}

// ReadMemory reads [start, end).
func (c *Client) ReadMemory(ctx context.Context, start, end uint32) ([]byte, error) {
	if end < start {
		return nil, ErrInvalidRange
	}
	amount, lines, err := c.Command(ctx, 'm', start, end)
	if err != nil {
		return nil, err
	}
	if amount != end-start {
		return nil, &CountMismatchError{Code: 'm', Expected: end - start, Actual: amount}
	}
	data := make([]byte, 0, amount)
	cur := start
	for _, line := range lines {
		addr, row, ok := ParseDumpRow(line)
		if !ok {
			return nil, &UnexpectedLineError{Code: 'm', Line: line}
		}
		if addr != cur {
			return nil, &AddressMismatchError{Expected: cur, Actual: addr}
		}
		data = append(data, row...)
		cur += uint32(len(row))
	}
	if uint32(len(data)) != amount {
		return nil, &CountMismatchError{Code: 'm', Expected: amount, Actual: uint32(len(data))}
	}
	return data, nil
}

// ReadMemoryStream reads [start, end) in chunks of ChunkSize into w.
func (c *Client) ReadMemoryStream(ctx context.Context, start, end uint32, w io.Writer) error {
	if end < start {
		return ErrInvalidRange
	}
	size := c.ChunkSize
	if size == 0 {
		size = DefaultChunkSize
	}
	for cur := start; cur < end; {
		stop := end
		if end-cur > size {
			stop = cur + size
		}
		data, err := c.ReadMemory(ctx, cur, stop)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		cur = stop
		c.progress("read", cur-start, end-start)
	}
	return nil
}

// CopyMemory copies [start, end) to dest on the device.
func (c *Client) CopyMemory(ctx context.Context, start, end, dest uint32) error {
	if end < start {
		return ErrInvalidRange
	}
	amount, lines, err := c.Command(ctx, 'c', start, end, dest)
	if err != nil {
		return err
	}
	if amount != end-start {
		return &CountMismatchError{Code: 'c', Expected: end - start, Actual: amount}
	}
	if len(lines) > 0 {
		return &UnexpectedLineError{Code: 'c', Line: lines[0]}
	}
	return nil
}

// WriteChunkSize is the number of bytes per patch command that fit the
// monitor's buffer.
func (c *Client) WriteChunkSize() int {
	if c.info == nil {
		return 0
	}
	return (int(c.info.BufferSize) - patchOverhead) / len(" 00")
}

// WriteMemory writes data at start.
func (c *Client) WriteMemory(ctx context.Context, start uint32, data []byte) error {
	size := c.WriteChunkSize()
	if size <= 0 {
		return ErrNotConnected
	}
	total := uint32(len(data))
	for i := 0; i < len(data); i += size {
		part := data[i:]
		if len(part) > size {
			part = part[:size]
		}
		args := make([]uint32, 0, len(part)+1)
		args = append(args, start+uint32(i))
		for _, b := range part {
			args = append(args, uint32(b))
		}
		amount, lines, err := c.Command(ctx, 'p', args...)
		if err != nil {
			return err
		}
		if amount != uint32(len(part)) {
			return &CountMismatchError{Code: 'p', Expected: uint32(len(part)), Actual: amount}
		}
		if len(lines) > 0 {
			return &UnexpectedLineError{Code: 'p', Line: lines[0]}
		}
		c.progress("write", uint32(i+len(part)), total)
	}
	return nil
}

// Checksum computes CRC-8 of [start, end) as read from the device.
func (c *Client) Checksum(ctx context.Context, start, end uint32) (uint8, error) {
	w := &crcWriter{crc: crc8.Init(crcTable)}
	if err := c.ReadMemoryStream(ctx, start, end, w); err != nil {
		return 0, err
	}
	return crc8.Complete(w.crc, crcTable), nil
}

// VerifyMemory compares the device's checksum of a range with data.
func (c *Client) VerifyMemory(ctx context.Context, start uint32, data []byte) error {
	crc, err := c.Checksum(ctx, start, start+uint32(len(data)))
	if err != nil {
		return err
	}
	if expected := Checksum(data); crc != expected {
		return fmt.Errorf("%w: crc %02x, expected %02x", ErrVerifyFailed, crc, expected)
	}
	return nil
}

// Attach copies raw device output to w until ctx is done or the stream
// ends.
func (c *Client) Attach(ctx context.Context, w io.Writer) error {
	if len(c.buf) > 0 {
		if _, err := w.Write(c.buf); err != nil {
			return err
		}
		c.buf = nil
	}
	for c.err == nil {
		select {
		case ch, ok := <-c.chunkCh:
			switch {
			case !ok:
				c.err = io.EOF
			case ch.err != nil:
				c.err = ch.err
			default:
				if _, err := w.Write(ch.data); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.err == io.EOF {
		return nil
	}
	return c.err
}

func (c *Client) progress(phase string, done, total uint32) {
	if fn := c.Progress; fn != nil {
		fn(Progress{Phase: phase, Done: done, Total: total})
	}
}

// Checksum computes CRC-8 of data the way Client.Checksum does.
func Checksum(data []byte) uint8 {
	return crc8.Checksum(data, crcTable)
}

type crcWriter struct {
	crc uint8
}

func (w *crcWriter) Write(p []byte) (int, error) {
	w.crc = crc8.Update(w.crc, p, crcTable)
	return len(p), nil
}
