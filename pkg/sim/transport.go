package sim

import (
	"io"
	"sync"

	"github.com/golang/glog"
)

const (
	rxQueueSize = 1024
	txFlushSize = 256
)

// StreamTransport adapts a byte stream to the polled monitor.Transport.
// A goroutine drains the stream into a receive queue. Output is buffered
// until a line ends, the buffer fills or the monitor polls for input.
type StreamTransport struct {
	Stream io.ReadWriter

	rxCh       chan byte
	stopCh     chan struct{}
	stopOnce   sync.Once
	pending    byte
	hasPending bool
	eof        bool
	out        []byte
	baud       uint32

	errLock sync.Mutex
	err     error
}

// NewStreamTransport creates a StreamTransport and starts reading s.
func NewStreamTransport(s io.ReadWriter) *StreamTransport {
	t := &StreamTransport{
		Stream: s,
		rxCh:   make(chan byte, rxQueueSize),
		stopCh: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *StreamTransport) readLoop() {
	defer close(t.rxCh)
	buf := make([]byte, 256)
	for {
		n, err := t.Stream.Read(buf)
		for _, b := range buf[:n] {
			select {
			case t.rxCh <- b:
			case <-t.stopCh:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				t.setErr(err)
			}
			glog.V(2).Infof("stream read ended: %v", err)
			return
		}
	}
}

func (t *StreamTransport) setErr(err error) {
	t.errLock.Lock()
	if t.err == nil {
		t.err = err
		glog.Warningf("stream error: %v", err)
	}
	t.errLock.Unlock()
}

// Err returns the first read or write error.
func (t *StreamTransport) Err() error {
	t.errLock.Lock()
	defer t.errLock.Unlock()
	return t.err
}

// Send implements monitor.Transport.
func (t *StreamTransport) Send(b byte) {
	t.out = append(t.out, b)
	if b == '\n' || len(t.out) >= txFlushSize {
		t.Flush()
	}
}

// Flush writes buffered output. Output is dropped after a write error.
func (t *StreamTransport) Flush() {
	if len(t.out) == 0 {
		return
	}
	out := t.out
	t.out = t.out[:0]
	if t.Err() != nil {
		return
	}
	if _, err := t.Stream.Write(out); err != nil {
		t.setErr(err)
	}
}

// RecvReady implements monitor.Transport.
func (t *StreamTransport) RecvReady() bool {
	t.Flush()
	if t.hasPending {
		return true
	}
	select {
	case b, ok := <-t.rxCh:
		if !ok {
			t.eof = true
			return false
		}
		t.pending, t.hasPending = b, true
		return true
	default:
		return false
	}
}

// Recv implements monitor.Transport.
func (t *StreamTransport) Recv() byte {
	if !t.hasPending {
		b, ok := <-t.rxCh
		if !ok {
			t.eof = true
		}
		return b
	}
	t.hasPending = false
	return t.pending
}

// SetBaud implements monitor.BaudSetter. Streams have no baud rate; the
// value is only recorded.
func (t *StreamTransport) SetBaud(baud uint32) {
	t.baud = baud
	glog.V(2).Infof("baud %d", baud)
}

// Baud returns the last baud rate set.
func (t *StreamTransport) Baud() uint32 {
	return t.baud
}

// Closed tells whether all input has been consumed and the stream ended, or
// the stream failed.
func (t *StreamTransport) Closed() bool {
	return (t.eof && !t.hasPending) || t.Err() != nil
}

// Stop ends the read goroutine once it is blocked on a full queue or the
// stream is closed.
func (t *StreamTransport) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}
