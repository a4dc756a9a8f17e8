package mqtt

import (
	"bytes"
	"io"
	"sync"
)

// Role selects the direction of a Stream.
type Role int

const (
	// RoleDevice receives on rx and transmits on tx, like the board UART.
	RoleDevice Role = iota
	// RoleClient is the host side, the reverse of RoleDevice.
	RoleClient
)

// Topics returns the subscribe and publish topics of a device for role.
func Topics(device string, role Role) (sub, pub string) {
	rx, tx := device+"/rx", device+"/tx"
	if role == RoleDevice {
		return rx, tx
	}
	return tx, rx
}

// Stream is a byte stream carried over a pair of topics. Every Write is one
// message; received payloads are buffered and read back in order.
type Stream struct {
	Queue    *Queue
	SubTopic string
	PubTopic string
	QoS      byte

	lock    sync.Mutex
	buf     bytes.Buffer
	dataCh  chan struct{}
	closeCh chan struct{}
	once    sync.Once
	sub     *Subscription
}

// NewStream creates a Stream for device on q.
func NewStream(q *Queue, device string, role Role) *Stream {
	s := &Stream{
		Queue:   q,
		QoS:     1,
		dataCh:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	s.SubTopic, s.PubTopic = Topics(device, role)
	return s
}

// Open subscribes to the receiving topic. The queue must be connected.
func (s *Stream) Open() error {
	s.sub = s.Queue.Sub(s.SubTopic, s.received)
	s.sub.Token.Wait()
	return s.sub.Token.Error()
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	for {
		s.lock.Lock()
		if s.buf.Len() > 0 {
			n, err := s.buf.Read(p)
			s.lock.Unlock()
			return n, err
		}
		s.lock.Unlock()
		select {
		case <-s.dataCh:
		case <-s.closeCh:
			return 0, io.EOF
		}
	}
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	select {
	case <-s.closeCh:
		return 0, io.ErrClosedPipe
	default:
	}
	payload := make([]byte, len(p))
	copy(payload, p)
	token := s.Queue.PubWith(s.PubTopic, payload, s.QoS, false)
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer. It unsubscribes and disconnects the queue.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closeCh)
		if s.sub != nil {
			err = s.sub.Close()
		}
		s.Queue.Close()
	})
	return err
}

func (s *Stream) received(_ string, payload []byte) {
	s.lock.Lock()
	s.buf.Write(payload)
	s.lock.Unlock()
	select {
	case s.dataCh <- struct{}{}:
	default:
	}
}
