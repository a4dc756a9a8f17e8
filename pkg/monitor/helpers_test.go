package monitor

import (
	"bytes"
)

type testTransport struct {
	in   []byte
	out  bytes.Buffer
	baud uint32
}

func (t *testTransport) Send(b byte) {
	t.out.WriteByte(b)
}

func (t *testTransport) RecvReady() bool {
	return len(t.in) > 0
}

func (t *testTransport) Recv() byte {
	b := t.in[0]
	t.in = t.in[1:]
	return b
}

func (t *testTransport) SetBaud(baud uint32) {
	t.baud = baud
}

func (t *testTransport) inject(s string) *testTransport {
	t.in = append(t.in, s...)
	return t
}

func (t *testTransport) output() string {
	s := t.out.String()
	t.out.Reset()
	return s
}

type testMemory map[uint32]byte

func (m testMemory) Load(addr uint32) byte {
	return m[addr]
}

func (m testMemory) Store(addr uint32, val byte) {
	m[addr] = val
}

func (m testMemory) fill(addr uint32, data ...byte) {
	for i, b := range data {
		m[addr+uint32(i)] = b
	}
}

func (m testMemory) read(addr, n uint32) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = m[addr+uint32(i)]
	}
	return data
}

// testCounter advances by step on every read of the low half.
type testCounter struct {
	value uint64
	step  uint64
}

func (c *testCounter) High() uint32 {
	return uint32(c.value >> 32)
}

func (c *testCounter) Low() uint32 {
	lo := uint32(c.value)
	c.value += c.step
	return lo
}

type bootRecorder struct {
	addrs []uint32
}

func (r *bootRecorder) Boot(addr uint32) {
	r.addrs = append(r.addrs, addr)
}

// testRig wires a reader and a dispatcher over in-memory fakes.
type testRig struct {
	conf       *Config
	session    Session
	transport  testTransport
	memory     testMemory
	boots      bootRecorder
	reader     LineReader
	dispatcher Dispatcher
}

func newTestRig() *testRig {
	r := &testRig{conf: NewConfig(), memory: make(testMemory)}
	out := Writer{Transport: &r.transport}
	r.reader = LineReader{Session: &r.session, Out: out}
	r.dispatcher = Dispatcher{
		Config:  r.conf,
		Session: &r.session,
		Memory:  r.memory,
		Out:     out,
		Boot:    r.boots.Boot,
	}
	return r
}

// exec dispatches a single line and returns whether it matched and the
// produced output.
func (r *testRig) exec(line string) (bool, string) {
	ok := r.dispatcher.Dispatch([]byte(line))
	return ok, r.transport.output()
}

// feed pushes raw input through the line reader, dispatching completed
// lines, and returns the produced output.
func (r *testRig) feed(input string) string {
	for i := 0; i < len(input); i++ {
		if r.reader.Feed(input[i]) {
			r.dispatcher.Dispatch(r.session.Line())
		}
	}
	return r.transport.output()
}
