package monitor

// BufferSize is the capacity of the command buffer.
const BufferSize = 1024

// Session holds the state of one monitor run. It replaces process-wide
// globals: the Monitor owns it and lends it to the line reader, the parser
// and the dispatcher.
type Session struct {
	// Echo reflects received bytes back to the transport when set.
	Echo bool
	// LastAddress is where a dump without a start address begins.
	LastAddress uint32

	buf  [BufferSize]byte
	next int
	size int
}

// Line returns the last completed line, without its terminator. It is only
// valid until the next byte is fed to the line reader.
func (s *Session) Line() []byte {
	return s.buf[:s.size]
}

// Pending returns the number of bytes accumulated for the current line.
func (s *Session) Pending() int {
	return s.next
}
