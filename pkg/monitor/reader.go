package monitor

const overrunMessage = "overrun"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// LineReader accumulates received bytes into the session's command buffer.
type LineReader struct {
	Session *Session
	Out     Writer
}

// Feed consumes one byte and reports whether a complete line is ready.
// Blank lines, repeated terminators and leading whitespace are absorbed.
// A line that fills the buffer is discarded with an overrun diagnostic.
func (r *LineReader) Feed(c byte) bool {
	s := r.Session
	s.buf[s.next] = c

	if (c == '\n' || c == '\r') && s.next > 0 {
		if s.Echo {
			r.Out.SendLine("")
		}
		s.buf[s.next] = 0
		s.size, s.next = s.next, 0
		return true
	}

	if s.next == 0 && isSpace(c) {
		return false
	}

	s.next++
	if s.Echo {
		r.Out.Send(c)
	}

	if s.next >= len(s.buf) {
		r.Out.SendError(overrunMessage)
		s.next = 0
	}
	return false
}
