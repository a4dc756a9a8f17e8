package monitor

// Transport is the character transport of the monitor, typically a UART.
// It moves one unbuffered byte at a time and defines no error conditions.
type Transport interface {
	// Send blocks until the transmitter is ready, then writes b.
	Send(b byte)
	// RecvReady polls whether a byte is available, without blocking.
	RecvReady() bool
	// Recv blocks until a byte is available and returns it.
	Recv() byte
}

// BaudSetter is implemented by transports with a configurable baud rate.
type BaudSetter interface {
	SetBaud(baud uint32)
}

const hexDigits = "0123456789abcdef"

// Writer formats monitor output on a Transport.
type Writer struct {
	Transport
}

// SendString sends each byte of s in order.
func (w Writer) SendString(s string) {
	for i := 0; i < len(s); i++ {
		w.Send(s[i])
	}
}

// SendLine sends s followed by CR LF.
func (w Writer) SendLine(s string) {
	w.SendString(s)
	w.SendString("\r\n")
}

// SendError sends a diagnostic line "e: msg".
func (w Writer) SendError(msg string) {
	w.SendLine("e: " + msg)
}

// SendHex sends val in lowercase hex, skipping leading zeros but printing
// at least width digits.
func (w Writer) SendHex(val uint32, width int) {
	started := false
	for digit := 7; digit >= 0; digit-- {
		part := val >> 28
		val <<= 4
		if started || part != 0 || digit < width {
			w.Send(hexDigits[part])
			started = true
		}
	}
}

// SendStatus sends a status line "<code> <hex>".
func (w Writer) SendStatus(code byte, val uint32) {
	w.Send(code)
	w.Send(' ')
	w.SendHex(val, 1)
	w.SendLine("")
}
