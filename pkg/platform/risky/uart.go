//go:build tinygo && risky

package risky

// UART is the monitor transport on UART0.
type UART struct {
	Regs *UART_Type
}

// NewUART returns the transport of UART0.
func NewUART() *UART {
	return &UART{Regs: UART0}
}

// Send implements monitor.Transport.
func (u *UART) Send(b byte) {
	for !u.Regs.TX_CONTROL.HasBits(UARTTxReady) {
	}
	u.Regs.TX.Set(uint32(b))
}

// RecvReady implements monitor.Transport.
func (u *UART) RecvReady() bool {
	return u.Regs.RX_CONTROL.HasBits(UARTRxReady)
}

// Recv implements monitor.Transport.
func (u *UART) Recv() byte {
	for !u.RecvReady() {
	}
	return byte(u.Regs.RX.Get())
}

// SetBaud implements monitor.BaudSetter. The divisor is fixed at synthesis
// for the standard rate, so only that rate is programmed.
func (u *UART) SetBaud(baud uint32) {
	u.Regs.BAUD.Set(INFO.STD_BAUD.Get())
}
