//go:build tinygo && risky

package risky

import (
	"runtime/volatile"
	"unsafe"
)

// Memory map.
const (
	ROMBase uintptr = 0x00000000
	RAMBase uintptr = 0x10000000
	IOBase  uintptr = 0x20000000

	ROMSize uintptr = 32 * 1024
	RAMSize uintptr = 8 * 1024

	UARTBase uintptr = IOBase + 0x000
	InfoBase uintptr = IOBase + 0x100
	LEDsBase uintptr = IOBase + 0x200
)

// UART control bits.
const (
	UARTTxReady = 1 << 0
	UARTRxReady = 1 << 0
)

// UART_Type is the register block of the UART.
type UART_Type struct {
	TX_CONTROL volatile.Register32
	RX_CONTROL volatile.Register32
	RX         volatile.Register32
	TX         volatile.Register32
	BAUD       volatile.Register32
}

// INFO_Type is the register block of the info peripheral.
type INFO_Type struct {
	CLK_FREQ volatile.Register32
	STD_BAUD volatile.Register32
}

// Peripherals
var (
	UART0 = (*UART_Type)(unsafe.Pointer(UARTBase))
	INFO  = (*INFO_Type)(unsafe.Pointer(InfoBase))
	LEDS  = (*volatile.Register32)(unsafe.Pointer(LEDsBase))
)
