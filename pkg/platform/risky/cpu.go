//go:build tinygo && risky

package risky

import (
	"device/riscv"
	"unsafe"
)

// CycleCounter reads the cycle CSRs.
type CycleCounter struct{}

// High implements monitor.Counter with cycleh.
func (CycleCounter) High() uint32 {
	return uint32(riscv.AsmFull("csrr {}, 0xc80", nil))
}

// Low implements monitor.Counter with cycle.
func (CycleCounter) Low() uint32 {
	return uint32(riscv.AsmFull("csrr {}, 0xc00", nil))
}

// ClockFreq returns the core clock frequency in Hz.
func ClockFreq() uint32 {
	return INFO.CLK_FREQ.Get()
}

// Memory is the physical address space.
type Memory struct{}

// Load implements monitor.AddressSpace.
func (Memory) Load(addr uint32) byte {
	return *(*byte)(unsafe.Pointer(uintptr(addr)))
}

// Store implements monitor.AddressSpace.
func (Memory) Store(addr uint32, val byte) {
	*(*byte)(unsafe.Pointer(uintptr(addr))) = val
}

// Jump transfers control to addr and does not return.
func Jump(addr uint32) {
	riscv.AsmFull("jalr ra, 0({addr})", map[string]interface{}{
		"addr": uintptr(addr),
	})
	for {
	}
}
