package monitor

// AddressSpace gives byte access to the full 32-bit address space. Addresses
// are not validated: an invalid one does whatever the backing store does.
type AddressSpace interface {
	Load(addr uint32) byte
	Store(addr uint32, val byte)
}

// DumpRowSize is the number of bytes per dump row.
const DumpRowSize = 16

// Dump prints [start, end) as hex rows and returns end - start.
//
//	00001000:   00 01 02 03  04 05 06 07   08 09 0a 0b  0c 0d 0e 0f
func Dump(w Writer, mem AddressSpace, start, end uint32) uint32 {
	cur := start
	for cur < end {
		w.SendHex(cur, 8)
		w.Send(':')
		for col := 0; cur < end && col < DumpRowSize; col++ {
			w.Send(' ')
			if col&0x3 == 0 {
				w.Send(' ')
				if col&0x7 == 0 {
					w.Send(' ')
				}
			}
			w.SendHex(uint32(mem.Load(cur)), 2)
			cur++
		}
		w.SendLine("")
	}
	return end - start
}

// Copy copies [start, end) to dest one byte at a time in forward direction
// and returns end - start. A dest inside (start, end) corrupts the copy.
func Copy(mem AddressSpace, start, end, dest uint32) uint32 {
	for cur := start; cur < end; cur++ {
		mem.Store(dest, mem.Load(cur))
		dest++
	}
	return end - start
}

// Patch writes the preparsed bytes a and b (as many as preparsed says were
// given), then every further hex token from p, at consecutive addresses
// from start. It returns the number of bytes written.
func Patch(mem AddressSpace, start, preparsed uint32, a, b byte, p *Parser) uint32 {
	cur := start
	if preparsed > 0 {
		mem.Store(cur, a)
		cur++
		preparsed--
	}
	if preparsed > 0 {
		mem.Store(cur, b)
		cur++
	}
	for {
		val, ok := p.ParseHex()
		if !ok {
			break
		}
		mem.Store(cur, byte(val))
		cur++
	}
	return cur - start
}
