package sim

import (
	"io"
	"sync"
)

// PageSize is the allocation granule of Memory.
const PageSize = 4096

// Memory is a sparse 32-bit address space. Pages are allocated on the first
// store; unallocated memory reads as zero.
type Memory struct {
	lock  sync.RWMutex
	pages map[uint32]*[PageSize]byte
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*[PageSize]byte)}
}

// Load implements monitor.AddressSpace.
func (m *Memory) Load(addr uint32) byte {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if page := m.pages[addr/PageSize]; page != nil {
		return page[addr%PageSize]
	}
	return 0
}

// Store implements monitor.AddressSpace.
func (m *Memory) Store(addr uint32, val byte) {
	m.lock.Lock()
	m.page(addr)[addr%PageSize] = val
	m.lock.Unlock()
}

func (m *Memory) page(addr uint32) *[PageSize]byte {
	page := m.pages[addr/PageSize]
	if page == nil {
		page = new([PageSize]byte)
		m.pages[addr/PageSize] = page
	}
	return page
}

// Write stores data from addr on, wrapping at the end of the address space.
func (m *Memory) Write(addr uint32, data []byte) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, b := range data {
		m.page(addr)[addr%PageSize] = b
		addr++
	}
}

// Read loads n bytes from addr on.
func (m *Memory) Read(addr uint32, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = m.Load(addr)
		addr++
	}
	return data
}

// LoadImage copies everything from r to addr and returns the size.
func (m *Memory) LoadImage(addr uint32, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.Write(addr, data)
	return len(data), nil
}

// Pages returns the number of allocated pages.
func (m *Memory) Pages() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.pages)
}
