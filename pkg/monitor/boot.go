package monitor

// Booter transfers control to an address. On hardware Boot never returns;
// host implementations record the address and return, after which the
// monitor stops executing.
type Booter interface {
	Boot(addr uint32)
}

// BootFunc is func form of Booter.
type BootFunc func(addr uint32)

// Boot implements Booter.
func (f BootFunc) Boot(addr uint32) {
	f(addr)
}
