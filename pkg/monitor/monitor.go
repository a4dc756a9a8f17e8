package monitor

import "context"

// State is the state of the autoboot state machine.
type State int

const (
	// StateArmed means the autoboot deadline is being checked.
	StateArmed State = iota
	// StateDisarmed means a command succeeded and autoboot is off for good.
	StateDisarmed
	// StateAutoboot means the deadline passed and the default image was booted.
	StateAutoboot
	// StateBooted means the boot command transferred control.
	StateBooted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateDisarmed:
		return "disarmed"
	case StateAutoboot:
		return "autoboot"
	case StateBooted:
		return "booted"
	}
	return "unknown"
}

// IsTerminal indicates control has left the monitor.
func (s State) IsTerminal() bool {
	return s == StateAutoboot || s == StateBooted
}

// StateNotifier is called when the monitor changes state. addr is the boot
// address for terminal states and zero otherwise.
type StateNotifier interface {
	StateChanged(state State, addr uint32)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(State, uint32)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(state State, addr uint32) {
	f(state, addr)
}

// Monitor is the monitor loop. It is driven by a single goroutine and is not
// safe for concurrent use.
type Monitor struct {
	Config    *Config
	Transport Transport
	Memory    AddressSpace
	Clock     *Clock
	Booter    Booter
	Notifier  StateNotifier
	// Idle is called when an iteration found nothing to do. Hardware
	// builds leave it nil and spin.
	Idle func()

	session    Session
	reader     LineReader
	dispatcher Dispatcher
	state      State
	deadline   uint64
}

// New creates a Monitor.
func New(conf *Config, t Transport, mem AddressSpace, clock *Clock, booter Booter) *Monitor {
	m := &Monitor{
		Config:    conf,
		Transport: t,
		Memory:    mem,
		Clock:     clock,
		Booter:    booter,
	}
	out := Writer{Transport: t}
	m.reader = LineReader{Session: &m.session, Out: out}
	m.dispatcher = Dispatcher{
		Config:  conf,
		Session: &m.session,
		Memory:  mem,
		Out:     out,
		Boot:    m.boot,
	}
	return m
}

// State gets the current state.
func (m *Monitor) State() State {
	return m.state
}

// Session gets the session state.
func (m *Monitor) Session() *Session {
	return &m.session
}

// Deadline returns the autoboot deadline in counter ticks.
func (m *Monitor) Deadline() uint64 {
	return m.deadline
}

// Start arms the autoboot deadline, sets up the transport and sends the
// banner.
func (m *Monitor) Start() {
	m.deadline = m.Clock.Deadline(m.Config.Timeout)
	if bs, ok := m.Transport.(BaudSetter); ok && m.Config.Baud != 0 {
		bs.SetBaud(m.Config.Baud)
	}
	Writer{Transport: m.Transport}.SendLine(m.Config.Banner())
	m.state = StateArmed
	m.notify(0)
}

// Step runs one loop iteration. It returns false once control has been
// transferred away from the monitor.
func (m *Monitor) Step() bool {
	if m.state.IsTerminal() {
		return false
	}
	if m.state == StateArmed && m.Clock.Expired(m.deadline) {
		m.transfer(StateAutoboot, m.Config.BootAddr)
		return false
	}
	if !m.Transport.RecvReady() {
		if m.Idle != nil {
			m.Idle()
		}
		return true
	}
	if !m.reader.Feed(m.Transport.Recv()) {
		return true
	}
	ok := m.dispatcher.Dispatch(m.session.Line())
	if m.state.IsTerminal() {
		return false
	}
	if ok && m.state == StateArmed {
		m.state = StateDisarmed
		m.notify(0)
	}
	return true
}

// Run starts the monitor and loops until control is transferred or ctx is
// done. It returns nil after a boot.
func (m *Monitor) Run(ctx context.Context) error {
	m.Start()
	for m.Step() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (m *Monitor) boot(addr uint32) {
	m.transfer(StateBooted, addr)
}

func (m *Monitor) transfer(state State, addr uint32) {
	m.state = state
	m.notify(addr)
	m.Booter.Boot(addr)
}

func (m *Monitor) notify(addr uint32) {
	if n := m.Notifier; n != nil {
		n.StateChanged(m.state, addr)
	}
}
