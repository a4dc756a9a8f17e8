package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stateChange struct {
	state State
	addr  uint32
}

type monitorTest struct {
	t         *testing.T
	conf      *Config
	transport testTransport
	memory    testMemory
	counter   testCounter
	boots     bootRecorder
	states    []stateChange
	mon       *Monitor
}

// newMonitorTest creates a monitor with a 1kHz counter advancing one tick
// per read and a 100ms autoboot timeout.
func newMonitorTest(t *testing.T) *monitorTest {
	m := &monitorTest{
		t:       t,
		conf:    NewConfig(),
		memory:  make(testMemory),
		counter: testCounter{step: 1},
	}
	m.conf.ClockFreq = 1000
	m.conf.Timeout = 100 * time.Millisecond
	m.mon = m.conf.NewMonitor(&m.transport, m.memory, &m.counter, &m.boots)
	m.mon.Notifier = StateChangedFunc(func(state State, addr uint32) {
		m.states = append(m.states, stateChange{state, addr})
	})
	return m
}

func (m *monitorTest) input(s string) *monitorTest {
	m.transport.inject(s)
	return m
}

func (m *monitorTest) run() *monitorTest {
	require.NoError(m.t, m.mon.Run(context.Background()))
	return m
}

func (m *monitorTest) steps(n int) *monitorTest {
	for i := 0; i < n; i++ {
		require.True(m.t, m.mon.Step())
	}
	return m
}

func (m *monitorTest) expectState(state State) *monitorTest {
	require.Equal(m.t, state, m.mon.State())
	return m
}

func (m *monitorTest) expectBoots(addrs ...uint32) *monitorTest {
	require.Equal(m.t, addrs, m.boots.addrs)
	return m
}

func TestMonitorBanner(t *testing.T) {
	m := newMonitorTest(t)
	m.mon.Start()
	require.Equal(t, "risky-b1\r\n", m.transport.output())
	require.Equal(t, DefaultBaud, m.transport.baud)
	m.expectState(StateArmed)
	require.Equal(t, uint64(100), m.mon.Deadline())
}

func TestMonitorAutoboot(t *testing.T) {
	m := newMonitorTest(t).run().
		expectState(StateAutoboot).
		expectBoots(DefaultBootAddr)
	require.True(t, m.counter.value >= 100)
	require.Equal(t, "risky-b1\r\n", m.transport.output())
	require.Equal(t, []stateChange{{StateArmed, 0}, {StateAutoboot, DefaultBootAddr}}, m.states)
	require.False(t, m.mon.Step())
	m.expectBoots(DefaultBootAddr)
}

func TestMonitorAutobootConfiguredAddress(t *testing.T) {
	m := newMonitorTest(t)
	m.conf.BootAddr = 0x10000000
	m.run().expectBoots(0x10000000)
}

func TestMonitorUnknownCommandKeepsArmed(t *testing.T) {
	m := newMonitorTest(t).input("zz\r\n\r\n   \r\ni x\r\n").run().
		expectState(StateAutoboot).
		expectBoots(DefaultBootAddr)
	require.Equal(t, "risky-b1\r\n", m.transport.output())
}

func TestMonitorDisarm(t *testing.T) {
	m := newMonitorTest(t).input("i\r\n")
	m.mon.Start()
	m.transport.output()
	m.steps(3).expectState(StateDisarmed)
	require.Equal(t, "risky-b1\r\nk 400\r\nb 0\r\ni 1\r\n", m.transport.output())

	m.counter.value = m.mon.Deadline() + 1000
	m.steps(10).expectState(StateDisarmed).expectBoots()

	m.input("b 4000\r\n")
	for m.mon.Step() {
	}
	m.expectState(StateBooted).expectBoots(0x4000)
	require.Equal(t, []stateChange{
		{StateArmed, 0},
		{StateDisarmed, 0},
		{StateBooted, 0x4000},
	}, m.states)
}

func TestMonitorBootCommandWhileArmed(t *testing.T) {
	m := newMonitorTest(t).input("b\r\n").run().
		expectState(StateBooted).
		expectBoots(DefaultBootAddr)
	require.Equal(t, []stateChange{{StateArmed, 0}, {StateBooted, DefaultBootAddr}}, m.states)
	require.Equal(t, "risky-b1\r\n", m.transport.output())
}

func TestMonitorSession(t *testing.T) {
	m := newMonitorTest(t).input("e\r\nm 0 10\r\n")
	m.mon.Start()
	m.steps(len("e\r\nm 0 10\r\n"))
	require.True(t, m.mon.Session().Echo)
	require.Equal(t, uint32(0x10), m.mon.Session().LastAddress)
}

func TestMonitorIdle(t *testing.T) {
	m := newMonitorTest(t)
	idle := 0
	m.mon.Idle = func() { idle++ }
	m.run()
	require.True(t, idle > 0)
}

func TestMonitorRunCancelled(t *testing.T) {
	m := newMonitorTest(t)
	m.counter.step = 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, m.mon.Run(ctx))
	m.expectState(StateArmed).expectBoots()
}

func TestStateString(t *testing.T) {
	require.Equal(t, "armed", StateArmed.String())
	require.Equal(t, "disarmed", StateDisarmed.String())
	require.Equal(t, "autoboot", StateAutoboot.String())
	require.Equal(t, "booted", StateBooted.String())
	require.Equal(t, "unknown", State(42).String())
	require.False(t, StateDisarmed.IsTerminal())
	require.True(t, StateBooted.IsTerminal())
}
