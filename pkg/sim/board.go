package sim

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/risky-soc/riskymon/pkg/events"
	fx "github.com/risky-soc/riskymon/pkg/framework"
	"github.com/risky-soc/riskymon/pkg/link"
	"github.com/risky-soc/riskymon/pkg/monitor"
)

// Board is a simulated board running the monitor on host memory. Every
// accepted stream is a power-on: a fresh monitor with a new session.
type Board struct {
	Config        *Config
	MonitorConfig *monitor.Config
	Memory        *Memory
	Counter       monitor.Counter
	Listener      link.Listener
	Events        events.Sink
}

// NewBoard creates a Board without a listener.
func NewBoard(conf *Config, mc *monitor.Config) *Board {
	return &Board{
		Config:        conf,
		MonitorConfig: mc,
		Memory:        NewMemory(),
		Counter:       NewHostCounter(mc.ClockFreq),
	}
}

// Name implements framework.Named.
func (b *Board) Name() string {
	return "board:" + b.Config.Instance
}

// LoadImage loads an image at the boot address.
func (b *Board) LoadImage(r io.Reader) (int, error) {
	n, err := b.Memory.LoadImage(b.MonitorConfig.BootAddr, r)
	if err == nil {
		glog.Infof("loaded %d bytes at %08x", n, b.MonitorConfig.BootAddr)
	}
	return n, err
}

// Run implements framework.Runnable. It serves accepted streams one after
// another until ctx is done or the listener is closed.
func (b *Board) Run(ctx context.Context) error {
	for {
		stream, err := b.Listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == link.ErrListenerClosed {
				return nil
			}
			return err
		}
		err = b.Serve(ctx, stream)
		stream.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			glog.Warningf("session: %v", err)
		}
	}
}

// Serve runs the monitor on stream until it boots, or the stream ends.
// With Reboot set, a boot restarts the monitor on the same stream.
func (b *Board) Serve(ctx context.Context, stream io.ReadWriter) error {
	t := NewStreamTransport(stream)
	defer t.Stop()
	b.publish(&events.Event{Kind: events.Event_SESSION_OPEN, Detail: b.Config.LinkURL})
	defer b.publish(&events.Event{Kind: events.Event_SESSION_CLOSE, Detail: b.Config.LinkURL})

	for {
		booted, err := b.powerOn(ctx, t)
		if err != nil || !booted {
			return err
		}
		if !b.Config.Reboot {
			return nil
		}
		glog.Info("reboot")
	}
}

// powerOn runs one monitor instance and reports whether it booted.
func (b *Board) powerOn(ctx context.Context, t *StreamTransport) (bool, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	booted := false
	m := b.MonitorConfig.NewMonitor(t, b.Memory, b.Counter, monitor.BootFunc(func(addr uint32) {
		booted = true
		glog.Infof("boot %08x", addr)
	}))
	m.Notifier = monitor.StateChangedFunc(b.stateChanged)
	m.Idle = func() {
		if t.Closed() {
			cancel()
			return
		}
		if d := b.Config.PollInterval; d > 0 {
			time.Sleep(d)
		}
	}

	err := m.Run(runCtx)
	t.Flush()
	switch {
	case booted:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case t.Err() != nil:
		return false, t.Err()
	case err != nil && err != context.Canceled:
		return false, err
	}
	glog.Info("stream closed")
	return false, nil
}

func (b *Board) stateChanged(state monitor.State, addr uint32) {
	glog.V(2).Infof("monitor %s", state)
	b.publish(events.StateEvent(state, addr))
}

func (b *Board) publish(ev *events.Event) {
	if b.Events == nil {
		return
	}
	if ev.Instance == "" {
		ev.Instance = b.Config.Instance
	}
	if err := b.Events.Publish(ev); err != nil {
		glog.Warningf("publish %s: %v", ev.Kind, err)
	}
}

// Close closes the listener and the event publisher.
func (b *Board) Close() error {
	var errs fx.AggregatedError
	if b.Listener != nil {
		errs.Add(b.Listener.Close())
	}
	if c, ok := b.Events.(io.Closer); ok {
		errs.Add(c.Close())
	}
	return errs.Aggregate()
}
