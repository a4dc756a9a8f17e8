// Package events publishes monitor activity to an MQTT broker.
package events

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/risky-soc/riskymon/pkg/link/mqtt"
	"github.com/risky-soc/riskymon/pkg/monitor"
)

// TopicSuffix is appended to the instance to form the event topic.
const TopicSuffix = "/events"

// Sink consumes events.
type Sink interface {
	Publish(*Event) error
}

// SinkFunc is func form of Sink.
type SinkFunc func(*Event) error

// Publish implements Sink.
func (f SinkFunc) Publish(ev *Event) error {
	return f(ev)
}

// Topic returns the event topic of an instance.
func Topic(instance string) string {
	return instance + TopicSuffix
}

// StateEvent creates the event of a monitor state change.
func StateEvent(state monitor.State, addr uint32) *Event {
	ev := &Event{Kind: Event_STATE, State: state.String()}
	if state.IsTerminal() {
		ev.Kind, ev.Address = Event_BOOT, addr
	}
	return ev
}

// Encode serializes an event.
func Encode(ev *Event) ([]byte, error) {
	return proto.Marshal(ev)
}

// Decode deserializes an event.
func Decode(data []byte) (*Event, error) {
	var ev Event
	if err := proto.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Summary formats the event for display.
func (m *Event) Summary() string {
	ts := time.Unix(0, m.UnixNano).Format("15:04:05.000")
	switch m.Kind {
	case Event_BOOT:
		return fmt.Sprintf("%s %s: %s %08x", ts, m.Instance, m.State, m.Address)
	case Event_STATE:
		return fmt.Sprintf("%s %s: %s", ts, m.Instance, m.State)
	}
	return fmt.Sprintf("%s %s: %s %s", ts, m.Instance, m.Kind, m.Detail)
}

// Publisher sends events of one instance to MQTT.
type Publisher struct {
	Queue    *mqtt.Queue
	Instance string
	Timeout  time.Duration
}

// NewPublisher connects to the broker at brokerURL.
func NewPublisher(brokerURL, instance string) (*Publisher, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.ConnectWait(0); err != nil {
		return nil, fmt.Errorf("connect %s: %w", brokerURL, err)
	}
	return &Publisher{Queue: q, Instance: instance, Timeout: time.Second}, nil
}

// Publish implements Sink. It fills in the instance and the timestamp.
func (p *Publisher) Publish(ev *Event) error {
	ev.Instance = p.Instance
	if ev.UnixNano == 0 {
		ev.UnixNano = time.Now().UnixNano()
	}
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	token := p.Queue.Pub(Topic(p.Instance), data)
	if !token.WaitTimeout(p.Timeout) {
		return fmt.Errorf("publish %s: timeout", Topic(p.Instance))
	}
	return token.Error()
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.Queue.Close()
}

// Subscribe delivers events of all instances on q to handler. Payloads
// that fail to decode are logged and dropped.
func Subscribe(q *mqtt.Queue, handler func(topic string, ev *Event)) *mqtt.Subscription {
	return q.Sub("+"+TopicSuffix, func(topic string, payload []byte) {
		ev, err := Decode(payload)
		if err != nil {
			glog.Warningf("%s: bad event: %v", topic, err)
			return
		}
		handler(topic, ev)
	})
}
