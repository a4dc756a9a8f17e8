// Message types of events.proto, in the layout of protoc-gen-go output.
// source: events.proto

package events

import (
	fmt "fmt"

	proto "github.com/golang/protobuf/proto"
)

// Reference imports to suppress errors if they are not otherwise used.
var _ = proto.Marshal
var _ = fmt.Errorf

type Event_Kind int32

const (
	Event_STATE         Event_Kind = 0
	Event_SESSION_OPEN  Event_Kind = 1
	Event_SESSION_CLOSE Event_Kind = 2
	Event_BOOT          Event_Kind = 3
)

var Event_Kind_name = map[int32]string{
	0: "STATE",
	1: "SESSION_OPEN",
	2: "SESSION_CLOSE",
	3: "BOOT",
}

var Event_Kind_value = map[string]int32{
	"STATE":         0,
	"SESSION_OPEN":  1,
	"SESSION_CLOSE": 2,
	"BOOT":          3,
}

func (x Event_Kind) String() string {
	return proto.EnumName(Event_Kind_name, int32(x))
}

// Event reports what a monitor instance is doing.
type Event struct {
	Kind                 Event_Kind `protobuf:"varint,1,opt,name=kind,proto3,enum=riskymon.events.v1.Event_Kind" json:"kind,omitempty"`
	Instance             string     `protobuf:"bytes,2,opt,name=instance,proto3" json:"instance,omitempty"`
	State                string     `protobuf:"bytes,3,opt,name=state,proto3" json:"state,omitempty"`
	Address              uint32     `protobuf:"varint,4,opt,name=address,proto3" json:"address,omitempty"`
	Detail               string     `protobuf:"bytes,5,opt,name=detail,proto3" json:"detail,omitempty"`
	UnixNano             int64      `protobuf:"varint,6,opt,name=unix_nano,json=unixNano,proto3" json:"unix_nano,omitempty"`
	XXX_NoUnkeyedLiteral struct{}   `json:"-"`
	XXX_unrecognized     []byte     `json:"-"`
	XXX_sizecache        int32      `json:"-"`
}

func (m *Event) Reset()         { *m = Event{} }
func (m *Event) String() string { return proto.CompactTextString(m) }
func (*Event) ProtoMessage()    {}

func (m *Event) GetKind() Event_Kind {
	if m != nil {
		return m.Kind
	}
	return Event_STATE
}

func (m *Event) GetInstance() string {
	if m != nil {
		return m.Instance
	}
	return ""
}

func (m *Event) GetState() string {
	if m != nil {
		return m.State
	}
	return ""
}

func (m *Event) GetAddress() uint32 {
	if m != nil {
		return m.Address
	}
	return 0
}

func (m *Event) GetDetail() string {
	if m != nil {
		return m.Detail
	}
	return ""
}

func (m *Event) GetUnixNano() int64 {
	if m != nil {
		return m.UnixNano
	}
	return 0
}

func init() {
	proto.RegisterEnum("riskymon.events.v1.Event_Kind", Event_Kind_name, Event_Kind_value)
	proto.RegisterType((*Event)(nil), "riskymon.events.v1.Event")
}
