package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidPayload is returned when an event payload is not a msgpack map.
var ErrInvalidPayload = errors.New("protocol: invalid event payload")

// Event is a listener firing reported by the client. UID and Name identify
// the listener registered by a Listen op; Data carries the properties the
// client read off the element ("value", "checked") plus any event fields.
//
// Wire format:
//
//	Seq  varint
//	UID  varint
//	Name string
//	Data length-prefixed msgpack map (empty when nil)
type Event struct {
	Seq  uint64
	UID  uint64
	Name string
	Data map[string]any
}

// EncodeEvent encodes an event to bytes.
func EncodeEvent(ev *Event) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeEventTo(e, ev); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeEventTo encodes an event using the provided encoder.
func EncodeEventTo(e *Encoder, ev *Event) error {
	var packed []byte
	if len(ev.Data) > 0 {
		var err error
		packed, err = msgpack.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	e.WriteUvarint(ev.Seq)
	e.WriteUvarint(ev.UID)
	e.WriteString(ev.Name)
	e.WriteLenBytes(packed)
	return nil
}

// DecodeEvent decodes an event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	return DecodeEventFrom(NewDecoder(data))
}

// DecodeEventFrom decodes an event from a decoder.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	ev := &Event{}
	var err error

	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.UID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Name, err = d.ReadString(); err != nil {
		return nil, err
	}
	packed, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if len(packed) == 0 {
		return ev, nil
	}
	if err := msgpack.Unmarshal(packed, &ev.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return ev, nil
}

// StringField returns the payload field name as a string, or "" when absent
// or not a string.
func (ev *Event) StringField(name string) string {
	s, _ := ev.Data[name].(string)
	return s
}

// BoolField returns the payload field name as a bool.
func (ev *Event) BoolField(name string) (v, ok bool) {
	v, ok = ev.Data[name].(bool)
	return v, ok
}
