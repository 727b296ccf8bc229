package protocol

import "fmt"

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01 // Client/server ping
	ControlPong  ControlType = 0x02 // Response to ping
	ControlClose ControlType = 0x20 // Session close
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// CloseReason indicates why a session is being closed.
type CloseReason uint8

const (
	CloseNormal         CloseReason = 0x00
	CloseGoingAway      CloseReason = 0x01
	CloseSessionExpired CloseReason = 0x02
	CloseServerShutdown CloseReason = 0x03
	CloseError          CloseReason = 0x04
)

// String returns the string representation of the close reason.
func (cr CloseReason) String() string {
	switch cr {
	case CloseNormal:
		return "Normal"
	case CloseGoingAway:
		return "GoingAway"
	case CloseSessionExpired:
		return "SessionExpired"
	case CloseServerShutdown:
		return "ServerShutdown"
	case CloseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Control is a control message. Timestamp is set for Ping and Pong,
// Reason and Message for Close.
type Control struct {
	Type      ControlType
	Timestamp uint64
	Reason    CloseReason
	Message   string
}

// EncodeControl encodes a control message to bytes.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	EncodeControlTo(e, c)
	return e.Bytes()
}

// EncodeControlTo encodes a control message using the provided encoder.
func EncodeControlTo(e *Encoder, c *Control) {
	e.WriteByte(byte(c.Type))
	switch c.Type {
	case ControlPing, ControlPong:
		e.WriteUint64(c.Timestamp)
	case ControlClose:
		e.WriteByte(byte(c.Reason))
		e.WriteString(c.Message)
	}
}

// DecodeControl decodes a control message from bytes.
func DecodeControl(data []byte) (*Control, error) {
	return DecodeControlFrom(NewDecoder(data))
}

// DecodeControlFrom decodes a control message from a decoder.
func DecodeControlFrom(d *Decoder) (*Control, error) {
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	c := &Control{Type: ControlType(b)}

	switch c.Type {
	case ControlPing, ControlPong:
		if c.Timestamp, err = d.ReadUint64(); err != nil {
			return nil, err
		}
	case ControlClose:
		reason, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		c.Reason = CloseReason(reason)
		if c.Message, err = d.ReadString(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("protocol: unknown control type 0x%02x", b)
	}
	return c, nil
}

// NewPing creates a Ping message.
func NewPing(timestamp uint64) *Control {
	return &Control{Type: ControlPing, Timestamp: timestamp}
}

// NewPong creates a Pong answering ping.
func NewPong(ping *Control) *Control {
	return &Control{Type: ControlPong, Timestamp: ping.Timestamp}
}

// NewClose creates a Close message.
func NewClose(reason CloseReason, message string) *Control {
	return &Control{Type: ControlClose, Reason: reason, Message: message}
}
