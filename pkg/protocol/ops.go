package protocol

import (
	"errors"
	"fmt"
)

// OpCode is a host operation. The numbering follows memdom.Op so a
// mutation converts with a plain cast.
type OpCode uint8

const (
	OpCreateElement  OpCode = 0x01
	OpCreateText     OpCode = 0x02
	OpAppendChild    OpCode = 0x03
	OpPrependChild   OpCode = 0x04
	OpInsertBefore   OpCode = 0x05
	OpInsertAfter    OpCode = 0x06
	OpRemoveChild    OpCode = 0x07
	OpRemove         OpCode = 0x08
	OpSetAttribute   OpCode = 0x09
	OpSetTextContent OpCode = 0x0A
	OpAppendText     OpCode = 0x0B
	OpReplaceText    OpCode = 0x0C
	OpClone          OpCode = 0x0D
	OpListen         OpCode = 0x0E
	OpRelease        OpCode = 0x0F
)

// ErrUnknownOp is returned when decoding an op code outside the table.
var ErrUnknownOp = errors.New("protocol: unknown host operation")

var opNames = [...]string{
	OpCreateElement:  "CreateElement",
	OpCreateText:     "CreateText",
	OpAppendChild:    "AppendChild",
	OpPrependChild:   "PrependChild",
	OpInsertBefore:   "InsertBefore",
	OpInsertAfter:    "InsertAfter",
	OpRemoveChild:    "RemoveChild",
	OpRemove:         "Remove",
	OpSetAttribute:   "SetAttribute",
	OpSetTextContent: "SetTextContent",
	OpAppendText:     "AppendText",
	OpReplaceText:    "ReplaceText",
	OpClone:          "Clone",
	OpListen:         "Listen",
	OpRelease:        "Release",
}

// String returns the string representation of the op code.
func (op OpCode) String() string {
	if op.Valid() {
		return opNames[op]
	}
	return "Unknown"
}

// Valid reports whether op is a known op code.
func (op OpCode) Valid() bool {
	return op >= OpCreateElement && op <= OpRelease
}

// operand layout per op code
const (
	hasChild = 1 << iota
	hasRef
	hasName
	hasValue
	hasUID
)

var opLayout = [...]uint8{
	OpCreateElement:  hasName,
	OpCreateText:     hasValue,
	OpAppendChild:    hasChild,
	OpPrependChild:   hasChild,
	OpInsertBefore:   hasChild | hasRef,
	OpInsertAfter:    hasChild | hasRef,
	OpRemoveChild:    hasChild,
	OpRemove:         0,
	OpSetAttribute:   hasName | hasValue,
	OpSetTextContent: hasChild | hasValue,
	OpAppendText:     hasChild,
	OpReplaceText:    hasChild | hasRef,
	OpClone:          hasChild,
	OpListen:         hasName | hasUID,
	OpRelease:        0,
}

// HostOp is one host mutation addressed by node id. Every op carries a
// Target; the remaining operands depend on Code:
//
//	CreateElement   Name
//	CreateText      Value
//	InsertBefore    Child, Ref (0 appends)
//	InsertAfter     Child, Ref
//	SetAttribute    Name, Value
//	SetTextContent  Child (new text id), Value
//	ReplaceText     Child (new), Ref (old)
//	Clone           Child (first id of the copy)
//	Listen          Name, UID
type HostOp struct {
	Code   OpCode
	Target uint64
	Child  uint64
	Ref    uint64
	Name   string
	Value  string
	UID    uint64
}

// String renders op as one trace line, e.g. `SetAttribute #4 class="row"`.
func (op HostOp) String() string {
	s := fmt.Sprintf("%s #%d", op.Code, op.Target)
	if !op.Code.Valid() {
		return s
	}
	l := opLayout[op.Code]
	if l&hasChild != 0 {
		s += fmt.Sprintf(" child=#%d", op.Child)
	}
	if l&hasRef != 0 {
		s += fmt.Sprintf(" ref=#%d", op.Ref)
	}
	switch {
	case l&hasName != 0 && l&hasValue != 0:
		s += fmt.Sprintf(" %s=%q", op.Name, op.Value)
	case l&hasName != 0:
		s += " " + op.Name
	case l&hasValue != 0:
		s += fmt.Sprintf(" %q", op.Value)
	}
	if l&hasUID != 0 {
		s += fmt.Sprintf(" uid=%d", op.UID)
	}
	return s
}

// OpsFrame is a batch of host operations produced by one pass.
type OpsFrame struct {
	Seq uint64
	Ops []HostOp
}

// EncodeOps encodes an ops frame payload to bytes.
func EncodeOps(of *OpsFrame) []byte {
	e := NewEncoderWithCap(16 + 8*len(of.Ops))
	EncodeOpsTo(e, of)
	return e.Bytes()
}

// EncodeOpsTo encodes an ops frame payload using the provided encoder.
func EncodeOpsTo(e *Encoder, of *OpsFrame) {
	e.WriteUvarint(of.Seq)
	e.WriteUvarint(uint64(len(of.Ops)))
	for i := range of.Ops {
		encodeOp(e, &of.Ops[i])
	}
}

func encodeOp(e *Encoder, op *HostOp) {
	e.WriteByte(byte(op.Code))
	e.WriteUvarint(op.Target)
	l := opLayout[op.Code]
	if l&hasChild != 0 {
		e.WriteUvarint(op.Child)
	}
	if l&hasRef != 0 {
		e.WriteUvarint(op.Ref)
	}
	if l&hasName != 0 {
		e.WriteString(op.Name)
	}
	if l&hasValue != 0 {
		e.WriteString(op.Value)
	}
	if l&hasUID != 0 {
		e.WriteUvarint(op.UID)
	}
}

// DecodeOps decodes an ops frame payload from bytes.
func DecodeOps(data []byte) (*OpsFrame, error) {
	return DecodeOpsFrom(NewDecoder(data))
}

// DecodeOpsFrom decodes an ops frame payload from a decoder.
func DecodeOpsFrom(d *Decoder) (*OpsFrame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	of := &OpsFrame{Seq: seq, Ops: make([]HostOp, count)}
	for i := range of.Ops {
		if err := decodeOp(d, &of.Ops[i]); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return of, nil
}

func decodeOp(d *Decoder, op *HostOp) error {
	b, err := d.ReadByte()
	if err != nil {
		return err
	}
	op.Code = OpCode(b)
	if !op.Code.Valid() {
		return fmt.Errorf("%w: 0x%02x", ErrUnknownOp, b)
	}
	if op.Target, err = d.ReadUvarint(); err != nil {
		return err
	}
	l := opLayout[op.Code]
	if l&hasChild != 0 {
		if op.Child, err = d.ReadUvarint(); err != nil {
			return err
		}
	}
	if l&hasRef != 0 {
		if op.Ref, err = d.ReadUvarint(); err != nil {
			return err
		}
	}
	if l&hasName != 0 {
		if op.Name, err = d.ReadString(); err != nil {
			return err
		}
	}
	if l&hasValue != 0 {
		if op.Value, err = d.ReadString(); err != nil {
			return err
		}
	}
	if l&hasUID != 0 {
		if op.UID, err = d.ReadUvarint(); err != nil {
			return err
		}
	}
	return nil
}
