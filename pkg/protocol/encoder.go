package protocol

import "encoding/binary"

// Encoder appends the wire encoding of values to a byte slice. Variable
// length integers use the encoding/binary uvarint format; fixed-width
// integers are big-endian.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with room for a typical ops frame.
func NewEncoder() *Encoder {
	return NewEncoderWithCap(256)
}

// NewEncoderWithCap returns an encoder whose buffer starts with capacity n.
func NewEncoderWithCap(n int) *Encoder {
	return &Encoder{buf: make([]byte, 0, n)}
}

// Bytes returns the encoded bytes. Later writes may reuse the array.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// WriteByte appends b. Unlike io.ByteWriter it cannot fail.
func (e *Encoder) WriteByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) WriteUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// WriteString appends s behind its uvarint length.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteLenBytes appends b behind its uvarint length.
func (e *Encoder) WriteLenBytes(b []byte) {
	e.WriteUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) WriteBool(b bool) {
	var v byte
	if b {
		v = 1
	}
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteUint64(v uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, v)
}
