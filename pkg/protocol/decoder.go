package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Limits applied to length prefixes read off the wire.
const (
	// DefaultMaxAllocation caps one string or byte field at 4MB.
	DefaultMaxAllocation = 4 << 20

	// MaxCollectionCount caps the length of any decoded list.
	MaxCollectionCount = 1_000_000
)

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
)

// Decoder reads values written by an Encoder. Every read past the end of
// the buffer fails with io.ErrUnexpectedEOF.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) ReadByte() (byte, error) {
	if d.remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	d.pos++
	return d.buf[d.pos-1], nil
}

func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.next()
	return string(b), err
}

// ReadLenBytes returns a copy of the length-prefixed bytes.
func (d *Decoder) ReadLenBytes() ([]byte, error) {
	b, err := d.next()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// next consumes a length-prefixed field and returns it without copying.
func (d *Decoder) next() ([]byte, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.remaining()) {
		return nil, io.ErrUnexpectedEOF
	}
	if n > DefaultMaxAllocation {
		return nil, ErrAllocationTooLarge
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

// ReadBool treats any non-zero byte as true.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	return b != 0, err
}

func (d *Decoder) ReadUint64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

// ReadCollectionCount reads a list length. Each element takes at least one
// byte, so a count larger than what is left is rejected early.
func (d *Decoder) ReadCollectionCount() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(d.remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}
