package protocol

import (
	"errors"
	"io"
	"testing"
)

func TestEncoderDecoder(t *testing.T) {
	e := NewEncoder()

	e.WriteByte(0x42)
	e.WriteUvarint(12345)
	e.WriteString("hello world")
	e.WriteLenBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	e.WriteBool(true)
	e.WriteBool(false)
	e.WriteUint64(0x123456789ABCDEF0)

	d := NewDecoder(e.Bytes())

	b, err := d.ReadByte()
	if err != nil || b != 0x42 {
		t.Errorf("ReadByte() = %x, %v; want 0x42, nil", b, err)
	}
	uv, err := d.ReadUvarint()
	if err != nil || uv != 12345 {
		t.Errorf("ReadUvarint() = %d, %v; want 12345, nil", uv, err)
	}
	s, err := d.ReadString()
	if err != nil || s != "hello world" {
		t.Errorf("ReadString() = %q, %v; want \"hello world\", nil", s, err)
	}
	lb, err := d.ReadLenBytes()
	if err != nil || len(lb) != 4 || lb[0] != 0xDE {
		t.Errorf("ReadLenBytes() = %v, %v; want [DE AD BE EF], nil", lb, err)
	}
	bt, err := d.ReadBool()
	if err != nil || !bt {
		t.Errorf("ReadBool() = %v, %v; want true, nil", bt, err)
	}
	bf, err := d.ReadBool()
	if err != nil || bf {
		t.Errorf("ReadBool() = %v, %v; want false, nil", bf, err)
	}
	u64, err := d.ReadUint64()
	if err != nil || u64 != 0x123456789ABCDEF0 {
		t.Errorf("ReadUint64() = %x, %v; want 0x123456789ABCDEF0, nil", u64, err)
	}
	if n := d.remaining(); n != 0 {
		t.Errorf("%d bytes left after reading everything", n)
	}
}

func TestUvarintBoundaries(t *testing.T) {
	tests := []struct {
		value uint64
		size  int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{1<<64 - 1, 10},
	}

	for _, tc := range tests {
		e := NewEncoder()
		e.WriteUvarint(tc.value)
		if n := len(e.Bytes()); n != tc.size {
			t.Errorf("WriteUvarint(%d) wrote %d bytes, want %d", tc.value, n, tc.size)
		}
		got, err := NewDecoder(e.Bytes()).ReadUvarint()
		if err != nil || got != tc.value {
			t.Errorf("ReadUvarint() = %d, %v; want %d, nil", got, err, tc.value)
		}
	}
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*Decoder) error
		want error
	}{
		{
			name: "empty_byte",
			data: nil,
			read: func(d *Decoder) error { _, err := d.ReadByte(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "truncated_varint",
			data: []byte{0x80, 0x80},
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "varint_overflow",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01},
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
			want: ErrVarintOverflow,
		},
		{
			name: "string_past_end",
			data: []byte{0x05, 'a', 'b'},
			read: func(d *Decoder) error { _, err := d.ReadString(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "uint64_short",
			data: []byte{0x01, 0x02},
			read: func(d *Decoder) error { _, err := d.ReadUint64(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "count_over_limit",
			data: []byte{0xC1, 0x84, 0x3D}, // 1_000_001
			read: func(d *Decoder) error { _, err := d.ReadCollectionCount(); return err },
			want: ErrCollectionTooLarge,
		},
		{
			name: "count_past_end",
			data: []byte{0x05, 0x00},
			read: func(d *Decoder) error { _, err := d.ReadCollectionCount(); return err },
			want: io.ErrUnexpectedEOF,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read(NewDecoder(tc.data))
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}
