package vdom

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// HashKey reduces a list key to the 64-bit identifier stored in a ForEach
// region. Keys of different Go types hash to different values.
func HashKey(key any) uint64 {
	d := xxhash.New()
	var buf [9]byte
	switch k := key.(type) {
	case string:
		buf[0] = 's'
		d.Write(buf[:1])
		d.WriteString(k)
	case int:
		d.Write(intKey(buf[:], 'i', uint64(int64(k))))
	case int8:
		d.Write(intKey(buf[:], 'i', uint64(int64(k))))
	case int16:
		d.Write(intKey(buf[:], 'i', uint64(int64(k))))
	case int32:
		d.Write(intKey(buf[:], 'i', uint64(int64(k))))
	case int64:
		d.Write(intKey(buf[:], 'i', uint64(k)))
	case uint:
		d.Write(intKey(buf[:], 'u', uint64(k)))
	case uint8:
		d.Write(intKey(buf[:], 'u', uint64(k)))
	case uint16:
		d.Write(intKey(buf[:], 'u', uint64(k)))
	case uint32:
		d.Write(intKey(buf[:], 'u', uint64(k)))
	case uint64:
		d.Write(intKey(buf[:], 'u', k))
	case float64:
		d.Write(intKey(buf[:], 'f', math.Float64bits(k)))
	case bool:
		buf[0] = 'b'
		if k {
			buf[1] = 1
		}
		d.Write(buf[:2])
	default:
		buf[0] = 'v'
		d.Write(buf[:1])
		d.WriteString(fmt.Sprintf("%T:%#v", key, key))
	}
	return d.Sum64()
}

func intKey(buf []byte, tag byte, v uint64) []byte {
	buf[0] = tag
	binary.BigEndian.PutUint64(buf[1:9], v)
	return buf[:9]
}
