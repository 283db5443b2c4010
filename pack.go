package dbuswire

import (
	"fmt"
	"math"

	"github.com/danderson/dbuswire/wirebuf"
)

// PackUint32 writes v into the first 4 bytes of dst.
func PackUint32(v uint32, order ByteOrder, dst []byte) {
	order.std().PutUint32(dst, v)
}

// PackInt32 writes v into the first 4 bytes of dst.
func PackInt32(v int32, order ByteOrder, dst []byte) {
	order.std().PutUint32(dst, uint32(v))
}

// PackUint64 writes v into the first 8 bytes of dst.
func PackUint64(v uint64, order ByteOrder, dst []byte) {
	order.std().PutUint64(dst, v)
}

// PackInt64 writes v into the first 8 bytes of dst.
func PackInt64(v int64, order ByteOrder, dst []byte) {
	order.std().PutUint64(dst, uint64(v))
}

// PackFloat64 writes the IEEE 754 encoding of v into the first 8
// bytes of dst.
func PackFloat64(v float64, order ByteOrder, dst []byte) {
	order.std().PutUint64(dst, math.Float64bits(v))
}

// UnpackUint32 reads a uint32 from the first 4 bytes of src.
func UnpackUint32(order ByteOrder, src []byte) uint32 {
	return order.std().Uint32(src)
}

// UnpackInt32 reads an int32 from the first 4 bytes of src.
func UnpackInt32(order ByteOrder, src []byte) int32 {
	return int32(order.std().Uint32(src))
}

// UnpackUint64 reads a uint64 from the first 8 bytes of src.
func UnpackUint64(order ByteOrder, src []byte) uint64 {
	return order.std().Uint64(src)
}

// UnpackInt64 reads an int64 from the first 8 bytes of src.
func UnpackInt64(order ByteOrder, src []byte) int64 {
	return int64(order.std().Uint64(src))
}

// UnpackFloat64 reads a float64 from the first 8 bytes of src.
func UnpackFloat64(order ByteOrder, src []byte) float64 {
	return math.Float64frombits(order.std().Uint64(src))
}

func checkAligned(pos, align int) {
	if pos%align != 0 {
		panic(fmt.Sprintf("dbuswire: offset %d is not %d-byte aligned", pos, align))
	}
}

// SetUint32 overwrites the aligned 4 bytes at pos in b with v.
//
// The Set functions are for filling in fields, such as lengths, whose
// values are not known until after later data has been marshaled.
func SetUint32(b *wirebuf.Buffer, order ByteOrder, pos int, v uint32) {
	checkAligned(pos, 4)
	PackUint32(v, order, b.MutableSlice(pos, 4))
}

// SetInt32 overwrites the aligned 4 bytes at pos in b with v.
func SetInt32(b *wirebuf.Buffer, order ByteOrder, pos int, v int32) {
	checkAligned(pos, 4)
	PackInt32(v, order, b.MutableSlice(pos, 4))
}

// SetUint64 overwrites the aligned 8 bytes at pos in b with v.
func SetUint64(b *wirebuf.Buffer, order ByteOrder, pos int, v uint64) {
	checkAligned(pos, 8)
	PackUint64(v, order, b.MutableSlice(pos, 8))
}

// SetInt64 overwrites the aligned 8 bytes at pos in b with v.
func SetInt64(b *wirebuf.Buffer, order ByteOrder, pos int, v int64) {
	checkAligned(pos, 8)
	PackInt64(v, order, b.MutableSlice(pos, 8))
}

// SetFloat64 overwrites the aligned 8 bytes at pos in b with v.
func SetFloat64(b *wirebuf.Buffer, order ByteOrder, pos int, v float64) {
	checkAligned(pos, 8)
	PackFloat64(v, order, b.MutableSlice(pos, 8))
}

// SetString replaces the marshaled string at pos in b with s. Data
// following the old string moves to make room, and is not realigned.
// On error, b is unchanged.
func SetString(b *wirebuf.Buffer, order ByteOrder, pos int, s string) error {
	checkAligned(pos, 4)
	if err := checkString(s); err != nil {
		return err
	}
	oldLen := int(UnpackUint32(order, b.Slice(pos, 4)))

	repl, err := wirebuf.New(wirebuf.Unlimited)
	if err != nil {
		return err
	}
	defer repl.Free()
	e := encoder{Order: order, Out: repl}
	e.String(s)
	if e.err != nil {
		return e.err
	}
	return wirebuf.ReplaceLen(repl, 0, repl.Len(), b, pos, 4+oldLen+1)
}
