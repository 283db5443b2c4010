package dbuswire

import (
	"github.com/danderson/dbuswire/wirebuf"
)

// A decoder reads DBus wire format data out of a Buffer.
//
// Methods advance the read cursor as needed to account for the
// padding required by DBus alignment rules, except for [decoder.Read]
// which reads bytes verbatim.
//
// A decoder trusts its input. Reading malformed data produces
// garbage or panics, so data from untrusted sources must be validated
// before decoding.
type decoder struct {
	// Order is the byte order to use when reading multi-byte values.
	Order ByteOrder
	// In is the Buffer to read.
	In *wirebuf.Buffer
	// Pos is the offset in In of the next read.
	Pos int
}

// Pad skips padding bytes as needed to make the next read happen at
// a multiple of align bytes.
func (d *decoder) Pad(align int) {
	d.Pos = wirebuf.Align(d.Pos, align)
}

// Read reads n bytes, with no framing or padding. The returned slice
// aliases the input Buffer.
func (d *decoder) Read(n int) []byte {
	bs := d.In.Slice(d.Pos, n)
	d.Pos += n
	return bs
}

// Uint8 reads a uint8.
func (d *decoder) Uint8() uint8 {
	ret := d.In.Byte(d.Pos)
	d.Pos++
	return ret
}

// Bool reads a single byte boolean.
func (d *decoder) Bool() bool {
	return d.Uint8() != 0
}

// Uint32 reads a uint32.
func (d *decoder) Uint32() uint32 {
	d.Pad(4)
	return UnpackUint32(d.Order, d.Read(4))
}

// Uint64 reads a uint64.
func (d *decoder) Uint64() uint64 {
	d.Pad(8)
	return UnpackUint64(d.Order, d.Read(8))
}

// String reads a length-prefixed, NUL-terminated string.
func (d *decoder) String() string {
	ln := int(d.Uint32())
	ret := string(d.Read(ln))
	d.Pos++
	return ret
}

// Bytes reads a length-prefixed blob. The returned slice is a copy.
func (d *decoder) Bytes() []byte {
	ln := int(d.Uint32())
	return append([]byte{}, d.Read(ln)...)
}

// Array reads an array header, and positions the cursor at the start
// of the array's first element. It returns the offset at which the
// array ends.
func (d *decoder) Array(elemAlign int) (end int) {
	ln := int(d.Uint32())
	d.Pad(elemAlign)
	return d.Pos + ln
}

// Tags reads the inline type tags of a dictionary value.
func (d *decoder) Tags() string {
	start := d.Pos
	for Type(d.In.Byte(d.Pos)) == TypeArray {
		d.Pos++
	}
	d.Pos++
	return string(d.In.Slice(start, d.Pos-start))
}
