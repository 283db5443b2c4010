package dbuswire

import (
	"fmt"
	"slices"

	"github.com/danderson/dbuswire/wirebuf"
)

// An encoder appends DBus wire format data to a Buffer.
//
// Methods insert padding as needed to satisfy DBus alignment rules,
// except for [encoder.Write] which writes bytes verbatim. Alignment is
// relative to the start of the Buffer.
//
// The first error encountered is kept in err, and all later writes
// are skipped. Callers check err once after encoding a complete
// value.
type encoder struct {
	// Order is the byte order to use when writing multi-byte values.
	Order ByteOrder
	// Out is the Buffer to append to.
	Out *wirebuf.Buffer

	err error
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Pad inserts padding bytes as needed to make the next write happen
// at a multiple of align bytes. If the encoder is already correctly
// aligned, no bytes are written.
func (e *encoder) Pad(align int) {
	if e.err != nil {
		return
	}
	e.fail(e.Out.AlignLength(align))
}

// Write writes bs as-is to the output. It is the caller's
// responsibility to ensure correct padding and encoding.
func (e *encoder) Write(bs []byte) {
	if e.err != nil {
		return
	}
	e.fail(e.Out.Append(bs))
}

// Uint8 writes a uint8.
func (e *encoder) Uint8(u8 uint8) {
	if e.err != nil {
		return
	}
	e.fail(e.Out.AppendByte(u8))
}

// Bool writes a boolean as a single byte.
func (e *encoder) Bool(b bool) {
	if b {
		e.Uint8(1)
	} else {
		e.Uint8(0)
	}
}

// Uint32 writes a uint32.
func (e *encoder) Uint32(u32 uint32) {
	e.Pad(4)
	var bs [4]byte
	PackUint32(u32, e.Order, bs[:])
	e.Write(bs[:])
}

// Uint64 writes a uint64.
func (e *encoder) Uint64(u64 uint64) {
	e.Pad(8)
	var bs [8]byte
	PackUint64(u64, e.Order, bs[:])
	e.Write(bs[:])
}

// String writes s as a length-prefixed, NUL-terminated string. s
// must already be known to be a valid DBus string.
func (e *encoder) String(s string) {
	if len(s) > MaxArrayLength {
		e.fail(fmt.Errorf("%d byte string exceeds limit of %d bytes: %w", len(s), MaxArrayLength, wirebuf.ErrTooLong))
		return
	}
	e.Uint32(uint32(len(s)))
	if e.err != nil {
		return
	}
	if err := e.Out.AppendString(s); err != nil {
		e.fail(err)
		return
	}
	e.Uint8(0)
}

// Bytes writes bs as a length-prefixed blob, with no terminator.
func (e *encoder) Bytes(bs []byte) {
	if len(bs) > MaxArrayLength {
		e.fail(fmt.Errorf("%d byte blob exceeds limit of %d bytes: %w", len(bs), MaxArrayLength, wirebuf.ErrTooLong))
		return
	}
	e.Uint32(uint32(len(bs)))
	e.Write(bs)
}

// Array writes an array to the output.
//
// Array elements must be added within the provided elements
// function. The array's body starts at the next multiple of
// elemAlign, and the padding before the body is not included in the
// array's length.
func (e *encoder) Array(elemAlign int, elements func()) {
	e.Pad(4)
	if e.err != nil {
		return
	}
	offset := e.Out.Len()
	e.Uint32(0)
	e.Pad(elemAlign)
	if e.err != nil {
		return
	}

	start := e.Out.Len()
	elements()
	if e.err != nil {
		return
	}
	end := e.Out.Len()
	if end-start > MaxArrayLength {
		e.fail(fmt.Errorf("%d byte array exceeds limit of %d bytes: %w", end-start, MaxArrayLength, wirebuf.ErrTooLong))
		return
	}
	SetUint32(e.Out, e.Order, offset, uint32(end-start))
}

// Block writes an array of fixed size elements, whose body is
// provided in host byte order. The body is swapped in place to the
// output byte order if needed.
func (e *encoder) Block(elemSize int, body []byte) {
	e.Array(elemSize, func() {
		start := e.Out.Len()
		e.Write(body)
		if e.err != nil || elemSize == 1 || e.Order.native() {
			return
		}
		swapBlock(e.Out.MutableSlice(start, len(body)), elemSize)
	})
}

// swapBlock reverses the byte order of each size byte element of bs.
func swapBlock(bs []byte, size int) {
	for i := 0; i+size <= len(bs); i += size {
		slices.Reverse(bs[i : i+size])
	}
}
