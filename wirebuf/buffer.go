package wirebuf

import (
	"fmt"
	"math"
)

// Unlimited is the largest maximum length a Buffer can have.
const Unlimited = math.MaxInt32

const (
	// initialAlloc is the size of a new Buffer's first allocation.
	initialAlloc = 8
	// maxWaste is how much unused capacity Lock tolerates before
	// compacting.
	maxWaste = 24
)

// Buffer is a growable byte sequence with a maximum length.
//
// The zero Buffer is not usable, create Buffers with [New],
// [NewAlloc] or [Const].
type Buffer struct {
	// buf is the backing storage. For owned buffers, len(buf) is
	// the allocated size and buf[n] is always 0. For constant
	// buffers, buf is exactly the borrowed bytes.
	buf   []byte
	n     int
	max   int
	alloc Allocator

	constant bool
	locked   bool
	freed    bool
}

// New returns an empty Buffer that can grow up to maxLength bytes.
func New(maxLength int) (*Buffer, error) {
	return NewAlloc(maxLength, DefaultAllocator)
}

// NewAlloc is like [New], but obtains storage from alloc.
func NewAlloc(maxLength int, alloc Allocator) (*Buffer, error) {
	if maxLength < 0 || maxLength > Unlimited {
		panic(fmt.Sprintf("wirebuf: invalid maximum length %d", maxLength))
	}
	if alloc == nil {
		alloc = DefaultAllocator
	}
	sz := min(initialAlloc, maxLength+1)
	buf := alloc.Alloc(sz)
	if buf == nil {
		return nil, ErrNoMemory
	}
	checkAlloc(buf, sz)
	buf[0] = 0
	return &Buffer{
		buf:   buf,
		max:   maxLength,
		alloc: alloc,
	}, nil
}

// Const returns a constant Buffer whose contents are bs. The Buffer
// borrows bs without copying it, and never modifies it. The caller
// must not modify bs while the Buffer is in use.
func Const(bs []byte) *Buffer {
	if len(bs) > Unlimited {
		panic("wirebuf: constant data too large")
	}
	return &Buffer{
		buf:      bs,
		n:        len(bs),
		max:      len(bs),
		constant: true,
	}
}

// ConstString returns a constant Buffer holding s.
func ConstString(s string) *Buffer {
	return Const([]byte(s))
}

func checkAlloc(bs []byte, want int) {
	if len(bs) != want {
		panic(fmt.Sprintf("wirebuf: allocator returned %d bytes, want %d", len(bs), want))
	}
}

// check panics if b has been freed.
func (b *Buffer) check() {
	if b == nil {
		panic("wirebuf: nil Buffer")
	}
	if b.freed {
		panic("wirebuf: use of freed Buffer")
	}
}

// checkMutable panics if b cannot be modified.
func (b *Buffer) checkMutable() {
	b.check()
	if b.constant {
		panic("wirebuf: modification of constant Buffer")
	}
	if b.locked {
		panic("wirebuf: modification of locked Buffer")
	}
}

func (b *Buffer) checkRange(start, n int) {
	if start < 0 || n < 0 || start > b.n || n > b.n-start {
		panic(fmt.Sprintf("wirebuf: range [%d:+%d] out of bounds of %d-byte Buffer", start, n, b.n))
	}
}

// Len returns the length of b's contents.
func (b *Buffer) Len() int {
	b.check()
	return b.n
}

// Cap returns the number of bytes b can hold without reallocating.
func (b *Buffer) Cap() int {
	b.check()
	if b.constant {
		return b.n
	}
	return len(b.buf) - 1
}

// MaxLength returns the maximum length of b.
func (b *Buffer) MaxLength() int {
	b.check()
	return b.max
}

// IsConstant reports whether b borrows its contents.
func (b *Buffer) IsConstant() bool {
	b.check()
	return b.constant
}

// IsLocked reports whether b has been locked.
func (b *Buffer) IsLocked() bool {
	b.check()
	return b.locked
}

// Byte returns the byte at offset i. i may equal b.Len(), in which
// case Byte returns the NUL that terminates the contents.
func (b *Buffer) Byte(i int) byte {
	b.check()
	if i < 0 || i > b.n {
		panic(fmt.Sprintf("wirebuf: offset %d out of bounds of %d-byte Buffer", i, b.n))
	}
	if i == b.n {
		return 0
	}
	return b.buf[i]
}

// SetByte sets the byte at offset i to v.
func (b *Buffer) SetByte(i int, v byte) {
	b.checkMutable()
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("wirebuf: offset %d out of bounds of %d-byte Buffer", i, b.n))
	}
	b.buf[i] = v
}

// InsertByte inserts v at offset i, shifting later bytes up by one.
func (b *Buffer) InsertByte(i int, v byte) error {
	b.checkMutable()
	b.checkRange(i, 0)
	if err := b.openGap(i, 1); err != nil {
		return err
	}
	b.buf[i] = v
	return nil
}

// Bytes returns b's contents. The returned slice aliases b, and is
// only valid until the next operation that changes b's length.
// Callers must not modify it.
func (b *Buffer) Bytes() []byte {
	b.check()
	return b.buf[:b.n:b.n]
}

// Slice returns the n bytes of b starting at start, with the same
// aliasing rules as [Buffer.Bytes].
func (b *Buffer) Slice(start, n int) []byte {
	b.check()
	b.checkRange(start, n)
	return b.buf[start : start+n : start+n]
}

// MutableSlice is like [Buffer.Slice], but the returned bytes may be
// written to.
func (b *Buffer) MutableSlice(start, n int) []byte {
	b.checkMutable()
	b.checkRange(start, n)
	return b.buf[start : start+n : start+n]
}

// Put overwrites the bytes at offset at with bs. The overwritten
// range must lie within b.
func (b *Buffer) Put(at int, bs []byte) {
	b.checkMutable()
	b.checkRange(at, len(bs))
	copy(b.buf[at:], bs)
}

// setLength sets b's length to n, reallocating if needed. It does
// not initialize any new bytes other than the terminating NUL. On
// error, b is unchanged.
func (b *Buffer) setLength(n int) error {
	if n > b.max {
		return ErrTooLong
	}
	if n >= len(b.buf) {
		sz := len(b.buf)
		for n >= sz {
			next := 2 + sz*2
			if next < sz {
				return ErrTooLong
			}
			sz = next
		}
		// The last allocation can stop at the maximum length plus
		// the terminator.
		if sz-1 > b.max {
			sz = b.max + 1
		}
		nb := b.alloc.Alloc(sz)
		if nb == nil {
			return ErrNoMemory
		}
		checkAlloc(nb, sz)
		copy(nb, b.buf[:b.n])
		b.buf = nb
	}
	b.n = n
	b.buf[n] = 0
	return nil
}

// openGap inserts n uninitialized bytes at offset at.
func (b *Buffer) openGap(at, n int) error {
	if n == 0 {
		return nil
	}
	old := b.n
	if old+n < old {
		return ErrTooLong
	}
	if err := b.setLength(old + n); err != nil {
		return err
	}
	copy(b.buf[at+n:], b.buf[at:old])
	return nil
}

// Lengthen grows b by n bytes. The new bytes are not initialized,
// and may contain arbitrary data.
func (b *Buffer) Lengthen(n int) error {
	b.checkMutable()
	if n < 0 {
		panic(fmt.Sprintf("wirebuf: negative length change %d", n))
	}
	if b.n+n < b.n {
		return ErrTooLong
	}
	return b.setLength(b.n + n)
}

// Shorten removes n bytes from the end of b.
func (b *Buffer) Shorten(n int) {
	b.checkMutable()
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("wirebuf: cannot shorten %d-byte Buffer by %d", b.n, n))
	}
	b.n -= n
	b.buf[b.n] = 0
}

// SetLength sets the length of b to n, truncating or growing as
// needed. As with [Buffer.Lengthen], any new bytes are not
// initialized.
func (b *Buffer) SetLength(n int) error {
	b.checkMutable()
	if n < 0 {
		panic(fmt.Sprintf("wirebuf: negative length %d", n))
	}
	return b.setLength(n)
}

// Truncate is SetLength for lengths no greater than the current
// length. It cannot fail.
func (b *Buffer) Truncate(n int) {
	b.checkMutable()
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("wirebuf: cannot truncate %d-byte Buffer to %d", b.n, n))
	}
	b.n = n
	b.buf[n] = 0
}

// AlignLength appends NUL bytes to b until its length is a multiple
// of boundary. boundary must be 1, 2, 4 or 8.
func (b *Buffer) AlignLength(boundary int) error {
	b.checkMutable()
	switch boundary {
	case 1, 2, 4, 8:
	default:
		panic(fmt.Sprintf("wirebuf: invalid alignment %d", boundary))
	}
	old := b.n
	n := Align(old, boundary)
	if n == old {
		return nil
	}
	if err := b.setLength(n); err != nil {
		return err
	}
	clear(b.buf[old:n])
	return nil
}

// Append appends bs to b.
func (b *Buffer) Append(bs []byte) error {
	b.checkMutable()
	if len(bs) == 0 {
		return nil
	}
	old := b.n
	if err := b.Lengthen(len(bs)); err != nil {
		return err
	}
	copy(b.buf[old:], bs)
	return nil
}

// AppendString appends s to b.
func (b *Buffer) AppendString(s string) error {
	b.checkMutable()
	if len(s) == 0 {
		return nil
	}
	old := b.n
	if err := b.Lengthen(len(s)); err != nil {
		return err
	}
	copy(b.buf[old:], s)
	return nil
}

// AppendByte appends v to b.
func (b *Buffer) AppendByte(v byte) error {
	b.checkMutable()
	old := b.n
	if err := b.Lengthen(1); err != nil {
		return err
	}
	b.buf[old] = v
	return nil
}

// Insert inserts bs at offset at, shifting later bytes up.
func (b *Buffer) Insert(at int, bs []byte) error {
	b.checkMutable()
	b.checkRange(at, 0)
	if err := b.openGap(at, len(bs)); err != nil {
		return err
	}
	copy(b.buf[at:], bs)
	return nil
}

// Zero sets all of b's storage, including any spare capacity, to
// NUL bytes. b's length is unchanged.
func (b *Buffer) Zero() {
	b.checkMutable()
	clear(b.buf)
}

// Lock makes b immutable. Any further attempt to modify b panics. If
// b holds a lot of spare capacity, Lock releases it.
//
// Lock may be called multiple times.
func (b *Buffer) Lock() {
	b.check()
	if b.constant {
		panic("wirebuf: lock of constant Buffer")
	}
	b.locked = true
	if len(b.buf) > b.n+maxWaste {
		// Compaction is best effort, a locked Buffer with spare
		// capacity is still valid.
		if nb := b.alloc.Alloc(b.n + 1); nb != nil {
			checkAlloc(nb, b.n+1)
			copy(nb, b.buf[:b.n])
			b.buf = nb
		}
	}
}

// Steal returns b's contents and resets b to empty. The caller owns
// the returned slice.
func (b *Buffer) Steal() ([]byte, error) {
	b.checkMutable()
	sz := min(initialAlloc, b.max+1)
	nb := b.alloc.Alloc(sz)
	if nb == nil {
		return nil, ErrNoMemory
	}
	checkAlloc(nb, sz)
	ret := b.buf[:b.n:b.n]
	b.buf = nb
	b.buf[0] = 0
	b.n = 0
	return ret, nil
}

// Free releases b's storage. Any further use of b panics. Freeing a
// constant Buffer does nothing, since it does not own its storage.
func (b *Buffer) Free() {
	b.check()
	if b.constant {
		return
	}
	b.buf = nil
	b.n = 0
	b.freed = true
}

// String returns a debugging representation of b.
func (b *Buffer) String() string {
	switch {
	case b == nil:
		return "Buffer(nil)"
	case b.freed:
		return "Buffer(freed)"
	}
	return fmt.Sprintf("Buffer(len=%d max=%d % x)", b.n, b.max, b.buf[:b.n])
}
