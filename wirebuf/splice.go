package wirebuf

import "fmt"

// Delete removes the n bytes starting at start from b.
func (b *Buffer) Delete(start, n int) {
	b.checkMutable()
	b.checkRange(start, n)
	b.delete(start, n)
}

func (b *Buffer) delete(start, n int) {
	if n == 0 {
		return
	}
	copy(b.buf[start:], b.buf[start+n:b.n])
	b.n -= n
	b.buf[b.n] = 0
}

// InsertAligned4 inserts octets into b at the first 4-byte aligned
// offset at or after at. Any padding needed to reach alignment is
// inserted as NUL bytes. InsertAligned4 returns the offset at which
// octets were written.
func (b *Buffer) InsertAligned4(at int, octets [4]byte) (int, error) {
	return b.insertAligned(at, 4, octets[:])
}

// InsertAligned8 is like [Buffer.InsertAligned4], for 8 bytes at an
// 8-byte boundary.
func (b *Buffer) InsertAligned8(at int, octets [8]byte) (int, error) {
	return b.insertAligned(at, 8, octets[:])
}

func (b *Buffer) insertAligned(at, align int, octets []byte) (int, error) {
	b.checkMutable()
	b.checkRange(at, 0)
	gapPos := Align(at, align)
	pad := gapPos - at
	if err := b.openGap(at, pad+len(octets)); err != nil {
		return 0, err
	}
	clear(b.buf[at:gapPos])
	copy(b.buf[gapPos:], octets)
	return gapPos, nil
}

func checkSplice(src *Buffer, start int, dst *Buffer, at int) {
	if src == dst {
		panic("wirebuf: source and destination are the same Buffer")
	}
	src.check()
	dst.checkMutable()
	if start < 0 || start > src.n {
		panic(fmt.Sprintf("wirebuf: source offset %d out of bounds of %d-byte Buffer", start, src.n))
	}
	if at < 0 || at > dst.n {
		panic(fmt.Sprintf("wirebuf: destination offset %d out of bounds of %d-byte Buffer", at, dst.n))
	}
}

func copySegment(src *Buffer, start, n int, dst *Buffer, at int) error {
	if n == 0 {
		return nil
	}
	if err := dst.openGap(at, n); err != nil {
		return err
	}
	copy(dst.buf[at:], src.buf[start:start+n])
	return nil
}

// Copy inserts the bytes of src from start to its end into dst at
// offset at. src is unchanged.
func Copy(src *Buffer, start int, dst *Buffer, at int) error {
	checkSplice(src, start, dst, at)
	return copySegment(src, start, src.n-start, dst, at)
}

// CopyLen is like [Copy], but copies only n bytes.
func CopyLen(src *Buffer, start, n int, dst *Buffer, at int) error {
	checkSplice(src, start, dst, at)
	src.checkRange(start, n)
	return copySegment(src, start, n, dst, at)
}

// Move is like [Copy], but removes the copied bytes from src.
//
// Moving all of src into an empty dst exchanges their storage rather
// than copying.
func Move(src *Buffer, start int, dst *Buffer, at int) error {
	checkSplice(src, start, dst, at)
	src.checkMutable()
	if start == 0 && dst.n == 0 && src.n <= dst.max {
		src.buf, dst.buf = dst.buf, src.buf
		src.alloc, dst.alloc = dst.alloc, src.alloc
		dst.n, src.n = src.n, 0
		return nil
	}
	n := src.n - start
	if err := copySegment(src, start, n, dst, at); err != nil {
		return err
	}
	src.delete(start, n)
	return nil
}

// MoveLen is like [Move], but moves only n bytes.
func MoveLen(src *Buffer, start, n int, dst *Buffer, at int) error {
	checkSplice(src, start, dst, at)
	src.checkMutable()
	src.checkRange(start, n)
	if err := copySegment(src, start, n, dst, at); err != nil {
		return err
	}
	src.delete(start, n)
	return nil
}

// ReplaceLen replaces the replaceLen bytes of dst at offset at with
// the n bytes of src at offset start. On error, dst is unchanged.
func ReplaceLen(src *Buffer, start, n int, dst *Buffer, at, replaceLen int) error {
	checkSplice(src, start, dst, at)
	src.checkRange(start, n)
	dst.checkRange(at, replaceLen)
	if n == replaceLen {
		copy(dst.buf[at:at+n], src.buf[start:start+n])
		return nil
	}
	if err := copySegment(src, start, n, dst, at); err != nil {
		return err
	}
	dst.delete(at+n, replaceLen)
	return nil
}
