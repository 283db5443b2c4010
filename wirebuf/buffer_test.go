package wirebuf_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/danderson/dbuswire/internal/faultalloc"
	"github.com/danderson/dbuswire/wirebuf"
)

func mustNew(t *testing.T, max int) *wirebuf.Buffer {
	t.Helper()
	b, err := wirebuf.New(max)
	if err != nil {
		t.Fatalf("New(%d) got err: %v", max, err)
	}
	return b
}

func mustBuffer(t *testing.T, contents string) *wirebuf.Buffer {
	t.Helper()
	b := mustNew(t, wirebuf.Unlimited)
	if err := b.AppendString(contents); err != nil {
		t.Fatalf("AppendString(%q) got err: %v", contents, err)
	}
	return b
}

func checkContents(t *testing.T, b *wirebuf.Buffer, want string) {
	t.Helper()
	if got := b.Bytes(); !bytes.Equal(got, []byte(want)) {
		t.Fatalf("wrong contents:\n  got: % x\n want: % x", got, []byte(want))
	}
	if b.Byte(b.Len()) != 0 {
		t.Fatalf("buffer not NUL terminated")
	}
	if testing.Verbose() {
		t.Logf("contents = % x", b.Bytes())
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("%s did not panic", name)
			return
		}
		if s := fmt.Sprint(r); !strings.HasPrefix(s, "wirebuf: ") {
			t.Errorf("%s panicked with %q, want wirebuf: prefix", name, s)
		}
	}()
	fn()
}

func TestNew(t *testing.T) {
	b := mustNew(t, 100)
	if b.Len() != 0 {
		t.Errorf("new Buffer has length %d", b.Len())
	}
	if b.MaxLength() != 100 {
		t.Errorf("MaxLength() = %d, want 100", b.MaxLength())
	}
	if b.IsConstant() || b.IsLocked() {
		t.Errorf("new Buffer is constant=%v locked=%v", b.IsConstant(), b.IsLocked())
	}

	if _, err := wirebuf.NewAlloc(100, faultalloc.FailAfter(0)); !errors.Is(err, wirebuf.ErrNoMemory) {
		t.Errorf("NewAlloc with failing allocator got err %v, want ErrNoMemory", err)
	}

	mustPanic(t, "New(-1)", func() { wirebuf.New(-1) })
}

func TestGrow(t *testing.T) {
	b := mustNew(t, 10)
	for i := range 10 {
		if err := b.AppendByte(byte('a' + i)); err != nil {
			t.Fatalf("AppendByte #%d got err: %v", i, err)
		}
	}
	checkContents(t, b, "abcdefghij")
	if b.Cap() != 10 {
		t.Errorf("Cap() = %d, want growth clamped to 10", b.Cap())
	}

	if err := b.AppendByte('k'); !errors.Is(err, wirebuf.ErrTooLong) {
		t.Errorf("AppendByte past max got err %v, want ErrTooLong", err)
	}
	checkContents(t, b, "abcdefghij")
	if err := b.Lengthen(1); !errors.Is(err, wirebuf.ErrTooLong) {
		t.Errorf("Lengthen past max got err %v, want ErrTooLong", err)
	}
	if err := b.SetLength(11); !errors.Is(err, wirebuf.ErrTooLong) {
		t.Errorf("SetLength past max got err %v, want ErrTooLong", err)
	}
	checkContents(t, b, "abcdefghij")
}

func TestGrowNoMemory(t *testing.T) {
	alloc := faultalloc.FailAfter(1)
	b, err := wirebuf.NewAlloc(wirebuf.Unlimited, alloc)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AppendString("1234567"); err != nil {
		t.Fatalf("AppendString within first allocation got err: %v", err)
	}
	if err := b.AppendString("overflow"); !errors.Is(err, wirebuf.ErrNoMemory) {
		t.Fatalf("AppendString needing reallocation got err %v, want ErrNoMemory", err)
	}
	checkContents(t, b, "1234567")
	if err := b.InsertByte(0, 'x'); !errors.Is(err, wirebuf.ErrNoMemory) {
		t.Fatalf("InsertByte needing reallocation got err %v, want ErrNoMemory", err)
	}
	checkContents(t, b, "1234567")
}

func TestCanary(t *testing.T) {
	var alloc faultalloc.Canary
	b, err := wirebuf.NewAlloc(wirebuf.Unlimited, &alloc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 200 {
		if err := b.AppendByte(byte(i)); err != nil {
			t.Fatal(err)
		}
		if i%7 == 0 {
			if err := b.InsertByte(i/2, 'x'); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := b.AlignLength(8); err != nil {
		t.Fatal(err)
	}
	if _, err := b.InsertAligned8(3, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	b.Delete(0, 17)
	b.Lock()
	if err := alloc.Check(); err != nil {
		t.Fatalf("buffer wrote out of bounds: %v", err)
	}
}

func TestLengthChanges(t *testing.T) {
	b := mustBuffer(t, "hello world")
	b.Shorten(6)
	checkContents(t, b, "hello")
	if err := b.SetLength(3); err != nil {
		t.Fatal(err)
	}
	checkContents(t, b, "hel")
	b.Truncate(0)
	checkContents(t, b, "")

	if err := b.Lengthen(5); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 5 {
		t.Errorf("Len() after Lengthen(5) = %d", b.Len())
	}

	mustPanic(t, "Shorten too far", func() { b.Shorten(6) })
	mustPanic(t, "Truncate longer", func() { b.Truncate(6) })
	mustPanic(t, "Lengthen negative", func() { b.Lengthen(-1) })
}

func TestAlignLength(t *testing.T) {
	tests := []struct {
		start    string
		boundary int
		want     string
	}{
		{"", 8, ""},
		{"a", 1, "a"},
		{"a", 2, "a\x00"},
		{"a", 4, "a\x00\x00\x00"},
		{"a", 8, "a\x00\x00\x00\x00\x00\x00\x00"},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "abcde\x00\x00\x00"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%q/%d", tc.start, tc.boundary), func(t *testing.T) {
			b := mustBuffer(t, tc.start)
			if err := b.AlignLength(tc.boundary); err != nil {
				t.Fatal(err)
			}
			checkContents(t, b, tc.want)
		})
	}

	b := mustNew(t, 5)
	b.AppendByte(1)
	if err := b.AlignLength(8); !errors.Is(err, wirebuf.ErrTooLong) {
		t.Errorf("AlignLength past max got err %v, want ErrTooLong", err)
	}
	checkContents(t, b, "\x01")
	mustPanic(t, "AlignLength(3)", func() { b.AlignLength(3) })
}

func TestBytes(t *testing.T) {
	b := mustBuffer(t, "abc")
	if got := b.Byte(1); got != 'b' {
		t.Errorf("Byte(1) = %q, want 'b'", got)
	}
	if got := b.Byte(3); got != 0 {
		t.Errorf("Byte(3) = %q, want NUL", got)
	}
	b.SetByte(1, 'B')
	if err := b.InsertByte(0, '_'); err != nil {
		t.Fatal(err)
	}
	if err := b.InsertByte(4, '!'); err != nil {
		t.Fatal(err)
	}
	checkContents(t, b, "_aBc!")

	if got := string(b.Slice(1, 3)); got != "aBc" {
		t.Errorf("Slice(1, 3) = %q, want aBc", got)
	}
	copy(b.MutableSlice(0, 1), "-")
	b.Put(4, []byte("?"))
	checkContents(t, b, "-aBc?")

	if err := b.Insert(2, []byte("xyz")); err != nil {
		t.Fatal(err)
	}
	checkContents(t, b, "-axyzBc?")
	if err := b.Append([]byte("!!")); err != nil {
		t.Fatal(err)
	}
	checkContents(t, b, "-axyzBc?!!")

	mustPanic(t, "Byte out of range", func() { b.Byte(11) })
	mustPanic(t, "SetByte at end", func() { b.SetByte(b.Len(), 0) })
	mustPanic(t, "Slice out of range", func() { b.Slice(8, 3) })
	mustPanic(t, "Put out of range", func() { b.Put(9, []byte("ab")) })
}

func TestConst(t *testing.T) {
	data := []byte("constant")
	b := wirebuf.Const(data)
	if !b.IsConstant() {
		t.Fatal("Const buffer is not constant")
	}
	if b.Len() != len(data) || b.MaxLength() != len(data) {
		t.Errorf("Len()=%d MaxLength()=%d, want %d", b.Len(), b.MaxLength(), len(data))
	}
	if got := b.Byte(b.Len()); got != 0 {
		t.Errorf("Byte(Len()) = %q, want NUL", got)
	}
	if !b.HasPrefix("con") {
		t.Error("constant buffer missing prefix")
	}

	mustPanic(t, "Append to constant", func() { b.AppendByte(1) })
	mustPanic(t, "SetByte on constant", func() { b.SetByte(0, 1) })
	mustPanic(t, "Lock constant", func() { b.Lock() })
	mustPanic(t, "Truncate constant", func() { b.Truncate(0) })

	b.Free()
	if got := string(b.Bytes()); got != "constant" {
		t.Errorf("constant buffer after Free has contents %q", got)
	}
	if string(data) != "constant" {
		t.Errorf("Const modified its input: %q", data)
	}

	s := wirebuf.ConstString("str")
	checkContents(t, s, "str")
}

func TestLock(t *testing.T) {
	b := mustNew(t, wirebuf.Unlimited)
	if err := b.Lengthen(100); err != nil {
		t.Fatal(err)
	}
	b.Truncate(10)
	capBefore := b.Cap()
	b.Lock()
	if !b.IsLocked() {
		t.Fatal("Lock did not lock")
	}
	if b.Cap() >= capBefore {
		t.Errorf("Lock did not compact: Cap() = %d, was %d", b.Cap(), capBefore)
	}
	if b.Len() != 10 {
		t.Errorf("Lock changed length to %d", b.Len())
	}
	b.Lock()

	mustPanic(t, "Append to locked", func() { b.AppendByte(1) })
	mustPanic(t, "Insert into locked", func() { b.InsertByte(0, 1) })
	mustPanic(t, "Delete from locked", func() { b.Delete(0, 1) })
	mustPanic(t, "Zero locked", func() { b.Zero() })
}

func TestLockCompactionFailure(t *testing.T) {
	alloc := faultalloc.FailAfter(5)
	b, err := wirebuf.NewAlloc(wirebuf.Unlimited, alloc)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Lengthen(100); err != nil {
		t.Fatal(err)
	}
	alloc.After = 1
	b.Truncate(1)
	b.Lock()
	if !b.IsLocked() || b.Len() != 1 {
		t.Errorf("Lock with failed compaction: locked=%v len=%d", b.IsLocked(), b.Len())
	}
}

func TestSteal(t *testing.T) {
	b := mustBuffer(t, "stolen")
	got, err := b.Steal()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "stolen" {
		t.Errorf("Steal() = %q, want stolen", got)
	}
	checkContents(t, b, "")
	if err := b.AppendString("again"); err != nil {
		t.Fatal(err)
	}
	checkContents(t, b, "again")
	if string(got) != "stolen" {
		t.Errorf("stolen bytes modified by later append: %q", got)
	}
}

func TestFree(t *testing.T) {
	b := mustBuffer(t, "x")
	b.Free()
	mustPanic(t, "Len after Free", func() { b.Len() })
	mustPanic(t, "Append after Free", func() { b.AppendByte(1) })
	mustPanic(t, "Free twice", func() { b.Free() })
	if got := b.String(); got != "Buffer(freed)" {
		t.Errorf("String() = %q", got)
	}
}

func TestZero(t *testing.T) {
	b := mustBuffer(t, "abc")
	b.Zero()
	checkContents(t, b, "\x00\x00\x00")
}

func TestAlign(t *testing.T) {
	tests := []struct {
		n, boundary, want int
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{9, 8, 16},
		{3, 1, 3},
	}
	for _, tc := range tests {
		if got := wirebuf.Align(tc.n, tc.boundary); got != tc.want {
			t.Errorf("Align(%d, %d) = %d, want %d", tc.n, tc.boundary, got, tc.want)
		}
	}
	if got := wirebuf.Align[uint32](13, 4); got != 16 {
		t.Errorf("Align[uint32](13, 4) = %d, want 16", got)
	}
}
