package dbuswire

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestByteOrder(t *testing.T) {
	for _, flag := range []byte{'l', 'B'} {
		o, err := ParseByteOrder(flag)
		if err != nil {
			t.Fatalf("ParseByteOrder(%q) got err: %v", flag, err)
		}
		if !o.Valid() || o.Flag() != flag {
			t.Errorf("ParseByteOrder(%q) = %s, flag %q", flag, o, o.Flag())
		}
	}
	for _, flag := range []byte{0, 'L', 'b', 'x'} {
		if o, err := ParseByteOrder(flag); err == nil {
			t.Errorf("ParseByteOrder(%q) = %s, want error", flag, o)
		}
	}
	if !NativeEndian.Valid() || otherEndian() == NativeEndian {
		t.Fatalf("bad native byte order %s", NativeEndian)
	}
	if ByteOrder('q').Valid() {
		t.Fatal("ByteOrder('q') is valid")
	}
}

func TestPack(t *testing.T) {
	var buf [8]byte

	PackUint32(0x01020304, be, buf[:])
	if !bytes.Equal(buf[:4], []byte{1, 2, 3, 4}) || UnpackUint32(be, buf[:]) != 0x01020304 {
		t.Errorf("PackUint32 BE = % x", buf[:4])
	}
	PackUint32(0x01020304, le, buf[:])
	if !bytes.Equal(buf[:4], []byte{4, 3, 2, 1}) || UnpackUint32(le, buf[:]) != 0x01020304 {
		t.Errorf("PackUint32 LE = % x", buf[:4])
	}
	PackInt32(-2, le, buf[:])
	if UnpackInt32(le, buf[:]) != -2 || UnpackUint32(le, buf[:]) != 0xfffffffe {
		t.Errorf("PackInt32(-2) = % x", buf[:4])
	}
	PackUint64(0x0102030405060708, be, buf[:])
	if !bytes.Equal(buf[:], []byte{1, 2, 3, 4, 5, 6, 7, 8}) || UnpackUint64(be, buf[:]) != 0x0102030405060708 {
		t.Errorf("PackUint64 BE = % x", buf[:])
	}
	PackInt64(math.MinInt64, le, buf[:])
	if UnpackInt64(le, buf[:]) != math.MinInt64 {
		t.Errorf("PackInt64(MinInt64) = % x", buf[:])
	}
	PackFloat64(-1.5, be, buf[:])
	if UnpackFloat64(be, buf[:]) != -1.5 || !bytes.Equal(buf[:2], []byte{0xbf, 0xf8}) {
		t.Errorf("PackFloat64(-1.5) = % x", buf[:])
	}
}

func TestSetters(t *testing.T) {
	for _, order := range []ByteOrder{le, be} {
		b := newBuffer(t)
		if _, err := MarshalBody(b, order, uint32(0), int32(0), int64(0), uint64(0), float64(0)); err != nil {
			t.Fatal(err)
		}
		SetUint32(b, order, 0, 7)
		SetInt32(b, order, 4, -7)
		SetInt64(b, order, 8, -8)
		SetUint64(b, order, 16, 8)
		SetFloat64(b, order, 24, 0.25)

		vals, _, err := DecodeBody(b, order, "uixtd", 0)
		if err != nil {
			t.Fatal(err)
		}
		want := []any{uint32(7), int32(-7), int64(-8), uint64(8), 0.25}
		for i := range want {
			if vals[i] != want[i] {
				t.Errorf("%s: value %d = %v, want %v", order, i, vals[i], want[i])
			}
		}
	}

	b := mustBytes(t, make([]byte, 16)...)
	mustPanic(t, func() { SetUint32(b, le, 2, 1) })
	mustPanic(t, func() { SetUint64(b, le, 4, 1) })
	mustPanic(t, func() { SetFloat64(b, le, 12, 1) })
}

func TestSetString(t *testing.T) {
	for _, order := range []ByteOrder{le, be} {
		b := newBuffer(t)
		if _, err := MarshalBody(b, order, byte(9), "hello", byte(7)); err != nil {
			t.Fatal(err)
		}

		if err := SetString(b, order, 4, "hi"); err != nil {
			t.Fatalf("SetString shorter got err: %v", err)
		}
		vals, _, err := DecodeBody(b, order, "ysy", 0)
		if err != nil {
			t.Fatalf("after shorter SetString: %v", err)
		}
		if vals[1] != "hi" || vals[2] != byte(7) {
			t.Fatalf("after shorter SetString got %v", vals)
		}

		long := strings.Repeat("x", 100)
		if err := SetString(b, order, 4, long); err != nil {
			t.Fatalf("SetString longer got err: %v", err)
		}
		vals, end, err := DecodeBody(b, order, "ysy", 0)
		if err != nil {
			t.Fatalf("after longer SetString: %v", err)
		}
		if vals[1] != long || vals[2] != byte(7) || end != b.Len() {
			t.Fatalf("after longer SetString got %v, end %d of %d", vals, end, b.Len())
		}

		before := bytes.Clone(b.Bytes())
		var te TypeError
		if err := SetString(b, order, 4, "bad\x00"); !errors.As(err, &te) {
			t.Fatalf("SetString with NUL got err %v, want TypeError", err)
		}
		if !bytes.Equal(b.Bytes(), before) {
			t.Fatal("failed SetString modified buffer")
		}
	}
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("function did not panic")
		}
	}()
	fn()
}
