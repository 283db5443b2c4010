package dbuswire

import (
	"testing"

	"github.com/danderson/dbuswire/wirebuf"
)

func newBuffer(t *testing.T) *wirebuf.Buffer {
	t.Helper()
	b, err := wirebuf.New(wirebuf.Unlimited)
	if err != nil {
		t.Fatalf("wirebuf.New got err: %v", err)
	}
	return b
}

func mustBytes(t *testing.T, raw ...byte) *wirebuf.Buffer {
	t.Helper()
	b := newBuffer(t)
	if err := AppendBytes(b, raw); err != nil {
		t.Fatalf("AppendBytes got err: %v", err)
	}
	return b
}

func mustMarshal(t *testing.T, order ByteOrder, v any) *wirebuf.Buffer {
	t.Helper()
	b := newBuffer(t)
	if err := MarshalValue(b, order, v); err != nil {
		t.Fatalf("MarshalValue(%#v) got err: %v", v, err)
	}
	if testing.Verbose() {
		t.Logf("MarshalValue(%T, %s) = % x", v, order, b.Bytes())
	}
	return b
}

func mustValidate(t *testing.T, b *wirebuf.Buffer, order ByteOrder, sig string, pos int) int {
	t.Helper()
	end, err := ValidateArg(b, order, 0, sig, pos)
	if err != nil {
		t.Fatalf("ValidateArg(%q) got err: %v\n  raw: % x", sig, err, b.Bytes())
	}
	return end
}

// be and le are shorthands for building raw wire data in tests.
var (
	be = BigEndian
	le = LittleEndian
)

func otherEndian() ByteOrder {
	if NativeEndian == LittleEndian {
		return BigEndian
	}
	return LittleEndian
}
