package dbuswire

import (
	"fmt"
	"strings"

	"github.com/danderson/dbuswire/wirebuf"
)

// AppendBytes appends raw, unvalidated wire data to b, for example a
// message body read off a transport.
func AppendBytes(b *wirebuf.Buffer, raw []byte) error {
	return b.Append(raw)
}

// ValidateBody checks that the values described by sig start at pos
// in b, one after another, and returns the offset just past the last
// one.
func ValidateBody(b *wirebuf.Buffer, order ByteOrder, sig string, pos int) (int, error) {
	s, err := ParseSignature(sig)
	if err != nil {
		return 0, invalid(pos, "%v", err)
	}
	v := validator{b, order, true}
	for _, typ := range s.types {
		if pos, err = v.arg(0, typ, pos); err != nil {
			return 0, err
		}
	}
	return pos, nil
}

// DemarshalField reads one value of the complete type sig at pos. It
// is [DemarshalValue] with its arguments in message parsing order.
func DemarshalField(b *wirebuf.Buffer, order ByteOrder, pos int, sig string) (any, int) {
	return DemarshalValue(b, order, sig, pos)
}

// MarshalBody appends vals to b one after another, and returns the
// signature describing them. Either all of vals are appended, or b is
// unchanged.
func MarshalBody(b *wirebuf.Buffer, order ByteOrder, vals ...any) (Signature, error) {
	var sig strings.Builder
	err := marshal(b, order, func(e *encoder) error {
		for i, v := range vals {
			s, err := SignatureOf(v)
			if err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
			sig.WriteString(s.String())
			if err := e.value(0, v); err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return Signature{}, err
	}
	return ParseSignature(sig.String())
}

// DecodeBody validates the values described by sig at pos in b, then
// demarshals them. It returns the values and the offset just past the
// last one.
func DecodeBody(b *wirebuf.Buffer, order ByteOrder, sig string, pos int) ([]any, int, error) {
	end, err := ValidateBody(b, order, sig, pos)
	if err != nil {
		return nil, 0, err
	}
	s := mustParseSignature(sig)
	d := decoder{order, b, pos}
	ret := make([]any, 0, s.Len())
	for _, typ := range s.types {
		ret = append(ret, d.value(typ))
	}
	if d.Pos != end {
		panic(fmt.Sprintf("decoded body ends at %d, validated body ends at %d", d.Pos, end))
	}
	return ret, end, nil
}
