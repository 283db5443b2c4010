package dbuswire

import (
	"log"

	"github.com/danderson/dbuswire/wirebuf"
)

const debugValidation = false

func debugValidate(msg string, args ...any) {
	if !debugValidation {
		return
	}
	log.Printf(msg, args...)
}

// ValidateArg checks that a well-formed value of the complete type
// sig starts at pos in b, and returns the offset just past it.
//
// depth is the number of arrays and dictionaries enclosing the value.
// Values at the top level of a message body have depth 0.
//
// ValidateArg never modifies b. Errors describing malformed data are
// of type *[ValidationError].
func ValidateArg(b *wirebuf.Buffer, order ByteOrder, depth int, sig string, pos int) (int, error) {
	typ, rest, err := splitType(sig)
	if err != nil {
		return 0, invalid(pos, "bad type signature %q: %v", signatureString(sig), err)
	}
	if rest != "" {
		return 0, invalid(pos, "type signature %q is not a single complete type", signatureString(sig))
	}
	v := validator{b, order, true}
	return v.arg(depth, typ, pos)
}

// ValidateType checks that well-formed inline type tags start at pos
// in b, and returns the complete type they describe along with the
// offset just past them.
func ValidateType(b *wirebuf.Buffer, pos int) (sig string, end int, err error) {
	end = pos
	for {
		if end >= b.Len() {
			return "", 0, invalid(end, "type tags truncated")
		}
		if Type(b.Byte(end)) != TypeArray {
			break
		}
		end++
		if end-pos > MaxDepth {
			return "", 0, invalid(pos, "type tags nest arrays more than %d deep", MaxDepth)
		}
	}
	end++
	sig = string(b.Slice(pos, end-pos))
	if _, _, err := splitType(sig); err != nil {
		return "", 0, invalid(pos, "bad type tags %q: %v", signatureString(sig), err)
	}
	return sig, end, nil
}

// A validator checks wire data in a buffer. Unless blockArrays is
// set, arrays of fixed size types are checked element by element
// rather than as a single block.
type validator struct {
	b           *wirebuf.Buffer
	order       ByteOrder
	blockArrays bool
}

func (v *validator) arg(depth int, sig string, pos int) (int, error) {
	if depth+containerDepth(sig) > MaxDepth {
		return 0, invalid(pos, "%s nests containers more than %d deep", sig, MaxDepth)
	}

	switch t := Type(sig[0]); t {
	case TypeNil:
		return pos, nil
	case TypeByte:
		if pos >= v.b.Len() {
			return 0, invalid(pos, "not enough data for BYTE")
		}
		return pos + 1, nil
	case TypeBoolean:
		if pos >= v.b.Len() {
			return 0, invalid(pos, "not enough data for BOOLEAN")
		}
		if c := v.b.Byte(pos); c > 1 {
			return 0, invalid(pos, "BOOLEAN has value %d, must be 0 or 1", c)
		}
		return pos + 1, nil
	case TypeInt32, TypeUint32, TypeInt64, TypeUint64, TypeDouble:
		return v.fixed(t, pos)
	case TypeString:
		_, end, err := v.string(pos)
		return end, err
	case TypeObjectPath:
		start, end, err := v.string(pos)
		if err != nil {
			return 0, err
		}
		if err := ValidatePath(string(v.b.Slice(start, end-start-1))); err != nil {
			return 0, invalid(start, "bad OBJECT_PATH: %v", err)
		}
		return end, nil
	case TypeCustom:
		_, end, err := v.string(pos)
		if err != nil {
			return 0, err
		}
		ln, start, err := v.length(end, MaxArrayLength)
		if err != nil {
			return 0, err
		}
		return start + ln, nil
	case TypeArray:
		return v.array(depth, sig, pos)
	case TypeDict:
		return v.dict(depth, pos)
	}
	return 0, invalid(pos, "unknown type code %q", sig[0])
}

// padding checks the alignment padding at pos, and returns the
// aligned offset.
func (v *validator) padding(pos, align int) (int, error) {
	aligned := wirebuf.Align(pos, align)
	if aligned > v.b.Len() {
		return 0, invalid(pos, "not enough data for %d-byte alignment", align)
	}
	if !v.b.ValidateNul(pos, aligned-pos) {
		return 0, invalid(pos, "alignment padding is not all NUL")
	}
	return aligned, nil
}

func (v *validator) fixed(t Type, pos int) (int, error) {
	size := t.Alignment()
	start, err := v.padding(pos, size)
	if err != nil {
		return 0, err
	}
	if size > v.b.Len()-start {
		return 0, invalid(start, "not enough data for %s", t)
	}
	return start + size, nil
}

// length checks the padding and value of a length field at pos, and
// returns the length along with the offset just past the length
// field. The length must be no more than max, and no more than the
// remaining data.
func (v *validator) length(pos int, max uint32) (ln, start int, err error) {
	p, err := v.padding(pos, 4)
	if err != nil {
		return 0, 0, err
	}
	if 4 > v.b.Len()-p {
		return 0, 0, invalid(p, "not enough data for length")
	}
	n := UnpackUint32(v.order, v.b.Slice(p, 4))
	start = p + 4
	if n > max {
		return 0, 0, invalid(p, "length %d exceeds maximum of %d", n, max)
	}
	if int(n) > v.b.Len()-start {
		return 0, 0, invalid(p, "length %d exceeds remaining %d bytes", n, v.b.Len()-start)
	}
	return int(n), start, nil
}

// string checks a length-prefixed NUL-terminated string at pos, and
// returns the offset of its first byte and the offset just past its
// terminator.
func (v *validator) string(pos int) (start, end int, err error) {
	ln, start, err := v.length(pos, MaxArrayLength)
	if err != nil {
		return 0, 0, err
	}
	if start+ln >= v.b.Len() {
		return 0, 0, invalid(start, "string of length %d has no terminator", ln)
	}
	if v.b.Byte(start+ln) != 0 {
		return 0, 0, invalid(start+ln, "string is not NUL terminated")
	}
	if !v.b.ValidateUTF8(start, ln) {
		return 0, 0, invalid(start, "string is not valid UTF-8 or contains NUL")
	}
	return start, start + ln + 1, nil
}

func (v *validator) array(depth int, sig string, pos int) (int, error) {
	elem := sig[1:]
	et := Type(elem[0])
	if et == TypeNil {
		return 0, invalid(pos, "arrays of NIL are not allowed")
	}
	lenPos := wirebuf.Align(pos, 4)
	ln, p, err := v.length(pos, MaxArrayLength)
	if err != nil {
		return 0, err
	}
	start, err := v.padding(p, et.Alignment())
	if err != nil {
		return 0, err
	}
	if ln > v.b.Len()-start {
		return 0, invalid(lenPos, "array length %d exceeds remaining %d bytes", ln, v.b.Len()-start)
	}
	end := start + ln

	if v.blockArrays && len(elem) == 1 && et.Fixed() {
		switch et {
		case TypeByte:
		case TypeBoolean:
			for i := start; i < end; i++ {
				if c := v.b.Byte(i); c > 1 {
					return 0, invalid(i, "BOOLEAN has value %d, must be 0 or 1", c)
				}
			}
		default:
			if size := et.Alignment(); ln%size != 0 {
				return 0, invalid(lenPos, "array length %d is not a multiple of %d-byte %s", ln, size, et)
			}
		}
		return end, nil
	}

	pos = start
	for pos < end {
		if pos, err = v.arg(depth+1, elem, pos); err != nil {
			return 0, err
		}
	}
	if pos != end {
		return 0, invalid(end, "array elements overrun declared length by %d bytes", pos-end)
	}
	return end, nil
}

func (v *validator) dict(depth int, pos int) (int, error) {
	ln, start, err := v.length(pos, MaxArrayLength)
	if err != nil {
		return 0, err
	}
	end := start + ln

	pos = start
	for pos < end {
		if pos, err = v.arg(depth+1, string(TypeString), pos); err != nil {
			return 0, err
		}
		var sig string
		if sig, pos, err = ValidateType(v.b, pos); err != nil {
			return 0, err
		}
		if pos, err = v.arg(depth+1, sig, pos); err != nil {
			return 0, err
		}
	}
	if pos != end {
		return 0, invalid(end, "dict entries overrun declared length by %d bytes", pos-end)
	}
	return end, nil
}
