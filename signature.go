package dbuswire

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// MaxDepth is the maximum number of arrays and dictionaries that may
// be nested within a single value.
const MaxDepth = 32

// A Signature describes the types of a sequence of DBus values.
//
// A signature is a string of type codes, made of zero or more
// complete types. A complete type is any number of [TypeArray] codes
// followed by one code of another type.
type Signature struct {
	str   string
	types []string
}

// String returns the string encoding of the Signature.
func (s Signature) String() string {
	return s.str
}

// IsZero reports whether the signature describes no values.
func (s Signature) IsZero() bool {
	return s.str == ""
}

// Len returns the number of complete types in s.
func (s Signature) Len() int {
	return len(s.types)
}

// Types returns the complete types that make up s.
func (s Signature) Types() []string {
	return slices.Clone(s.types)
}

type parsedSignature struct {
	sig Signature
	err error
}

var strToSignature = xsync.NewMap[string, parsedSignature]()

// ParseSignature parses a DBus type signature string.
func ParseSignature(sig string) (Signature, error) {
	if ret, ok := strToSignature.Load(sig); ok {
		return ret.sig, ret.err
	}

	var (
		rest  = sig
		types []string
		typ   string
		err   error
	)
	for rest != "" {
		typ, rest, err = splitType(rest)
		if err != nil {
			err = fmt.Errorf("invalid type signature %q: %w", sig, err)
			strToSignature.Store(sig, parsedSignature{err: err})
			return Signature{}, err
		}
		types = append(types, typ)
	}
	ret := Signature{sig, types}
	strToSignature.Store(sig, parsedSignature{sig: ret})
	return ret, nil
}

func mustParseSignature(sig string) Signature {
	ret, err := ParseSignature(sig)
	if err != nil {
		panic(err)
	}
	return ret
}

// splitType consumes the first complete type from the front of sig,
// and returns it along with the remainder of the signature.
func splitType(sig string) (typ, rest string, err error) {
	arrays := 0
	for arrays < len(sig) && Type(sig[arrays]) == TypeArray {
		arrays++
	}
	if arrays == len(sig) {
		return "", "", errors.New("array with no element type")
	}
	t := Type(sig[arrays])
	if !t.Valid() {
		return "", "", fmt.Errorf("unknown type code %q", sig[arrays])
	}
	if arrays > 0 && t == TypeNil {
		return "", "", errors.New("arrays of NIL are not allowed")
	}
	typ = sig[:arrays+1]
	if containerDepth(typ) > MaxDepth {
		return "", "", fmt.Errorf("%w: %d levels", ErrTooDeep, containerDepth(typ))
	}
	return typ, sig[arrays+1:], nil
}

// containerDepth returns the number of container levels in the
// complete type typ, not counting the contents of dictionaries.
func containerDepth(typ string) int {
	n := len(typ) - 1
	if Type(typ[n]) == TypeDict {
		n++
	}
	return n
}

var typeToSignature = xsync.NewMap[reflect.Type, parsedSignature]()

// SignatureOf returns the Signature of the given value.
//
// See [MarshalValue] for the mapping of Go types to DBus types.
func SignatureOf(v any) (Signature, error) {
	return signatureFor(reflect.TypeOf(v))
}

// SignatureFor returns the Signature for the given type.
func SignatureFor[T any]() (Signature, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Interface {
		return Signature{}, typeErr(t, "interface types have no fixed signature")
	}
	return signatureFor(t)
}

func signatureFor(t reflect.Type) (Signature, error) {
	if t == nil {
		return mustParseSignature(string(TypeNil)), nil
	}
	if ret, ok := typeToSignature.Load(t); ok {
		return ret.sig, ret.err
	}

	str, err := typeSignature(t)
	if err == nil && containerDepth(str) > MaxDepth {
		err = typeErr(t, "%w", ErrTooDeep)
	}
	var ret Signature
	if err == nil {
		ret = Signature{str, []string{str}}
	}
	typeToSignature.Store(t, parsedSignature{ret, err})
	return ret, err
}

// kindToType maps the reflect.Kinds of basic Go types to the DBus
// type they marshal as, for named types that are not in
// reflectToType.
var kindToType = map[reflect.Kind]Type{
	reflect.Bool:    TypeBoolean,
	reflect.Uint8:   TypeByte,
	reflect.Int32:   TypeInt32,
	reflect.Uint32:  TypeUint32,
	reflect.Int64:   TypeInt64,
	reflect.Uint64:  TypeUint64,
	reflect.Float64: TypeDouble,
	reflect.String:  TypeString,
}

func typeSignature(t reflect.Type) (string, error) {
	if ret, ok := reflectToType[t]; ok {
		return string(ret), nil
	}
	if ret, ok := kindToType[t.Kind()]; ok {
		return string(ret), nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Interface {
			return "", typeErr(t, "array elements must have a concrete type")
		}
		es, err := typeSignature(t.Elem())
		if err != nil {
			return "", err
		}
		return string(TypeArray) + es, nil
	case reflect.Int, reflect.Uint:
		return "", typeErr(t, "int and uint aren't portable, use fixed width integers")
	}
	return "", typeErr(t, "no mapping available")
}

// signatureString returns a printable rendering of a possibly invalid
// type string.
func signatureString(sig string) string {
	var b strings.Builder
	for _, c := range []byte(sig) {
		if Type(c).Valid() {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	return b.String()
}
