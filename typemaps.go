package dbuswire

import (
	"fmt"
	"reflect"

	"github.com/creachadair/mds/mapset"
)

// A Type is a one byte type code, as found in signatures and in the
// inline type tags of dictionary values.
type Type byte

const (
	TypeInvalid    Type = 0
	TypeNil        Type = 'v'
	TypeByte       Type = 'y'
	TypeBoolean    Type = 'b'
	TypeInt32      Type = 'i'
	TypeUint32     Type = 'u'
	TypeInt64      Type = 'x'
	TypeUint64     Type = 't'
	TypeDouble     Type = 'd'
	TypeString     Type = 's'
	TypeObjectPath Type = 'o'
	TypeCustom     Type = 'c'
	TypeArray      Type = 'a'
	TypeDict       Type = 'm'
)

var (
	// validTypes is the set of all type codes that may appear in a
	// signature.
	validTypes = mapset.New(
		TypeNil,
		TypeByte,
		TypeBoolean,
		TypeInt32,
		TypeUint32,
		TypeInt64,
		TypeUint64,
		TypeDouble,
		TypeString,
		TypeObjectPath,
		TypeCustom,
		TypeArray,
		TypeDict,
	)

	// fixedTypes is the set of types whose encoding has a fixed
	// size, and whose arrays can be validated and copied as a single
	// block.
	fixedTypes = mapset.New(
		TypeByte,
		TypeBoolean,
		TypeInt32,
		TypeUint32,
		TypeInt64,
		TypeUint64,
		TypeDouble,
	)

	// typeAlign maps each valid type to its wire alignment. For fixed
	// types, the alignment is also the encoded size.
	typeAlign = map[Type]int{
		TypeNil:        1,
		TypeByte:       1,
		TypeBoolean:    1,
		TypeInt32:      4,
		TypeUint32:     4,
		TypeInt64:      8,
		TypeUint64:     8,
		TypeDouble:     8,
		TypeString:     4,
		TypeObjectPath: 4,
		TypeCustom:     4,
		TypeArray:      4,
		TypeDict:       4,
	}

	typeNames = map[Type]string{
		TypeInvalid:    "INVALID",
		TypeNil:        "NIL",
		TypeByte:       "BYTE",
		TypeBoolean:    "BOOLEAN",
		TypeInt32:      "INT32",
		TypeUint32:     "UINT32",
		TypeInt64:      "INT64",
		TypeUint64:     "UINT64",
		TypeDouble:     "DOUBLE",
		TypeString:     "STRING",
		TypeObjectPath: "OBJECT_PATH",
		TypeCustom:     "CUSTOM",
		TypeArray:      "ARRAY",
		TypeDict:       "DICT",
	}

	// typeToReflect maps the non-array types to the Go types they
	// demarshal to. NIL has no entry, since it only demarshals to a
	// nil interface.
	typeToReflect = map[Type]reflect.Type{
		TypeByte:       reflect.TypeFor[uint8](),
		TypeBoolean:    reflect.TypeFor[bool](),
		TypeInt32:      reflect.TypeFor[int32](),
		TypeUint32:     reflect.TypeFor[uint32](),
		TypeInt64:      reflect.TypeFor[int64](),
		TypeUint64:     reflect.TypeFor[uint64](),
		TypeDouble:     reflect.TypeFor[float64](),
		TypeString:     reflect.TypeFor[string](),
		TypeObjectPath: reflect.TypeFor[ObjectPath](),
		TypeCustom:     reflect.TypeFor[Custom](),
		TypeDict:       reflect.TypeFor[*Dict](),
	}

	// reflectToType is the inverse of typeToReflect.
	reflectToType = map[reflect.Type]Type{
		reflect.TypeFor[uint8]():      TypeByte,
		reflect.TypeFor[bool]():       TypeBoolean,
		reflect.TypeFor[int32]():      TypeInt32,
		reflect.TypeFor[uint32]():     TypeUint32,
		reflect.TypeFor[int64]():      TypeInt64,
		reflect.TypeFor[uint64]():     TypeUint64,
		reflect.TypeFor[float64]():    TypeDouble,
		reflect.TypeFor[string]():     TypeString,
		reflect.TypeFor[ObjectPath](): TypeObjectPath,
		reflect.TypeFor[Custom]():     TypeCustom,
		reflect.TypeFor[*Dict]():      TypeDict,
	}
)

// Valid reports whether t is a known type code other than
// TypeInvalid.
func (t Type) Valid() bool { return validTypes.Has(t) }

// Fixed reports whether values of type t have a fixed encoded size.
func (t Type) Fixed() bool { return fixedTypes.Has(t) }

// Alignment returns the wire alignment of t. It panics if t is not
// valid.
func (t Type) Alignment() int {
	a, ok := typeAlign[t]
	if !ok {
		panic(fmt.Sprintf("alignment of invalid %s", t))
	}
	return a
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%q)", byte(t))
}

// reflectTypeFor returns the Go type that values of the complete type
// sig demarshal to.
func reflectTypeFor(sig string) reflect.Type {
	if Type(sig[0]) == TypeArray {
		return reflect.SliceOf(reflectTypeFor(sig[1:]))
	}
	if t, ok := typeToReflect[Type(sig[0])]; ok {
		return t
	}
	return reflect.TypeFor[any]()
}

// GoType returns the Go type that values of the complete type sig
// demarshal to, and that marshal back to sig. NIL has no Go type, and
// returns nil.
func GoType(sig string) (reflect.Type, error) {
	typ, rest, err := splitType(sig)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("%q is not a single complete type", sig)
	}
	if Type(typ[0]) == TypeNil {
		return nil, nil
	}
	return reflectTypeFor(typ), nil
}
