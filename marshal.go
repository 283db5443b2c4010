package dbuswire

import (
	"fmt"
	"log"
	"math"
	"reflect"
	"unsafe"

	"github.com/danderson/dbuswire/wirebuf"
	"github.com/puzpuzpuz/xsync/v4"
)

// MaxArrayLength is the maximum length in bytes of a string, or of the
// body of an array, dictionary or custom value.
const MaxArrayLength = math.MaxInt32 / 32

const debugMarshalers = false

func debugMarshal(msg string, args ...any) {
	if !debugMarshalers {
		return
	}
	log.Printf(msg, args...)
}

// marshal runs fn with an encoder that appends to b. If fn fails, b
// is truncated back to its length before the call.
func marshal(b *wirebuf.Buffer, order ByteOrder, fn func(*encoder) error) error {
	start := b.Len()
	e := encoder{Order: order, Out: b}
	err := fn(&e)
	if err == nil {
		err = e.err
	}
	if err != nil {
		debugMarshal("marshal at offset %d failed, rolling back %d bytes: %v", start, b.Len()-start, err)
		b.Truncate(start)
		return err
	}
	return nil
}

func checkString(s string) error {
	if !wirebuf.ValidString(s) {
		return typeErr(reflect.TypeFor[string](), "%q is not valid UTF-8 free of NULs", s)
	}
	return nil
}

// MarshalByte appends a BYTE to b.
func MarshalByte(b *wirebuf.Buffer, order ByteOrder, v byte) error {
	return marshal(b, order, func(e *encoder) error {
		e.Uint8(v)
		return nil
	})
}

// MarshalBoolean appends a BOOLEAN to b.
func MarshalBoolean(b *wirebuf.Buffer, order ByteOrder, v bool) error {
	return marshal(b, order, func(e *encoder) error {
		e.Bool(v)
		return nil
	})
}

// MarshalInt32 appends an INT32 to b.
func MarshalInt32(b *wirebuf.Buffer, order ByteOrder, v int32) error {
	return marshal(b, order, func(e *encoder) error {
		e.Uint32(uint32(v))
		return nil
	})
}

// MarshalUint32 appends a UINT32 to b.
func MarshalUint32(b *wirebuf.Buffer, order ByteOrder, v uint32) error {
	return marshal(b, order, func(e *encoder) error {
		e.Uint32(v)
		return nil
	})
}

// MarshalInt64 appends an INT64 to b.
func MarshalInt64(b *wirebuf.Buffer, order ByteOrder, v int64) error {
	return marshal(b, order, func(e *encoder) error {
		e.Uint64(uint64(v))
		return nil
	})
}

// MarshalUint64 appends a UINT64 to b.
func MarshalUint64(b *wirebuf.Buffer, order ByteOrder, v uint64) error {
	return marshal(b, order, func(e *encoder) error {
		e.Uint64(v)
		return nil
	})
}

// MarshalDouble appends a DOUBLE to b.
func MarshalDouble(b *wirebuf.Buffer, order ByteOrder, v float64) error {
	return marshal(b, order, func(e *encoder) error {
		e.Uint64(math.Float64bits(v))
		return nil
	})
}

// MarshalString appends a STRING to b. s must be valid UTF-8 and
// must not contain NUL bytes.
func MarshalString(b *wirebuf.Buffer, order ByteOrder, s string) error {
	return marshal(b, order, func(e *encoder) error {
		if err := checkString(s); err != nil {
			return err
		}
		e.String(s)
		return nil
	})
}

// MarshalObjectPath appends the OBJECT_PATH with the given components
// to b. No components marshals the root path "/".
func MarshalObjectPath(b *wirebuf.Buffer, order ByteOrder, components []string) error {
	return marshal(b, order, func(e *encoder) error {
		if err := checkComponents(components); err != nil {
			return typeErr(reflect.TypeFor[ObjectPath](), "%w", err)
		}
		for _, c := range components {
			if err := checkString(c); err != nil {
				return err
			}
		}
		e.Pad(4)
		if e.err != nil {
			return e.err
		}
		lenPos := e.Out.Len()
		e.Uint32(0)
		if len(components) == 0 {
			e.Uint8('/')
		}
		for _, c := range components {
			e.Uint8('/')
			e.Write([]byte(c))
		}
		e.Uint8(0)
		if e.err != nil {
			return e.err
		}
		SetUint32(e.Out, e.Order, lenPos, uint32(e.Out.Len()-lenPos-5))
		return nil
	})
}

// MarshalPath appends p to b as an OBJECT_PATH.
func MarshalPath(b *wirebuf.Buffer, order ByteOrder, p ObjectPath) error {
	return marshal(b, order, func(e *encoder) error {
		return e.path(p)
	})
}

func (e *encoder) path(p ObjectPath) error {
	if err := ValidatePath(string(p)); err != nil {
		return typeErr(reflect.TypeFor[ObjectPath](), "%w", err)
	}
	if err := checkString(string(p)); err != nil {
		return err
	}
	e.String(string(p))
	return nil
}

// MarshalCustom appends a CUSTOM value to b.
func MarshalCustom(b *wirebuf.Buffer, order ByteOrder, c Custom) error {
	return marshal(b, order, func(e *encoder) error {
		return e.custom(c)
	})
}

func (e *encoder) custom(c Custom) error {
	if err := checkString(c.Name); err != nil {
		return typeErr(reflect.TypeFor[Custom](), "invalid name: %w", err)
	}
	e.String(c.Name)
	e.Bytes(c.Data)
	return nil
}

// MarshalByteArray appends an array of BYTE to b.
func MarshalByteArray(b *wirebuf.Buffer, order ByteOrder, vs []byte) error {
	return marshal(b, order, func(e *encoder) error {
		e.Block(1, vs)
		return nil
	})
}

// MarshalBooleanArray appends an array of BOOLEAN to b.
func MarshalBooleanArray(b *wirebuf.Buffer, order ByteOrder, vs []bool) error {
	return marshal(b, order, func(e *encoder) error {
		e.Block(1, boolBytes(vs))
		return nil
	})
}

// MarshalInt32Array appends an array of INT32 to b.
func MarshalInt32Array(b *wirebuf.Buffer, order ByteOrder, vs []int32) error {
	return marshalBlock(b, order, vs)
}

// MarshalUint32Array appends an array of UINT32 to b.
func MarshalUint32Array(b *wirebuf.Buffer, order ByteOrder, vs []uint32) error {
	return marshalBlock(b, order, vs)
}

// MarshalInt64Array appends an array of INT64 to b.
func MarshalInt64Array(b *wirebuf.Buffer, order ByteOrder, vs []int64) error {
	return marshalBlock(b, order, vs)
}

// MarshalUint64Array appends an array of UINT64 to b.
func MarshalUint64Array(b *wirebuf.Buffer, order ByteOrder, vs []uint64) error {
	return marshalBlock(b, order, vs)
}

// MarshalDoubleArray appends an array of DOUBLE to b.
func MarshalDoubleArray(b *wirebuf.Buffer, order ByteOrder, vs []float64) error {
	return marshalBlock(b, order, vs)
}

// MarshalStringArray appends an array of STRING to b.
func MarshalStringArray(b *wirebuf.Buffer, order ByteOrder, vs []string) error {
	return marshal(b, order, func(e *encoder) error {
		for _, s := range vs {
			if err := checkString(s); err != nil {
				return err
			}
		}
		e.Array(4, func() {
			for _, s := range vs {
				e.String(s)
			}
		})
		return nil
	})
}

type blockElem interface {
	int32 | uint32 | int64 | uint64 | float64
}

func marshalBlock[T blockElem](b *wirebuf.Buffer, order ByteOrder, vs []T) error {
	var zero T
	size := int(unsafe.Sizeof(zero))
	return marshal(b, order, func(e *encoder) error {
		e.Block(size, blockBytes(vs))
		return nil
	})
}

// blockBytes returns the in-memory bytes of vs, in host byte order.
func blockBytes[T blockElem](vs []T) []byte {
	if len(vs) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(vs))), len(vs)*int(unsafe.Sizeof(zero)))
}

func boolBytes(vs []bool) []byte {
	ret := make([]byte, len(vs))
	for i, v := range vs {
		if v {
			ret[i] = 1
		}
	}
	return ret
}

// MarshalArray appends the slice or Go array vs to b as a DBus array.
// See [MarshalValue] for the permitted element types.
func MarshalArray(b *wirebuf.Buffer, order ByteOrder, vs any) error {
	return marshal(b, order, func(e *encoder) error {
		t := reflect.TypeOf(vs)
		if t == nil || (t.Kind() != reflect.Slice && t.Kind() != reflect.Array) {
			return typeErr(t, "not a slice or array")
		}
		return e.value(0, vs)
	})
}

// MarshalDict appends d to b as a DICT.
func MarshalDict(b *wirebuf.Buffer, order ByteOrder, d *Dict) error {
	return marshal(b, order, func(e *encoder) error {
		return e.dict(0, d)
	})
}

func (e *encoder) dict(depth int, d *Dict) error {
	if depth+1 > MaxDepth {
		return typeErr(reflect.TypeFor[*Dict](), "%w", ErrTooDeep)
	}
	var err error
	e.Array(1, func() {
		for k, v := range d.All() {
			if err = checkString(k); err != nil {
				return
			}
			e.String(k)
			if err = e.tagged(depth+1, v); err != nil {
				err = fmt.Errorf("dict entry %q: %w", k, err)
				return
			}
		}
	})
	return err
}

// MarshalValue appends v to b, choosing the DBus type from v's Go
// type:
//
// nil marshals as NIL, which has no encoding. uint8, bool, int32,
// uint32, int64, uint64, float64 and string values, and named types
// with those underlying types, marshal to the corresponding DBus
// basic type.
//
// [ObjectPath] values marshal as OBJECT_PATH, [Custom] values as
// CUSTOM, and *[Dict] values as DICT. A nil *Dict marshals as an
// empty DICT.
//
// Slices and Go arrays marshal as DBus arrays of their element type.
// Nil slices encode the same as an empty slice. The element type must
// itself be representable, and cannot be an interface.
//
// Other types cannot be marshaled, and cause MarshalValue to return a
// [TypeError]. Values nesting arrays and dictionaries more than
// [MaxDepth] deep return an error wrapping [ErrTooDeep].
func MarshalValue(b *wirebuf.Buffer, order ByteOrder, v any) error {
	return marshal(b, order, func(e *encoder) error {
		return e.value(0, v)
	})
}

// MarshalTagged appends the inline type tags of v to b, followed by
// v itself. This is the encoding of dictionary values.
func MarshalTagged(b *wirebuf.Buffer, order ByteOrder, v any) error {
	return marshal(b, order, func(e *encoder) error {
		return e.tagged(0, v)
	})
}

func (e *encoder) tagged(depth int, v any) error {
	sig, err := SignatureOf(v)
	if err != nil {
		return err
	}
	e.Write([]byte(sig.String()))
	return e.value(depth, v)
}

func (e *encoder) value(depth int, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	enc, err := encoderFor(rv.Type())
	if err != nil {
		return err
	}
	return enc(e, depth, rv)
}

// An encoderFunc writes v to e. depth is the number of containers
// enclosing v.
type encoderFunc func(e *encoder, depth int, v reflect.Value) error

type encoderResult struct {
	fn  encoderFunc
	err error
}

var encoders = xsync.NewMap[reflect.Type, encoderResult]()

func encoderFor(t reflect.Type) (encoderFunc, error) {
	if ret, ok := encoders.Load(t); ok {
		return ret.fn, ret.err
	}
	sig, err := signatureFor(t)
	var fn encoderFunc
	if err == nil {
		fn = newTypeEncoder(t, sig.String())
	}
	encoders.Store(t, encoderResult{fn, err})
	return fn, err
}

func newTypeEncoder(t reflect.Type, sig string) encoderFunc {
	debugMarshal("newTypeEncoder(%s) = %s", t, sig)
	switch Type(sig[0]) {
	case TypeByte:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Uint8(uint8(v.Uint()))
			return nil
		}
	case TypeBoolean:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Bool(v.Bool())
			return nil
		}
	case TypeInt32:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Uint32(uint32(v.Int()))
			return nil
		}
	case TypeUint32:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Uint32(uint32(v.Uint()))
			return nil
		}
	case TypeInt64:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Uint64(uint64(v.Int()))
			return nil
		}
	case TypeUint64:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Uint64(v.Uint())
			return nil
		}
	case TypeDouble:
		return func(e *encoder, _ int, v reflect.Value) error {
			e.Uint64(math.Float64bits(v.Float()))
			return nil
		}
	case TypeString:
		return func(e *encoder, _ int, v reflect.Value) error {
			s := v.String()
			if err := checkString(s); err != nil {
				return err
			}
			e.String(s)
			return nil
		}
	case TypeObjectPath:
		return func(e *encoder, _ int, v reflect.Value) error {
			return e.path(ObjectPath(v.String()))
		}
	case TypeCustom:
		return func(e *encoder, _ int, v reflect.Value) error {
			return e.custom(v.Interface().(Custom))
		}
	case TypeDict:
		return func(e *encoder, depth int, v reflect.Value) error {
			return e.dict(depth, v.Interface().(*Dict))
		}
	case TypeArray:
		return newArrayEncoder(t, sig)
	}
	panic(fmt.Sprintf("no encoder for signature %q of %s", sig, t))
}

func newArrayEncoder(t reflect.Type, sig string) encoderFunc {
	levels := containerDepth(sig)
	tooDeep := func(depth int) error {
		if depth+levels > MaxDepth {
			return typeErr(t, "%w", ErrTooDeep)
		}
		return nil
	}

	if t.Kind() == reflect.Slice {
		switch t.Elem() {
		case reflect.TypeFor[uint8]():
			return func(e *encoder, depth int, v reflect.Value) error {
				if err := tooDeep(depth); err != nil {
					return err
				}
				e.Block(1, v.Bytes())
				return nil
			}
		case reflect.TypeFor[bool]():
			return func(e *encoder, depth int, v reflect.Value) error {
				if err := tooDeep(depth); err != nil {
					return err
				}
				bs := make([]byte, v.Len())
				for i := range bs {
					if v.Index(i).Bool() {
						bs[i] = 1
					}
				}
				e.Block(1, bs)
				return nil
			}
		case reflect.TypeFor[int32](), reflect.TypeFor[uint32](), reflect.TypeFor[int64](), reflect.TypeFor[uint64](), reflect.TypeFor[float64]():
			size := int(t.Elem().Size())
			return func(e *encoder, depth int, v reflect.Value) error {
				if err := tooDeep(depth); err != nil {
					return err
				}
				if v.Len() == 0 {
					e.Block(size, nil)
					return nil
				}
				e.Block(size, unsafe.Slice((*byte)(v.UnsafePointer()), v.Len()*size))
				return nil
			}
		}
	}

	elemEnc, _ := encoderFor(t.Elem())
	elemAlign := Type(sig[1]).Alignment()
	return func(e *encoder, depth int, v reflect.Value) error {
		if err := tooDeep(depth); err != nil {
			return err
		}
		var err error
		e.Array(elemAlign, func() {
			for i := range v.Len() {
				if err = elemEnc(e, depth+1, v.Index(i)); err != nil {
					return
				}
			}
		})
		return err
	}
}
