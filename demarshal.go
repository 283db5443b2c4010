package dbuswire

import (
	"fmt"
	"math"
	"reflect"

	"github.com/danderson/dbuswire/wirebuf"
)

// The Demarshal functions read a value at pos, skipping any alignment
// padding before it, and return the value and the offset just past
// it.
//
// They trust their input and do no checking of their own. Data that
// has not passed [ValidateArg] or [ValidateBody] may produce garbage
// values or panic.

// DemarshalByte reads a BYTE.
func DemarshalByte(b *wirebuf.Buffer, order ByteOrder, pos int) (byte, int) {
	d := decoder{order, b, pos}
	return d.Uint8(), d.Pos
}

// DemarshalBoolean reads a BOOLEAN.
func DemarshalBoolean(b *wirebuf.Buffer, order ByteOrder, pos int) (bool, int) {
	d := decoder{order, b, pos}
	return d.Bool(), d.Pos
}

// DemarshalInt32 reads an INT32.
func DemarshalInt32(b *wirebuf.Buffer, order ByteOrder, pos int) (int32, int) {
	d := decoder{order, b, pos}
	return int32(d.Uint32()), d.Pos
}

// DemarshalUint32 reads a UINT32.
func DemarshalUint32(b *wirebuf.Buffer, order ByteOrder, pos int) (uint32, int) {
	d := decoder{order, b, pos}
	return d.Uint32(), d.Pos
}

// DemarshalInt64 reads an INT64.
func DemarshalInt64(b *wirebuf.Buffer, order ByteOrder, pos int) (int64, int) {
	d := decoder{order, b, pos}
	return int64(d.Uint64()), d.Pos
}

// DemarshalUint64 reads a UINT64.
func DemarshalUint64(b *wirebuf.Buffer, order ByteOrder, pos int) (uint64, int) {
	d := decoder{order, b, pos}
	return d.Uint64(), d.Pos
}

// DemarshalDouble reads a DOUBLE.
func DemarshalDouble(b *wirebuf.Buffer, order ByteOrder, pos int) (float64, int) {
	d := decoder{order, b, pos}
	return math.Float64frombits(d.Uint64()), d.Pos
}

// DemarshalString reads a STRING.
func DemarshalString(b *wirebuf.Buffer, order ByteOrder, pos int) (string, int) {
	d := decoder{order, b, pos}
	return d.String(), d.Pos
}

// DemarshalObjectPath reads an OBJECT_PATH.
func DemarshalObjectPath(b *wirebuf.Buffer, order ByteOrder, pos int) (ObjectPath, int) {
	d := decoder{order, b, pos}
	return ObjectPath(d.String()), d.Pos
}

// DemarshalPathComponents reads an OBJECT_PATH, and returns its
// components.
func DemarshalPathComponents(b *wirebuf.Buffer, order ByteOrder, pos int) ([]string, int) {
	p, end := DemarshalObjectPath(b, order, pos)
	return p.Components(), end
}

// DemarshalCustom reads a CUSTOM value. The returned Data does not
// alias b.
func DemarshalCustom(b *wirebuf.Buffer, order ByteOrder, pos int) (Custom, int) {
	d := decoder{order, b, pos}
	return d.custom(), d.Pos
}

func (d *decoder) custom() Custom {
	name := d.String()
	return Custom{name, d.Bytes()}
}

// DemarshalByteArray reads an array of BYTE. The returned slice does
// not alias b.
func DemarshalByteArray(b *wirebuf.Buffer, order ByteOrder, pos int) ([]byte, int) {
	d := decoder{order, b, pos}
	end := d.Array(1)
	ret := append([]byte{}, d.Read(end-d.Pos)...)
	return ret, d.Pos
}

// DemarshalBooleanArray reads an array of BOOLEAN.
func DemarshalBooleanArray(b *wirebuf.Buffer, order ByteOrder, pos int) ([]bool, int) {
	d := decoder{order, b, pos}
	end := d.Array(1)
	ret := make([]bool, 0, end-d.Pos)
	for d.Pos < end {
		ret = append(ret, d.Bool())
	}
	return ret, d.Pos
}

func demarshalFixedArray[T any](b *wirebuf.Buffer, order ByteOrder, pos, size int, get func(ByteOrder, []byte) T) ([]T, int) {
	d := decoder{order, b, pos}
	end := d.Array(size)
	ret := make([]T, 0, (end-d.Pos)/size)
	for d.Pos < end {
		ret = append(ret, get(order, d.Read(size)))
	}
	return ret, d.Pos
}

// DemarshalInt32Array reads an array of INT32.
func DemarshalInt32Array(b *wirebuf.Buffer, order ByteOrder, pos int) ([]int32, int) {
	return demarshalFixedArray(b, order, pos, 4, UnpackInt32)
}

// DemarshalUint32Array reads an array of UINT32.
func DemarshalUint32Array(b *wirebuf.Buffer, order ByteOrder, pos int) ([]uint32, int) {
	return demarshalFixedArray(b, order, pos, 4, UnpackUint32)
}

// DemarshalInt64Array reads an array of INT64.
func DemarshalInt64Array(b *wirebuf.Buffer, order ByteOrder, pos int) ([]int64, int) {
	return demarshalFixedArray(b, order, pos, 8, UnpackInt64)
}

// DemarshalUint64Array reads an array of UINT64.
func DemarshalUint64Array(b *wirebuf.Buffer, order ByteOrder, pos int) ([]uint64, int) {
	return demarshalFixedArray(b, order, pos, 8, UnpackUint64)
}

// DemarshalDoubleArray reads an array of DOUBLE.
func DemarshalDoubleArray(b *wirebuf.Buffer, order ByteOrder, pos int) ([]float64, int) {
	return demarshalFixedArray(b, order, pos, 8, UnpackFloat64)
}

// DemarshalStringArray reads an array of STRING.
func DemarshalStringArray(b *wirebuf.Buffer, order ByteOrder, pos int) ([]string, int) {
	d := decoder{order, b, pos}
	end := d.Array(4)
	var ret []string
	for d.Pos < end {
		ret = append(ret, d.String())
	}
	if ret == nil {
		ret = []string{}
	}
	return ret, d.Pos
}

// DemarshalDict reads a DICT. If the same name appears more than once,
// the last value wins.
func DemarshalDict(b *wirebuf.Buffer, order ByteOrder, pos int) (*Dict, int) {
	d := decoder{order, b, pos}
	return d.dict(), d.Pos
}

func (d *decoder) dict() *Dict {
	end := d.Array(1)
	ret := &Dict{}
	for d.Pos < end {
		name := d.String()
		ret.Set(name, d.value(d.Tags()))
	}
	return ret
}

// DemarshalValue reads a value of the complete type sig, and returns
// it as the Go type that [MarshalValue] maps to sig. Arrays demarshal
// to slices of the element's Go type, for example "aai" demarshals to
// [][]int32.
func DemarshalValue(b *wirebuf.Buffer, order ByteOrder, sig string, pos int) (any, int) {
	d := decoder{order, b, pos}
	return d.value(sig), d.Pos
}

// DemarshalTagged reads a value preceded by its inline type tags, as
// written by [MarshalTagged].
func DemarshalTagged(b *wirebuf.Buffer, order ByteOrder, pos int) (any, int) {
	d := decoder{order, b, pos}
	return d.value(d.Tags()), d.Pos
}

func (d *decoder) value(sig string) any {
	switch Type(sig[0]) {
	case TypeNil:
		return nil
	case TypeByte:
		return d.Uint8()
	case TypeBoolean:
		return d.Bool()
	case TypeInt32:
		return int32(d.Uint32())
	case TypeUint32:
		return d.Uint32()
	case TypeInt64:
		return int64(d.Uint64())
	case TypeUint64:
		return d.Uint64()
	case TypeDouble:
		return math.Float64frombits(d.Uint64())
	case TypeString:
		return d.String()
	case TypeObjectPath:
		return ObjectPath(d.String())
	case TypeCustom:
		return d.custom()
	case TypeDict:
		return d.dict()
	case TypeArray:
		return d.array(sig)
	}
	panic(fmt.Sprintf("demarshal of unknown type %q", sig))
}

func (d *decoder) array(sig string) any {
	var ret any
	switch sig[1:] {
	case "y":
		ret, d.Pos = DemarshalByteArray(d.In, d.Order, d.Pos)
	case "b":
		ret, d.Pos = DemarshalBooleanArray(d.In, d.Order, d.Pos)
	case "i":
		ret, d.Pos = DemarshalInt32Array(d.In, d.Order, d.Pos)
	case "u":
		ret, d.Pos = DemarshalUint32Array(d.In, d.Order, d.Pos)
	case "x":
		ret, d.Pos = DemarshalInt64Array(d.In, d.Order, d.Pos)
	case "t":
		ret, d.Pos = DemarshalUint64Array(d.In, d.Order, d.Pos)
	case "d":
		ret, d.Pos = DemarshalDoubleArray(d.In, d.Order, d.Pos)
	case "s":
		ret, d.Pos = DemarshalStringArray(d.In, d.Order, d.Pos)
	default:
		elem := sig[1:]
		end := d.Array(Type(elem[0]).Alignment())
		vs := reflect.MakeSlice(reflectTypeFor(sig), 0, 0)
		for d.Pos < end {
			vs = reflect.Append(vs, reflect.ValueOf(d.value(elem)))
		}
		ret = vs.Interface()
	}
	return ret
}

// ArgEnd returns the offset just past the value of the complete type
// sig at pos, without decoding it.
func ArgEnd(b *wirebuf.Buffer, order ByteOrder, sig string, pos int) int {
	d := decoder{order, b, pos}
	d.skip(sig)
	return d.Pos
}

func (d *decoder) skip(sig string) {
	switch t := Type(sig[0]); t {
	case TypeNil:
	case TypeByte, TypeBoolean:
		d.Pos++
	case TypeInt32, TypeUint32, TypeInt64, TypeUint64, TypeDouble:
		d.Pad(t.Alignment())
		d.Pos += t.Alignment()
	case TypeString, TypeObjectPath:
		ln := int(d.Uint32())
		d.Pos += ln + 1
	case TypeCustom:
		d.skip("s")
		ln := int(d.Uint32())
		d.Pos += ln
	case TypeArray:
		d.Pos = d.Array(Type(sig[1]).Alignment())
	case TypeDict:
		d.Pos = d.Array(1)
	default:
		panic(fmt.Sprintf("skip of unknown type %q", sig))
	}
}
