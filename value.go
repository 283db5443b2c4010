package dbuswire

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// Custom is an opaque application-defined value, identified by a
// type name.
type Custom struct {
	// Name identifies the kind of custom value, so that receivers
	// know how to interpret Data.
	Name string
	Data []byte
}

// Dict is an ordered collection of named values, marshaled as a DBus
// DICT. Each value carries its own type on the wire.
//
// The zero Dict is empty and ready to use.
type Dict struct {
	keys []string
	vals map[string]any
}

// NewDict returns a Dict holding the given name/value pairs, which
// must alternate between string names and values.
func NewDict(kvs ...any) *Dict {
	if len(kvs)%2 != 0 {
		panic("NewDict: odd number of arguments")
	}
	d := &Dict{}
	for i := 0; i < len(kvs); i += 2 {
		name, ok := kvs[i].(string)
		if !ok {
			panic(fmt.Sprintf("NewDict: key %d is %T, not string", i/2, kvs[i]))
		}
		d.Set(name, kvs[i+1])
	}
	return d
}

// Len returns the number of entries in d.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the names in d, in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// Get returns the value for name, and whether it was present.
func (d *Dict) Get(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.vals[name]
	return v, ok
}

// Contains reports whether d has a value for name.
func (d *Dict) Contains(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Set sets the value for name. If name is already present, its value
// is replaced without changing its position.
func (d *Dict) Set(name string, v any) {
	if d.vals == nil {
		d.vals = map[string]any{}
	}
	if _, ok := d.vals[name]; !ok {
		d.keys = append(d.keys, name)
	}
	d.vals[name] = v
}

// Remove deletes name from d, and reports whether it was present.
func (d *Dict) Remove(name string) bool {
	if !d.Contains(name) {
		return false
	}
	delete(d.vals, name)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == name })
	return true
}

// ValueType returns the signature of the value for name. It reports
// false if name is not present, or if its value has no DBus
// representation.
func (d *Dict) ValueType(name string) (Signature, bool) {
	v, ok := d.Get(name)
	if !ok {
		return Signature{}, false
	}
	sig, err := SignatureOf(v)
	if err != nil {
		return Signature{}, false
	}
	return sig, true
}

// All iterates over the entries of d in insertion order.
func (d *Dict) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if d == nil {
			return
		}
		for _, k := range d.keys {
			if !yield(k, d.vals[k]) {
				return
			}
		}
	}
}

// Equal reports whether d and o hold equal values under the same
// names, in the same order.
func (d *Dict) Equal(o *Dict) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i, k := range d.Keys() {
		if o.keys[i] != k || !reflect.DeepEqual(d.vals[k], o.vals[k]) {
			return false
		}
	}
	return true
}

func (d *Dict) String() string {
	if d == nil {
		return "Dict{}"
	}
	var ret []byte
	ret = append(ret, "Dict{"...)
	for i, k := range d.keys {
		if i > 0 {
			ret = append(ret, ", "...)
		}
		ret = fmt.Appendf(ret, "%q: %#v", k, d.vals[k])
	}
	ret = append(ret, '}')
	return string(ret)
}
