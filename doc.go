// Package dbuswire implements the DBus wire format: marshaling Go
// values into a [wirebuf.Buffer], validating untrusted wire data, and
// demarshaling validated data back into Go values.
//
// Values are located by explicit byte offsets into a Buffer, and
// every value sits at an offset aligned for its type, relative to the
// start of the Buffer. Marshal functions append at the end of the
// Buffer, and either append a complete value or leave the Buffer
// unchanged.
//
// Data received from a peer must pass [ValidateBody] or [ValidateArg]
// before being demarshaled. The Demarshal functions trust their input,
// and may panic on malformed data.
//
// The type system has the basic types BYTE, BOOLEAN, INT32, UINT32,
// INT64, UINT64, DOUBLE, STRING and OBJECT_PATH, the NIL type which
// has no encoding, opaque CUSTOM values, arrays of any non-NIL type,
// and DICT, a collection of named values that each carry their own
// type tags on the wire. See [MarshalValue] for how these map to Go
// types.
package dbuswire
