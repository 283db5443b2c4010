package dbuswire

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/cpu"
)

// A ByteOrder is the byte ordering of multi-byte values in a DBus
// message. Its value is the flag byte that announces the ordering in
// message headers.
type ByteOrder byte

const (
	LittleEndian ByteOrder = 'l'
	BigEndian    ByteOrder = 'B'
)

// NativeEndian is the byte order of the host.
var NativeEndian = func() ByteOrder {
	if cpu.IsBigEndian {
		return BigEndian
	}
	return LittleEndian
}()

// ParseByteOrder returns the ByteOrder announced by a header flag
// byte.
func ParseByteOrder(flag byte) (ByteOrder, error) {
	switch o := ByteOrder(flag); o {
	case LittleEndian, BigEndian:
		return o, nil
	default:
		return 0, fmt.Errorf("unknown byte order flag %q", flag)
	}
}

// Flag returns the header flag byte for o.
func (o ByteOrder) Flag() byte { return byte(o) }

// Valid reports whether o is LittleEndian or BigEndian.
func (o ByteOrder) Valid() bool {
	return o == LittleEndian || o == BigEndian
}

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	default:
		return fmt.Sprintf("ByteOrder(%q)", byte(o))
	}
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// std returns the encoding/binary implementation of o.
func (o ByteOrder) std() byteOrder {
	switch o {
	case LittleEndian:
		return binary.LittleEndian
	case BigEndian:
		return binary.BigEndian
	default:
		panic(fmt.Sprintf("invalid %s", o))
	}
}

// native reports whether o is the host byte order, in which case
// multi-byte values need no swapping.
func (o ByteOrder) native() bool { return o == NativeEndian }
