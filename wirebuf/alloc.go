package wirebuf

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var (
	// ErrNoMemory is returned when a Buffer's Allocator cannot provide
	// the storage needed to complete an operation.
	ErrNoMemory = errors.New("wirebuf: out of memory")
	// ErrTooLong is returned when an operation would grow a Buffer
	// beyond its maximum length.
	ErrTooLong = errors.New("wirebuf: maximum length exceeded")
)

// An Allocator provides backing storage for Buffers.
type Allocator interface {
	// Alloc returns a zeroed slice of exactly n bytes, or nil if the
	// memory cannot be provided.
	Alloc(n int) []byte
}

type heapAllocator struct{}

func (heapAllocator) Alloc(n int) []byte { return make([]byte, n) }

// DefaultAllocator allocates from the Go heap, and never fails.
var DefaultAllocator Allocator = heapAllocator{}

// Align rounds n up to the next multiple of boundary, which must be a
// power of two.
func Align[T constraints.Integer](n, boundary T) T {
	return (n + boundary - 1) &^ (boundary - 1)
}
