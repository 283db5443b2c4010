// Package faultalloc provides wirebuf.Allocators for tests, which fail
// on demand or check that callers respect allocation bounds.
package faultalloc

import (
	"fmt"
	"sync"

	"github.com/danderson/dbuswire/wirebuf"
)

// Failing is an Allocator that fails some allocations.
//
// The zero Failing never fails.
type Failing struct {
	mu sync.Mutex
	// After is the number of allocations to allow before failing. If
	// zero, After has no effect.
	After int
	// Every, if nonzero, fails every Every'th allocation.
	Every int

	calls  int
	failed int
}

var _ wirebuf.Allocator = (*Failing)(nil)

// FailAfter returns an Allocator that allows n allocations, then fails
// all later ones.
func FailAfter(n int) *Failing {
	return &Failing{After: n + 1}
}

// FailEvery returns an Allocator that fails every n'th allocation.
func FailEvery(n int) *Failing {
	if n <= 0 {
		panic(fmt.Sprintf("faultalloc: invalid failure interval %d", n))
	}
	return &Failing{Every: n}
}

func (f *Failing) Alloc(n int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if (f.After > 0 && f.calls >= f.After) || (f.Every > 0 && f.calls%f.Every == 0) {
		f.failed++
		return nil
	}
	return make([]byte, n)
}

// Calls returns the number of allocations attempted so far.
func (f *Failing) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Failed returns the number of allocations that failed.
func (f *Failing) Failed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

// Reset clears the call history, so that f fails on the same schedule
// as when it was new.
func (f *Failing) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = 0
	f.failed = 0
}

const canaryByte = 0xca

// Canary is an Allocator that places guard bytes after each
// allocation, so that tests can detect writes past the end of a
// Buffer's storage. The guard bytes lie within the capacity of the
// returned slices, so that a stray append or reslice by the Buffer
// lands on them.
type Canary struct {
	// Guard is the number of guard bytes per allocation. If zero, 8
	// is used.
	Guard int

	mu     sync.Mutex
	allocs [][]byte
}

var _ wirebuf.Allocator = (*Canary)(nil)

func (c *Canary) guard() int {
	if c.Guard <= 0 {
		return 8
	}
	return c.Guard
}

func (c *Canary) Alloc(n int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.guard()
	full := make([]byte, n+g)
	for i := n; i < len(full); i++ {
		full[i] = canaryByte
	}
	c.allocs = append(c.allocs, full)
	return full[:n]
}

// Check returns an error describing the first allocation whose guard
// bytes were overwritten, or nil if all guards are intact.
func (c *Canary) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.guard()
	for i, full := range c.allocs {
		n := len(full) - g
		for j := n; j < len(full); j++ {
			if full[j] != canaryByte {
				return fmt.Errorf("allocation %d (%d bytes): guard byte %d overwritten with 0x%02x", i, n, j-n, full[j])
			}
		}
	}
	return nil
}

// Allocs returns the number of allocations made so far.
func (c *Canary) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.allocs)
}
