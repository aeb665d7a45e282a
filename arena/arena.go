// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package arena provides a fixed-size byte region that is sized once at
// process start and carved into buffers by the components that need them.
//
// Drivers receive an *Arena rather than allocating their transfer buffers on
// every transaction, so the memory a process uses for bus traffic is known up
// front.
package arena

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExhausted is returned when an allocation does not fit in the remaining
// space.
var ErrExhausted = errors.New("arena: exhausted")

// Arena hands out non-overlapping slices of a single backing array. Memory is
// never returned to it.
type Arena struct {
	mu  sync.Mutex
	buf []byte
	off int
}

// New returns an Arena of size bytes.
func New(size int) *Arena {
	if size < 0 {
		size = 0
	}
	return &Arena{buf: make([]byte, size)}
}

// Alloc returns n zeroed bytes. The returned slice has a capacity of n so an
// append cannot spill into the next allocation.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("arena: invalid size %d", n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n > len(a.buf)-a.off {
		return nil, fmt.Errorf("%w: need %d bytes, %d free", ErrExhausted, n, len(a.buf)-a.off)
	}
	b := a.buf[a.off : a.off+n : a.off+n]
	a.off += n
	return b, nil
}

// Free returns the number of bytes left.
func (a *Arena) Free() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf) - a.off
}

// Size returns the total size of the arena.
func (a *Arena) Size() int {
	return len(a.buf)
}

func (a *Arena) String() string {
	return fmt.Sprintf("arena(%d/%d)", a.Size()-a.Free(), a.Size())
}
