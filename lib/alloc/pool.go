// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package alloc

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoolExhausted is returned by Pool.Alloc when the requested size
// exceeds the pool's remaining capacity. The pool is unchanged.
var ErrPoolExhausted = errors.New("alloc: pool capacity exhausted")

// Pool is a non-freeing bump allocator layered over AllocatePages for
// workloads that never release individual allocations. Allocations
// are carved linearly from a single page region and returned all at
// once when the pool is closed.
//
// Pool methods are safe for concurrent use.
type Pool struct {
	mu     sync.Mutex
	region []byte
	offset int
	owner  *Allocator
	closed bool
}

// NewPool creates a bump pool backed by the given number of pages.
func NewPool(owner *Allocator, pages int) (*Pool, error) {
	region := owner.AllocatePages(pages)
	if region == nil {
		return nil, fmt.Errorf("alloc: mapping %d pool pages failed", pages)
	}
	return &Pool{region: region, owner: owner}, nil
}

// Alloc carves size bytes from the pool, aligned to MinAlignment.
// Returns ErrPoolExhausted (with the pool unchanged) when the request
// does not fit in the remaining capacity.
func (p *Pool) Alloc(size uint64) ([]byte, error) {
	if size == 0 {
		panic("alloc: Pool.Alloc requires a non-zero size")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		panic("alloc: Pool.Alloc on a closed pool")
	}

	// Bounds arithmetic stays in uint64 so an absurd size cannot
	// overflow into a passing check.
	start := roundUp(uint64(p.offset), MinAlignment)
	capacity := uint64(len(p.region))
	if start > capacity || size > capacity-start {
		return nil, ErrPoolExhausted
	}
	end := start + size
	p.offset = int(end)
	return p.region[start:end:end], nil
}

// Remaining returns the bytes still available, before alignment of
// the next allocation.
func (p *Pool) Remaining() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	return uint64(len(p.region) - p.offset)
}

// Close releases the backing region. All slices handed out by Alloc
// become invalid. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.owner.Free(p.region)
	p.region = nil
}
