// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package alloc

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/resonance-foundation/substrate/lib/residue"
	"github.com/resonance-foundation/substrate/lib/witness"
)

// MinAlignment is the smallest payload alignment the Allocator
// honors. Requests below it are normalized up.
const MinAlignment = 64

// allocation is the Go-side record for one live block. The side table
// maps the first payload byte to its record, which is the only way a
// payload slice can be traced back to its block; raw offsets never
// leave this package.
type allocation struct {
	// block is the whole mmap region, header prefix included for
	// headered allocations.
	block []byte

	// headered is false for page allocations, whose blocks carry the
	// pre-conserved fill pattern instead of a serialized header.
	headered bool

	header header
}

// Allocator acquires raw storage via anonymous mmap, prepends
// allocation headers, generates a witness for every block, and tracks
// allocated/peak/witness counters.
//
// Operations on different payloads may run concurrently; the side
// table has its own lock and the counters are atomic.
type Allocator struct {
	generator *witness.Generator

	mu          sync.Mutex
	allocations map[*byte]*allocation

	allocated    atomic.Uint64
	peak         atomic.Uint64
	witnessCount atomic.Uint64
}

// New returns an Allocator whose witnesses are produced by generator.
func New(generator *witness.Generator) *Allocator {
	if generator == nil {
		panic("alloc: New requires a witness generator")
	}
	return &Allocator{
		generator:   generator,
		allocations: make(map[*byte]*allocation),
	}
}

// Stats is a read-only snapshot of the allocator counters. The three
// fields are read with independent atomic loads, so a snapshot may be
// torn across fields, but each field is itself consistent.
type Stats struct {
	// Allocated is the total bytes currently mapped.
	Allocated uint64

	// Peak is the historical maximum of Allocated.
	Peak uint64

	// Witnesses is the count of live allocation witnesses.
	Witnesses uint64
}

// Allocate returns a payload of the given size whose block carries an
// allocation header, a residue tag, and a witness over the entire
// block (header included). The payload is aligned to at least
// MinAlignment; larger power-of-two alignments up to the page size are
// honored by placing the payload at that offset into the page-aligned
// block. Alignments beyond the page size cannot be satisfied by a
// page-aligned mapping and panic.
//
// Returns nil only when the underlying mmap fails. A non-nil return is
// always fully initialized: header written, witness generated,
// counters updated.
func (a *Allocator) Allocate(size uint64, tag residue.Class, minAlignment uint64) []byte {
	if size == 0 {
		panic("alloc: Allocate requires a non-zero size")
	}
	alignment := normalizeAlignment(minAlignment)
	payloadOffset := alignment
	if payloadOffset < headerSize {
		payloadOffset = headerSize
	}
	total := payloadOffset + roundUp(size, alignment)

	block, err := unix.Mmap(-1, 0, int(total),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil
	}

	record := &allocation{
		block:    block,
		headered: true,
		header: header{
			Requested:  size,
			Total:      uint64(len(block)),
			ResidueTag: tag,
			Magic:      headerMagic,
		},
	}
	writeHeader(block, &record.header)
	record.header.Witness = a.generator.Generate(block)

	payload := block[payloadOffset : payloadOffset+size]
	a.track(&payload[0], record)
	return payload
}

// Free releases the block owning payload. A nil or empty payload is a
// no-op. Panics when payload is not the start of a live allocation, or
// when the block's header magic no longer matches the sentinel:
// either means heap corruption or a non-owned pointer, which is not
// recoverable. The block's witness is destroyed and the counters are
// decremented before the memory is unmapped.
func (a *Allocator) Free(payload []byte) {
	if len(payload) == 0 {
		return
	}

	a.mu.Lock()
	key := &payload[0]
	record, ok := a.allocations[key]
	if !ok {
		a.mu.Unlock()
		panic("alloc: Free of a pointer the allocator does not own")
	}
	delete(a.allocations, key)
	a.mu.Unlock()

	if record.headered && readMagic(record.block) != headerMagic {
		panic("alloc: allocation header magic mismatch (heap corruption)")
	}

	if record.header.Witness != nil {
		witness.Destroy(record.header.Witness)
		a.witnessCount.Add(^uint64(0))
	}
	a.allocated.Add(^(uint64(len(record.block)) - 1))

	// Unmap failure after the bookkeeping is torn down means the
	// kernel rejected an address range we mapped ourselves; there is
	// no coherent state to continue from.
	if err := unix.Munmap(record.block); err != nil {
		panic("alloc: munmap failed: " + err.Error())
	}
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Allocated: a.allocated.Load(),
		Peak:      a.peak.Load(),
		Witnesses: a.witnessCount.Load(),
	}
}

// Live returns the number of live allocations. Intended for tests and
// diagnostics.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.allocations)
}

// track registers a new block in the side table and advances the
// counters, including the peak high-water mark.
func (a *Allocator) track(key *byte, record *allocation) {
	a.mu.Lock()
	a.allocations[key] = record
	a.mu.Unlock()

	if record.header.Witness != nil {
		a.witnessCount.Add(1)
	}
	current := a.allocated.Add(uint64(len(record.block)))
	for {
		peak := a.peak.Load()
		if current <= peak || a.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}

// corruptHeaderForTest flips a bit of the serialized header magic of
// the block owning payload. Exists so tests can exercise the fatal
// corruption path without reaching into the side table.
func (a *Allocator) corruptHeaderForTest(payload []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.allocations[&payload[0]]
	if !ok {
		panic("alloc: corruptHeaderForTest on unknown payload")
	}
	record.block[offsetMagic] ^= 0x01
}

// normalizeAlignment rounds requested up to the next power of two no
// smaller than MinAlignment. Requests beyond the page size panic: the
// mapping base is only page-aligned, so a fixed payload offset cannot
// deliver a coarser alignment. The page-size bound also keeps the
// doubling loop finite.
func normalizeAlignment(requested uint64) uint64 {
	if requested > uint64(PageSize()) {
		panic("alloc: alignment beyond the page size is not supported")
	}
	alignment := uint64(MinAlignment)
	for alignment < requested {
		alignment <<= 1
	}
	return alignment
}

// roundUp rounds value up to the next multiple of alignment.
// alignment must be a power of two.
func roundUp(value, alignment uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}
