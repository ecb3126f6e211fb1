// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package alloc

import (
	"golang.org/x/sys/unix"

	"github.com/resonance-foundation/substrate/lib/conserve"
	"github.com/resonance-foundation/substrate/lib/residue"
)

// PageSize returns the system page size. Page allocations are sized
// and aligned at this granularity.
func PageSize() int {
	return unix.Getpagesize()
}

// AllocatePages maps count pages at page-granularity alignment and
// fills each page with the canonical repeating i-mod-96 pattern, so a
// fresh page region passes conserve.IsConserved by construction. For
// the common 4096-byte page the pattern sums to 0 mod 96 on its own;
// for other page sizes the tail byte of each page is repaired, which
// keeps the per-page invariant without disturbing the pattern
// elsewhere. Returns nil only when the underlying mmap fails.
//
// Page regions carry no serialized header; the whole block is
// pattern. They are released through Free like any other allocation.
func (a *Allocator) AllocatePages(count int) []byte {
	if count <= 0 {
		panic("alloc: AllocatePages requires a positive page count")
	}
	pageSize := PageSize()
	total := count * pageSize

	block, err := unix.Mmap(-1, 0, total,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil
	}

	for pageStart := 0; pageStart < total; pageStart += pageSize {
		page := block[pageStart : pageStart+pageSize]
		for i := range page {
			page[i] = byte(i % residue.Modulus)
		}
		conserve.Repair(page)
	}

	record := &allocation{
		block:    block,
		headered: false,
		header: header{
			Requested: uint64(total),
			Total:     uint64(total),
			Magic:     headerMagic,
		},
	}
	record.header.Witness = a.generator.Generate(block)

	a.track(&block[0], record)
	return block
}
