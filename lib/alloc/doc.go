// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package alloc implements the substrate allocator: aligned blocks
// acquired via anonymous mmap, each carrying a 64-byte allocation
// header (sizes, residue tag, integrity magic) and a witness generated
// over the entire block at allocation time.
//
// The block memory lives outside the Go heap, so the garbage collector
// never moves it and payload addresses are stable for the side table
// that maps payloads back to their blocks. Raw block offsets never
// leave this package; callers hold only payload slices.
//
// [Allocator.Free] validates the header magic and panics on mismatch:
// a corrupted header means heap corruption or a foreign pointer, which
// is fatal by contract. [Allocator.AllocatePages] produces
// page-granular regions pre-filled with the conserved i-mod-96
// pattern. [Pool] is a non-freeing bump allocator over a page region.
//
// Depends on lib/conserve, lib/residue, lib/witness, and
// golang.org/x/sys/unix.
package alloc
