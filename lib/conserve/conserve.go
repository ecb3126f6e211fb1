// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package conserve

import (
	"github.com/resonance-foundation/substrate/lib/residue"
)

// Checksum returns the byte-sum residue of buf: the sum of all byte
// values mod 96. O(len(buf)), read-only. The empty buffer sums to the
// conserved class.
func Checksum(buf []byte) residue.Class {
	var sum uint64
	for _, b := range buf {
		sum += uint64(b)
	}
	return residue.Class(sum % residue.Modulus)
}

// IsConserved reports whether buf satisfies the conservation
// invariant: Checksum(buf) == 0. Empty buffers are conserved.
func IsConserved(buf []byte) bool {
	return Checksum(buf) == 0
}

// Deficit returns the amount that must be added to buf's byte sum to
// make it conserved: (96 - Checksum(buf)) mod 96. Zero when buf is
// already conserved or empty.
func Deficit(buf []byte) residue.Class {
	return Checksum(buf).Complement()
}

// ApplyFixup repairs buf's conservation invariant by adding the
// deficit to the last byte, wrapping modulo 256. Single-byte buffers
// are assigned their conserved value directly. Empty buffers are a
// no-op. Returns whether any byte changed.
//
// A single application can fail to conserve when the last byte wraps
// (256 is not a multiple of 96). Callers that need a guarantee use
// [Repair], which iterates; a second application never wraps because
// the wrapped byte is always below 95.
func ApplyFixup(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	deficit := Deficit(buf)
	if deficit == 0 {
		return false
	}
	if len(buf) == 1 {
		// (old + deficit) mod 96 == 0 by construction, so the
		// conserved single-byte value is always zero.
		changed := buf[0] != 0
		buf[0] = 0
		return changed
	}
	last := len(buf) - 1
	buf[last] += byte(deficit)
	return true
}

// maxRepairPasses bounds the fixup loop in Repair. Two passes always
// suffice (a wrapped last byte is at most 94, and 94+95 < 256, so the
// second add cannot wrap); the third pass exists only so a logic error
// faults instead of spinning.
const maxRepairPasses = 3

// Repair applies fixup until buf is conserved. Panics if conservation
// cannot be restored within the pass bound; that is a logic error in
// this package, not a caller condition. Empty buffers are a no-op.
func Repair(buf []byte) {
	for pass := 0; pass < maxRepairPasses; pass++ {
		if IsConserved(buf) {
			return
		}
		ApplyFixup(buf)
	}
	if !IsConserved(buf) {
		panic("conserve: fixup failed to restore conservation")
	}
}

// ConservingCopy copies src into the front of dst and guarantees dst
// is conserved afterward. src must already be conserved and dst must
// be at least as long as src; violations panic (they indicate a logic
// error in the caller, not a transient condition).
//
// When dst is longer than src, the trailing bytes keep their prior
// content, which generally breaks conservation of the whole of dst;
// the deficit is repaired via fixup on the last byte.
func ConservingCopy(dst, src []byte) {
	if !IsConserved(src) {
		panic("conserve: ConservingCopy source is not conserved")
	}
	if len(dst) < len(src) {
		panic("conserve: ConservingCopy destination shorter than source")
	}
	copy(dst, src)
	Repair(dst)
}

// ConservingFill fills dst with value and repairs the conservation
// invariant, so the final buffer always satisfies IsConserved.
func ConservingFill(dst []byte, value byte) {
	for i := range dst {
		dst[i] = value
	}
	Repair(dst)
}
