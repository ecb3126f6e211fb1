// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package conserve implements the conservation invariant: a buffer is
// conserved when the sum of its bytes is 0 mod 96.
//
// Conservation is a checksum invariant, not a cryptographic property.
// It exists to catch accidental corruption cheaply (O(1) incremental
// update, O(n) full recompute) before the more expensive witness
// verification in lib/witness is invoked.
//
// [Checksum], [IsConserved], and [Deficit] are read-only probes.
// [ApplyFixup] repairs a buffer by adjusting its last byte; [Repair]
// iterates fixup to a guarantee. [ConservingCopy] and [ConservingFill]
// are the mutation primitives every substrate component uses instead
// of bare copy/fill. [Counter] keeps a shared counter at 0 mod 96
// under concurrent updates with a single compare-and-swap per update.
//
// Depends only on lib/residue.
package conserve
