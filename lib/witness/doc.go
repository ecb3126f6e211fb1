// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package witness implements cryptographic commitments over buffers:
// generation, constant-time verification, destruction with zeroing,
// provenance chaining, and merge records.
//
// A [Witness] binds a buffer's SHA-256 digest, a timestamp from an
// injected clock, and the buffer's mod-96 residue class. [Verify]
// compares digests in constant time and never panics: an
// unverifiable witness is reported false, and the caller decides the
// consequence. [Chain] builds a singly linked provenance list with
// monotone sequence numbers; [Merge] folds N witnesses into one
// flagged commitment over their concatenated digests.
//
// [ChainDigest] and [RegionDigest] produce BLAKE3 keyed proof digests
// with fixed domain-separation keys, used by lib/proof when exporting
// a domain's audit history.
//
// Depends on lib/clock, lib/conserve, lib/residue, and
// github.com/zeebo/blake3.
package witness
