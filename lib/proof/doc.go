// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package proof exports domain witness chains as portable audit
// bundles.
//
// A [Bundle] carries a chain's links origin-first plus the BLAKE3
// chain-domain digest binding them; it serializes to deterministic
// CBOR via lib/codec. [Pack] frames an encoded bundle with a
// compression tag (none, lz4, or zstd, falling back to none when the
// data does not shrink). A packed bundle can be [Seal]ed to age
// recipients for operator escrow, or encrypted in place with
// [EncryptLocal] (XChaCha20-Poly1305 under an HKDF-derived key) for
// same-machine audit stores.
//
// The substrate core keeps no persistent state; this package is the
// wire format consumed by the collaborators that do.
package proof
