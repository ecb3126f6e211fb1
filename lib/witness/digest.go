// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package witness

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// ProofDigest is a 32-byte BLAKE3 keyed digest binding witnesses into
// an exported proof bundle. Proof digests live in a separate hash
// domain from witness content digests (which are SHA-256), so the two
// can never be confused or substituted for one another.
type ProofDigest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures the same input bytes produce different digests in
// different contexts.
type domainKey [32]byte

// Domain separation keys. Fixed constants; changing them invalidates
// every previously exported proof bundle in that domain. The byte
// values are the ASCII encoding of the domain name, zero-padded to 32
// bytes, so the keys are inspectable in hex dumps.
var (
	chainDomainKey = domainKey{
		's', 'u', 'b', 's', 't', 'r', 'a', 't', 'e', '.', 'w', 'i', 't', 'n', 'e', 's',
		's', '.', 'c', 'h', 'a', 'i', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	regionDomainKey = domainKey{
		's', 'u', 'b', 's', 't', 'r', 'a', 't', 'e', '.', 'w', 'i', 't', 'n', 'e', 's',
		's', '.', 'r', 'e', 'g', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// ChainDigest computes the chain-domain proof digest of a witness
// chain: each link's digest, timestamp, and residue fed oldest-first
// into a BLAKE3 keyed hasher. Two chains with the same witnesses in a
// different order produce different proof digests. Panics on a nil
// head; digesting an empty chain is a programmer error.
func ChainDigest(head *ChainNode) ProofDigest {
	if head == nil {
		panic("witness: ChainDigest requires a chain")
	}

	// Collect links head-to-origin, then feed them origin-first so
	// the digest is stable under chain growth prefixes.
	var links []*ChainNode
	for node := head; node != nil; node = node.Previous {
		links = append(links, node)
	}

	hasher := newKeyedHasher(chainDomainKey)
	var scratch [9]byte
	for i := len(links) - 1; i >= 0; i-- {
		w := links[i].Witness
		hasher.Write(w.Digest[:])
		binary.BigEndian.PutUint64(scratch[:8], uint64(w.Timestamp))
		scratch[8] = byte(w.Residue)
		hasher.Write(scratch[:])
	}

	var digest ProofDigest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// RegionDigest computes the region-domain proof digest binding a
// domain identifier to its region content. Used when a proof bundle
// must commit to the exporting domain's current bytes, not only to its
// witness history. Panics on an empty region.
func RegionDigest(domainID uint64, region []byte) ProofDigest {
	if len(region) == 0 {
		panic("witness: RegionDigest requires a non-empty region")
	}

	hasher := newKeyedHasher(regionDomainKey)
	var identifier [8]byte
	binary.BigEndian.PutUint64(identifier[:], domainID)
	hasher.Write(identifier[:])
	hasher.Write(region)

	var digest ProofDigest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// newKeyedHasher returns a BLAKE3 keyed hasher for the given domain.
// NewKeyed only fails for a wrong key length, which the domainKey type
// rules out.
func newKeyedHasher(key domainKey) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("witness: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
