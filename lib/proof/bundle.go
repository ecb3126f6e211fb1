// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package proof

import (
	"crypto/subtle"
	"fmt"

	"github.com/resonance-foundation/substrate/lib/codec"
	"github.com/resonance-foundation/substrate/lib/residue"
	"github.com/resonance-foundation/substrate/lib/witness"
)

// Link is one witness commitment inside a bundle, origin-first.
type Link struct {
	Digest    [32]byte `cbor:"digest"`
	Timestamp int64    `cbor:"timestamp"`
	Residue   uint8    `cbor:"residue"`
	Flags     uint8    `cbor:"flags,omitempty"`
	Sequence  uint64   `cbor:"sequence"`
}

// Bundle is the exportable form of a domain's witness chain: the
// links origin-first plus the BLAKE3 chain-domain proof digest binding
// them. Bundles serialize to deterministic CBOR, so equal chains
// always produce byte-identical bundles.
type Bundle struct {
	DomainID    uint64              `cbor:"domain_id"`
	Links       []Link              `cbor:"links"`
	ChainDigest witness.ProofDigest `cbor:"chain_digest"`
}

// Build collects the chain behind head into a Bundle for the given
// domain. Panics on a nil head, mirroring witness.ChainDigest.
func Build(domainID uint64, head *witness.ChainNode) *Bundle {
	digest := witness.ChainDigest(head)

	depth := int(witness.Depth(head))
	links := make([]Link, depth)
	for node := head; node != nil; node = node.Previous {
		links[node.Sequence-1] = Link{
			Digest:    node.Witness.Digest,
			Timestamp: node.Witness.Timestamp,
			Residue:   uint8(node.Witness.Residue),
			Flags:     node.Witness.Flags,
			Sequence:  node.Sequence,
		}
	}

	return &Bundle{
		DomainID:    domainID,
		Links:       links,
		ChainDigest: digest,
	}
}

// Chain reconstructs the witness chain described by the bundle,
// returning the head node. Returns an error on an empty bundle or
// non-contiguous sequence numbers.
func (b *Bundle) Chain() (*witness.ChainNode, error) {
	if len(b.Links) == 0 {
		return nil, fmt.Errorf("proof: bundle for domain %d has no links", b.DomainID)
	}

	var head *witness.ChainNode
	for i, link := range b.Links {
		if link.Sequence != uint64(i)+1 {
			return nil, fmt.Errorf("proof: bundle link %d has sequence %d, want %d",
				i, link.Sequence, i+1)
		}
		head = witness.Chain(&witness.Witness{
			Digest:    link.Digest,
			Timestamp: link.Timestamp,
			Residue:   residue.Class(link.Residue),
			Flags:     link.Flags,
		}, head)
	}
	return head, nil
}

// Verify recomputes the chain digest from the bundle's links and
// compares it to the recorded digest in constant time.
func (b *Bundle) Verify() bool {
	head, err := b.Chain()
	if err != nil {
		return false
	}
	computed := witness.ChainDigest(head)
	return subtle.ConstantTimeCompare(computed[:], b.ChainDigest[:]) == 1
}

// Encode serializes the bundle to deterministic CBOR.
func (b *Bundle) Encode() ([]byte, error) {
	data, err := codec.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("proof: encoding bundle for domain %d: %w", b.DomainID, err)
	}
	return data, nil
}

// Decode parses a CBOR bundle.
func Decode(data []byte) (*Bundle, error) {
	var bundle Bundle
	if err := codec.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("proof: decoding bundle: %w", err)
	}
	return &bundle, nil
}
