// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package witness

import (
	"crypto/sha256"

	"github.com/resonance-foundation/substrate/lib/residue"
)

// ChainNode links a witness into a singly linked provenance list. Each
// node carries a back-reference to the previous node and a sequence
// number one greater than the previous node's, so the head's sequence
// is the chain length.
type ChainNode struct {
	// Witness is the commitment recorded at this link.
	Witness *Witness

	// Previous is the prior link, nil at the chain's origin.
	Previous *ChainNode

	// Sequence is Depth(Previous) + 1.
	Sequence uint64
}

// Chain wraps current into a new head node on top of previous.
// previous may be nil (chain origin). Panics on a nil current witness.
func Chain(current *Witness, previous *ChainNode) *ChainNode {
	if current == nil {
		panic("witness: Chain requires a witness")
	}
	return &ChainNode{
		Witness:  current,
		Previous: previous,
		Sequence: Depth(previous) + 1,
	}
}

// Depth returns the sequence number of node, with Depth(nil) == 0.
func Depth(node *ChainNode) uint64 {
	if node == nil {
		return 0
	}
	return node.Sequence
}

// Merge combines child witnesses into one: digest = SHA-256 of the
// concatenated child digests, timestamp = the latest child timestamp,
// residue = sum of child residues mod 96, FlagMerged set. Panics on an
// empty child list.
func Merge(children []*Witness) *Witness {
	if len(children) == 0 {
		panic("witness: Merge requires at least one child")
	}

	hasher := sha256.New()
	var latest int64
	var residueSum uint64
	for i, child := range children {
		if child == nil {
			panic("witness: Merge child is nil")
		}
		hasher.Write(child.Digest[:])
		if i == 0 || child.Timestamp > latest {
			latest = child.Timestamp
		}
		residueSum += uint64(child.Residue)
	}

	merged := &Witness{
		Timestamp: latest,
		Residue:   residue.Class(residueSum % residue.Modulus),
		Flags:     FlagMerged,
	}
	copy(merged.Digest[:], hasher.Sum(nil))
	return merged
}
