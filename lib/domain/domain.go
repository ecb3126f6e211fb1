// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"fmt"

	"github.com/resonance-foundation/substrate/lib/residue"
	"github.com/resonance-foundation/substrate/lib/witness"
)

// State is a domain's lifecycle position. Domains move strictly
// forward: Active -> (Forked | Merged) -> Destroyed. There is no
// transition back to a fresh state.
type State uint8

const (
	// StateActive is a live domain accepting every operation.
	StateActive State = iota

	// StateForked marks a parent that has produced a fork child. The
	// domain stays operational; the state records provenance.
	StateForked

	// StateMerged marks a source domain consumed by a merge. Merged
	// sources keep their region until destroyed but can no longer
	// fork.
	StateMerged

	// StateDestroyed is terminal. Any operation on a destroyed domain
	// panics.
	StateDestroyed
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateForked:
		return "forked"
	case StateMerged:
		return "merged"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Domain is an isolated, budgeted owner of one memory region. A
// domain has exactly one logical owner at a time; operations on the
// same domain require external mutual exclusion, while operations on
// different domains may run concurrently through the Manager.
type Domain struct {
	// ID is unique and monotonically increasing within a Manager.
	ID uint64

	// Region is the exclusively owned memory, allocated through the
	// substrate allocator and zero-initialized (hence conserved) at
	// creation.
	Region []byte

	// Budget is the domain's bounded numeric resource in [0, 96).
	Budget residue.Class

	// ConservationSum is the region checksum recorded by the last
	// SyncConservation call.
	ConservationSum uint32

	// Witness is the most recently bound commitment over the region,
	// nil until BindWitness or ExportProof.
	Witness *witness.Witness

	// IsolationToken is the number-theoretic token whose pairwise GCD
	// with another domain's token decides interaction eligibility.
	IsolationToken uint64

	// SchedulePhase is an opaque phase value handed to scheduling
	// collaborators; fork children inherit it from their parent.
	SchedulePhase uint64

	state State
}

// State returns the domain's lifecycle state.
func (d *Domain) State() State {
	return d.state
}

// mustLive panics when the domain has been destroyed. Use of a
// destroyed handle is an ownership-contract violation, not a
// recoverable condition.
func (d *Domain) mustLive(operation string) {
	if d == nil {
		panic("domain: " + operation + " on a nil domain")
	}
	if d.state == StateDestroyed {
		panic("domain: " + operation + " on a destroyed domain")
	}
}
