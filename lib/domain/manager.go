// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/resonance-foundation/substrate/lib/alloc"
	"github.com/resonance-foundation/substrate/lib/clock"
	"github.com/resonance-foundation/substrate/lib/conserve"
	"github.com/resonance-foundation/substrate/lib/residue"
	"github.com/resonance-foundation/substrate/lib/witness"
)

// Resource-exhaustion failures. All leave their inputs unchanged.
var (
	// ErrInsufficientBudget is returned when a transfer or fork asks
	// for more budget than the source holds.
	ErrInsufficientBudget = errors.New("domain: insufficient budget")

	// ErrBudgetCeiling is returned when a credit would push a budget
	// to 96 or beyond.
	ErrBudgetCeiling = errors.New("domain: budget ceiling exceeded")

	// ErrTokenCollision is returned when isolation token generation
	// repeatedly produced a token already held by a live domain.
	ErrTokenCollision = errors.New("domain: isolation token collision")

	// ErrRegionAllocation is returned when the allocator could not
	// map a region for a new domain.
	ErrRegionAllocation = errors.New("domain: region allocation failed")
)

// tokenRetries bounds collision retry during token generation.
const tokenRetries = 8

// DefaultRegionSize is the region size for managers constructed
// without an explicit size: one page.
func DefaultRegionSize() uint64 {
	return uint64(alloc.PageSize())
}

// Manager creates and operates domains over a shared allocator and
// witness generator. Budget mutations are serialized by the manager so
// a transfer debits and credits atomically with respect to other
// transfers; all other per-domain operations rely on the caller's
// single-owner discipline.
type Manager struct {
	allocator  *alloc.Allocator
	generator  *witness.Generator
	clock      clock.Clock
	regionSize uint64

	nextID atomic.Uint64

	mu         sync.Mutex
	liveTokens map[uint64]struct{}
}

// NewManager returns a Manager allocating regions of regionSize bytes
// through allocator. regionSize zero selects DefaultRegionSize.
func NewManager(allocator *alloc.Allocator, generator *witness.Generator, c clock.Clock, regionSize uint64) *Manager {
	if allocator == nil || generator == nil || c == nil {
		panic("domain: NewManager requires an allocator, a generator, and a clock")
	}
	if regionSize == 0 {
		regionSize = DefaultRegionSize()
	}
	return &Manager{
		allocator:  allocator,
		generator:  generator,
		clock:      c,
		regionSize: regionSize,
		liveTokens: make(map[uint64]struct{}),
	}
}

// Create allocates a new active domain with the given initial budget,
// a fresh monotonic ID, a zero (hence conserved) region, an isolation
// token, and no witness. Panics on a budget outside [0, 96); the
// budget type makes that a deliberate misuse, not a runtime input.
func (m *Manager) Create(initialBudget residue.Class) (*Domain, error) {
	if !initialBudget.Valid() {
		panic("domain: Create budget outside the residue space")
	}

	region := m.allocator.Allocate(m.regionSize, 0, 0)
	if region == nil {
		return nil, ErrRegionAllocation
	}

	id := m.nextID.Add(1)
	token, err := m.claimToken(id)
	if err != nil {
		m.allocator.Free(region)
		return nil, err
	}

	return &Domain{
		ID:             id,
		Region:         region,
		Budget:         initialBudget,
		IsolationToken: token,
		state:          StateActive,
	}, nil
}

// Destroy releases the domain's region and any bound witness, and
// moves it to the terminal state. Destroying an already destroyed
// domain is a contract violation and panics, matching the single-owner
// discipline.
func (m *Manager) Destroy(d *Domain) {
	d.mustLive("Destroy")

	m.mu.Lock()
	delete(m.liveTokens, d.IsolationToken)
	m.mu.Unlock()

	if d.Witness != nil {
		witness.Destroy(d.Witness)
		d.Witness = nil
	}
	m.allocator.Free(d.Region)
	d.Region = nil
	d.state = StateDestroyed
}

// Clone returns a new active domain with the same budget and a
// byte-exact copy of d's region content, under a fresh ID and an
// independent isolation token. The clone carries no witness.
func (m *Manager) Clone(d *Domain) (*Domain, error) {
	d.mustLive("Clone")

	twin, err := m.Create(d.Budget)
	if err != nil {
		return nil, err
	}
	copy(twin.Region, d.Region)
	twin.SchedulePhase = d.SchedulePhase
	return twin, nil
}

// Validate reports whether d holds a region, a budget inside the
// residue space, and a currently conserved region.
func (m *Manager) Validate(d *Domain) bool {
	if d == nil || d.state == StateDestroyed {
		return false
	}
	return d.Region != nil && d.Budget.Valid() && conserve.IsConserved(d.Region)
}

// VerifyIsolated reports whether two domains are isolated: their
// tokens share no factor. A domain is never isolated from itself.
// This is the inherited number-theoretic heuristic, not a security
// boundary.
func (m *Manager) VerifyIsolated(d1, d2 *Domain) bool {
	d1.mustLive("VerifyIsolated")
	d2.mustLive("VerifyIsolated")
	return gcd(d1.IsolationToken, d2.IsolationToken) == 1
}

// TransferBudget moves amount from one domain's budget to another's.
// Fails without touching either domain when the source cannot afford
// the debit or the credit would reach the 96 ceiling. The debit and
// credit are atomic with respect to other budget operations.
func (m *Manager) TransferBudget(from, to *Domain, amount residue.Class) error {
	from.mustLive("TransferBudget")
	to.mustLive("TransferBudget")

	m.mu.Lock()
	defer m.mu.Unlock()

	if from.Budget < amount {
		return ErrInsufficientBudget
	}
	if uint16(to.Budget)+uint16(amount) >= residue.Modulus {
		return ErrBudgetCeiling
	}
	from.Budget -= amount
	to.Budget += amount
	return nil
}

// ReserveBudget debits amount unconditionally, wrapping mod 96. Used
// internally by Fork after affordability is checked; exported for
// collaborators that manage their own accounting discipline.
func (m *Manager) ReserveBudget(d *Domain, amount residue.Class) {
	d.mustLive("ReserveBudget")
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Budget = d.Budget.Add(amount.Complement())
}

// ReleaseBudget credits amount unconditionally, wrapping mod 96.
func (m *Manager) ReleaseBudget(d *Domain, amount residue.Class) {
	d.mustLive("ReleaseBudget")
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Budget = d.Budget.Add(amount)
}

// Fork creates a child domain funded from the parent's budget. Fails
// with ErrInsufficientBudget, leaving the parent unchanged, when the parent
// cannot afford childBudget. The child receives a copy of the
// parent's region content and inherits its schedule phase; the parent
// is debited and marked forked.
func (m *Manager) Fork(parent *Domain, childBudget residue.Class) (*Domain, error) {
	parent.mustLive("Fork")
	if parent.state == StateMerged {
		panic("domain: Fork on a merged domain")
	}

	m.mu.Lock()
	affordable := parent.Budget >= childBudget
	m.mu.Unlock()
	if !affordable {
		return nil, ErrInsufficientBudget
	}

	child, err := m.Create(childBudget)
	if err != nil {
		return nil, err
	}
	conserve.ConservingCopy(child.Region, parent.Region)
	child.SchedulePhase = parent.SchedulePhase

	m.ReserveBudget(parent, childBudget)
	parent.state = StateForked
	return child, nil
}

// Merge combines two domains into a new one whose budget is the mod-96
// sum of the sources' budgets and whose region is the byte-wise XOR of
// the source regions: the literal, reversible combination rule; no
// semantic merge is implied. Both sources are marked merged and keep
// their regions until destroyed.
func (m *Manager) Merge(d1, d2 *Domain) (*Domain, error) {
	d1.mustLive("Merge")
	d2.mustLive("Merge")
	if len(d1.Region) != len(d2.Region) {
		return nil, fmt.Errorf("domain: merging regions of different sizes (%d and %d)",
			len(d1.Region), len(d2.Region))
	}

	combined, err := m.Create(d1.Budget.Add(d2.Budget))
	if err != nil {
		return nil, err
	}
	for i := range combined.Region {
		combined.Region[i] = d1.Region[i] ^ d2.Region[i]
	}

	d1.state = StateMerged
	d2.state = StateMerged
	return combined, nil
}

// SyncConservation recomputes and stores the domain's conservation
// sum from its region, and reports whether the region is conserved.
func (m *Manager) SyncConservation(d *Domain) bool {
	d.mustLive("SyncConservation")
	sum := conserve.Checksum(d.Region)
	d.ConservationSum = uint32(sum)
	return sum == 0
}

// BindWitness attaches w to the domain, destroying any previously
// bound witness.
func (m *Manager) BindWitness(d *Domain, w *witness.Witness) {
	d.mustLive("BindWitness")
	if d.Witness != nil && d.Witness != w {
		witness.Destroy(d.Witness)
	}
	d.Witness = w
}

// ExportProof generates a fresh witness over the domain's current
// region content, binds it (replacing any prior witness), and returns
// it.
func (m *Manager) ExportProof(d *Domain) *witness.Witness {
	d.mustLive("ExportProof")
	proof := m.generator.Generate(d.Region)
	m.BindWitness(d, proof)
	return proof
}

// VerifyWitnessChain reports whether the domain's bound witness still
// commits to its current region content. False when no witness is
// bound.
func (m *Manager) VerifyWitnessChain(d *Domain) bool {
	d.mustLive("VerifyWitnessChain")
	if d.Witness == nil {
		return false
	}
	return witness.Verify(d.Witness, d.Region)
}

// claimToken generates an isolation token not held by any live
// domain, retrying with perturbed seeds on collision.
func (m *Manager) claimToken(id uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 0; attempt < tokenRetries; attempt++ {
		token := isolationToken(m.clock.Now().UnixNano()+int64(attempt), id)
		if _, taken := m.liveTokens[token]; taken {
			continue
		}
		m.liveTokens[token] = struct{}{}
		return token, nil
	}
	return 0, ErrTokenCollision
}
