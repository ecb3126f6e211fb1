// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"testing"
	"time"

	"github.com/resonance-foundation/substrate/lib/alloc"
	"github.com/resonance-foundation/substrate/lib/clock"
	"github.com/resonance-foundation/substrate/lib/conserve"
	"github.com/resonance-foundation/substrate/lib/residue"
	"github.com/resonance-foundation/substrate/lib/witness"
)

func newTestManager(t *testing.T) (*Manager, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	generator := witness.NewGenerator(fakeClock)
	return NewManager(alloc.New(generator), generator, fakeClock, 256), fakeClock
}

func mustCreate(t *testing.T, m *Manager, budget residue.Class) *Domain {
	t.Helper()
	d, err := m.Create(budget)
	if err != nil {
		t.Fatalf("Create(%v) error: %v", budget, err)
	}
	return d
}

func TestCreate(t *testing.T) {
	manager, _ := newTestManager(t)

	d := mustCreate(t, manager, 40)
	defer manager.Destroy(d)

	if d.ID == 0 {
		t.Error("Create assigned ID 0, want a fresh monotonic ID")
	}
	if len(d.Region) != 256 {
		t.Errorf("len(Region) = %d, want 256", len(d.Region))
	}
	if !conserve.IsConserved(d.Region) {
		t.Error("fresh region is not conserved")
	}
	if d.Budget != 40 {
		t.Errorf("Budget = %v, want 40", d.Budget)
	}
	if d.Witness != nil {
		t.Error("fresh domain carries a witness, want none")
	}
	if d.IsolationToken == 0 {
		t.Error("IsolationToken = 0, want non-zero")
	}
	if d.State() != StateActive {
		t.Errorf("State() = %v, want %v", d.State(), StateActive)
	}
}

func TestCreate_MonotonicIDs(t *testing.T) {
	manager, _ := newTestManager(t)
	first := mustCreate(t, manager, 0)
	second := mustCreate(t, manager, 0)
	if second.ID <= first.ID {
		t.Errorf("IDs not monotonic: %d then %d", first.ID, second.ID)
	}
}

func TestDestroy(t *testing.T) {
	manager, _ := newTestManager(t)
	d := mustCreate(t, manager, 10)
	manager.ExportProof(d)

	manager.Destroy(d)

	if d.State() != StateDestroyed {
		t.Errorf("State() = %v after Destroy, want %v", d.State(), StateDestroyed)
	}
	if d.Region != nil {
		t.Error("Region not released on Destroy")
	}

	defer func() {
		if recover() == nil {
			t.Error("operation on a destroyed domain did not panic")
		}
	}()
	manager.SyncConservation(d)
}

func TestClone(t *testing.T) {
	manager, _ := newTestManager(t)
	original := mustCreate(t, manager, 30)
	defer manager.Destroy(original)

	original.Region[0] = 96
	original.SchedulePhase = 7

	twin, err := manager.Clone(original)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	defer manager.Destroy(twin)

	if twin.Budget != original.Budget {
		t.Errorf("clone Budget = %v, want %v", twin.Budget, original.Budget)
	}
	if twin.Region[0] != 96 {
		t.Error("clone region is not a byte-exact copy")
	}
	if twin.IsolationToken == original.IsolationToken {
		t.Error("clone shares the original's isolation token")
	}
	if twin.ID == original.ID {
		t.Error("clone shares the original's ID")
	}

	// Independence: mutating the clone leaves the original alone.
	twin.Region[1] = 55
	if original.Region[1] == 55 {
		t.Error("clone region aliases the original region")
	}
}

func TestValidate(t *testing.T) {
	manager, _ := newTestManager(t)
	d := mustCreate(t, manager, 5)
	defer manager.Destroy(d)

	if !manager.Validate(d) {
		t.Error("Validate(fresh domain) = false, want true")
	}

	d.Region[0] = 1 // break conservation
	if manager.Validate(d) {
		t.Error("Validate with non-conserved region = true, want false")
	}
	d.Region[0] = 0

	if manager.Validate(nil) {
		t.Error("Validate(nil) = true, want false")
	}
}

func TestVerifyIsolated_Reflexivity(t *testing.T) {
	manager, _ := newTestManager(t)
	d := mustCreate(t, manager, 0)
	defer manager.Destroy(d)

	if manager.VerifyIsolated(d, d) {
		t.Error("VerifyIsolated(d, d) = true, want false (a token shares all factors with itself)")
	}
}

func TestVerifyIsolated_SamePrimeSlotNeverIsolated(t *testing.T) {
	manager, fakeClock := newTestManager(t)

	// IDs 8 apart select the same prime table slot, so the tokens
	// always share that prime.
	domains := make([]*Domain, 0, 9)
	for i := 0; i < 9; i++ {
		fakeClock.Advance(time.Millisecond)
		d := mustCreate(t, manager, 0)
		domains = append(domains, d)
		defer manager.Destroy(d)
	}
	if manager.VerifyIsolated(domains[0], domains[8]) {
		t.Error("domains in the same prime slot reported isolated")
	}
}

func TestTransferBudget_Conservation(t *testing.T) {
	manager, _ := newTestManager(t)
	from := mustCreate(t, manager, 50)
	to := mustCreate(t, manager, 20)
	defer manager.Destroy(from)
	defer manager.Destroy(to)

	before := uint16(from.Budget) + uint16(to.Budget)
	if err := manager.TransferBudget(from, to, 15); err != nil {
		t.Fatalf("TransferBudget() error: %v", err)
	}
	after := uint16(from.Budget) + uint16(to.Budget)

	if before != after {
		t.Errorf("budget sum changed: %d -> %d", before, after)
	}
	if from.Budget != 35 || to.Budget != 35 {
		t.Errorf("budgets = %v, %v, want 35, 35", from.Budget, to.Budget)
	}
}

func TestTransferBudget_Failures(t *testing.T) {
	manager, _ := newTestManager(t)
	from := mustCreate(t, manager, 10)
	to := mustCreate(t, manager, 90)
	defer manager.Destroy(from)
	defer manager.Destroy(to)

	if err := manager.TransferBudget(from, to, 20); err != ErrInsufficientBudget {
		t.Errorf("overdraft error = %v, want ErrInsufficientBudget", err)
	}
	if from.Budget != 10 || to.Budget != 90 {
		t.Error("failed transfer changed budgets")
	}

	if err := manager.TransferBudget(from, to, 10); err != ErrBudgetCeiling {
		t.Errorf("ceiling error = %v, want ErrBudgetCeiling", err)
	}
	if from.Budget != 10 || to.Budget != 90 {
		t.Error("ceiling-failed transfer changed budgets")
	}
}

func TestReserveRelease(t *testing.T) {
	manager, _ := newTestManager(t)
	d := mustCreate(t, manager, 50)
	defer manager.Destroy(d)

	manager.ReserveBudget(d, 20)
	if d.Budget != 30 {
		t.Errorf("Budget after reserve = %v, want 30", d.Budget)
	}
	manager.ReleaseBudget(d, 20)
	if d.Budget != 50 {
		t.Errorf("Budget after release = %v, want 50", d.Budget)
	}
}

func TestFork(t *testing.T) {
	manager, _ := newTestManager(t)
	parent := mustCreate(t, manager, 50)
	defer manager.Destroy(parent)
	parent.SchedulePhase = 13

	child, err := manager.Fork(parent, 20)
	if err != nil {
		t.Fatalf("Fork() error: %v", err)
	}
	defer manager.Destroy(child)

	if parent.Budget != 30 {
		t.Errorf("parent Budget = %v after fork, want 30", parent.Budget)
	}
	if child.Budget != 20 {
		t.Errorf("child Budget = %v, want 20", child.Budget)
	}
	if child.SchedulePhase != 13 {
		t.Errorf("child SchedulePhase = %d, want 13 (inherited)", child.SchedulePhase)
	}
	if parent.State() != StateForked {
		t.Errorf("parent State() = %v, want %v", parent.State(), StateForked)
	}
	if !conserve.IsConserved(child.Region) {
		t.Error("child region not conserved after fork copy")
	}
}

func TestFork_BudgetExhaustion(t *testing.T) {
	manager, _ := newTestManager(t)
	parent := mustCreate(t, manager, 5)
	defer manager.Destroy(parent)

	if _, err := manager.Fork(parent, 10); err != ErrInsufficientBudget {
		t.Errorf("Fork error = %v, want ErrInsufficientBudget", err)
	}
	if parent.Budget != 5 {
		t.Errorf("parent Budget = %v after failed fork, want 5", parent.Budget)
	}
	if parent.State() != StateActive {
		t.Errorf("parent State() = %v after failed fork, want %v", parent.State(), StateActive)
	}
}

func TestMerge(t *testing.T) {
	manager, _ := newTestManager(t)
	first := mustCreate(t, manager, 60)
	second := mustCreate(t, manager, 50)
	defer manager.Destroy(first)
	defer manager.Destroy(second)

	first.Region[3] = 0xF0
	second.Region[3] = 0x0F
	second.Region[4] = 0xAA

	combined, err := manager.Merge(first, second)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	defer manager.Destroy(combined)

	if combined.Budget != residue.Class((60+50)%96) {
		t.Errorf("merged Budget = %v, want %d", combined.Budget, (60+50)%96)
	}
	if combined.Region[3] != 0xFF || combined.Region[4] != 0xAA {
		t.Error("merged region is not the byte-wise XOR of the sources")
	}
	if first.State() != StateMerged || second.State() != StateMerged {
		t.Error("merge sources not marked merged")
	}

	// XOR is reversible: combining the merge result with one source
	// recovers the other's bytes.
	for i := range combined.Region {
		if combined.Region[i]^second.Region[i] != first.Region[i] {
			t.Fatalf("XOR merge not reversible at byte %d", i)
		}
	}
}

func TestSyncConservation(t *testing.T) {
	manager, _ := newTestManager(t)
	d := mustCreate(t, manager, 0)
	defer manager.Destroy(d)

	if !manager.SyncConservation(d) {
		t.Error("SyncConservation(fresh domain) = false, want true")
	}
	if d.ConservationSum != 0 {
		t.Errorf("ConservationSum = %d, want 0", d.ConservationSum)
	}

	d.Region[0] = 7
	if manager.SyncConservation(d) {
		t.Error("SyncConservation after corruption = true, want false")
	}
	if d.ConservationSum != 7 {
		t.Errorf("ConservationSum = %d, want 7", d.ConservationSum)
	}
}

func TestWitnessBinding(t *testing.T) {
	manager, _ := newTestManager(t)
	d := mustCreate(t, manager, 0)
	defer manager.Destroy(d)

	if manager.VerifyWitnessChain(d) {
		t.Error("VerifyWitnessChain with no witness = true, want false")
	}

	proof := manager.ExportProof(d)
	if d.Witness != proof {
		t.Error("ExportProof did not bind the returned witness")
	}
	if !manager.VerifyWitnessChain(d) {
		t.Error("VerifyWitnessChain after ExportProof = false, want true")
	}

	// Region mutation invalidates the bound witness.
	d.Region[10] ^= 0xFF
	if manager.VerifyWitnessChain(d) {
		t.Error("VerifyWitnessChain after region mutation = true, want false")
	}

	// Rebinding destroys the prior witness.
	replacement := manager.ExportProof(d)
	if witness.Verify(proof, nil) || proof.Timestamp != 0 {
		t.Error("prior witness not destroyed on rebind")
	}
	_ = replacement
}
