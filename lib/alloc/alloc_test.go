// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package alloc

import (
	"math"
	"testing"
	"time"

	"github.com/resonance-foundation/substrate/lib/clock"
	"github.com/resonance-foundation/substrate/lib/conserve"
	"github.com/resonance-foundation/substrate/lib/witness"
)

func newTestAllocator() *Allocator {
	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(witness.NewGenerator(fakeClock))
}

func TestAllocate_FullyInitialized(t *testing.T) {
	allocator := newTestAllocator()

	payload := allocator.Allocate(100, 17, 0)
	if payload == nil {
		t.Fatal("Allocate returned nil")
	}
	defer allocator.Free(payload)

	if len(payload) != 100 {
		t.Errorf("len(payload) = %d, want 100", len(payload))
	}
	for i, b := range payload {
		if b != 0 {
			t.Fatalf("payload[%d] = %d, want zero-initialized", i, b)
		}
	}

	stats := allocator.Stats()
	if stats.Allocated == 0 {
		t.Error("Stats.Allocated = 0 after allocation")
	}
	if stats.Witnesses != 1 {
		t.Errorf("Stats.Witnesses = %d, want 1", stats.Witnesses)
	}
	if stats.Peak != stats.Allocated {
		t.Errorf("Stats.Peak = %d, want %d", stats.Peak, stats.Allocated)
	}
}

func TestFree_UpdatesCounters(t *testing.T) {
	allocator := newTestAllocator()

	payload := allocator.Allocate(64, 0, 0)
	peakBefore := allocator.Stats().Peak
	allocator.Free(payload)

	stats := allocator.Stats()
	if stats.Allocated != 0 {
		t.Errorf("Stats.Allocated = %d after Free, want 0", stats.Allocated)
	}
	if stats.Witnesses != 0 {
		t.Errorf("Stats.Witnesses = %d after Free, want 0", stats.Witnesses)
	}
	if stats.Peak != peakBefore {
		t.Errorf("Stats.Peak = %d after Free, want %d (peak is historical)", stats.Peak, peakBefore)
	}
	if allocator.Live() != 0 {
		t.Errorf("Live() = %d after Free, want 0", allocator.Live())
	}
}

func TestFree_NilIsNoOp(t *testing.T) {
	allocator := newTestAllocator()
	allocator.Free(nil)
}

func TestFree_ForeignPointerPanics(t *testing.T) {
	allocator := newTestAllocator()
	defer func() {
		if recover() == nil {
			t.Error("Free of a foreign pointer did not panic")
		}
	}()
	allocator.Free(make([]byte, 16))
}

func TestFree_CorruptedHeaderPanics(t *testing.T) {
	allocator := newTestAllocator()
	payload := allocator.Allocate(32, 0, 0)
	allocator.corruptHeaderForTest(payload)

	defer func() {
		if recover() == nil {
			t.Error("Free with corrupted header magic did not panic")
		}
	}()
	allocator.Free(payload)
}

func TestAllocate_ZeroSizePanics(t *testing.T) {
	allocator := newTestAllocator()
	defer func() {
		if recover() == nil {
			t.Error("Allocate(0) did not panic")
		}
	}()
	allocator.Allocate(0, 0, 0)
}

func TestAllocatePages_FreshRegionIsConserved(t *testing.T) {
	allocator := newTestAllocator()

	region := allocator.AllocatePages(1)
	if region == nil {
		t.Fatal("AllocatePages returned nil")
	}
	defer allocator.Free(region)

	if len(region) != PageSize() {
		t.Errorf("len(region) = %d, want page size %d", len(region), PageSize())
	}
	if !conserve.IsConserved(region) {
		t.Error("fresh page region is not conserved")
	}

	// Each page is individually conserved, not only the whole region.
	multi := allocator.AllocatePages(3)
	defer allocator.Free(multi)
	for page := 0; page < 3; page++ {
		slice := multi[page*PageSize() : (page+1)*PageSize()]
		if !conserve.IsConserved(slice) {
			t.Errorf("page %d of multi-page region is not conserved", page)
		}
	}
}

func TestAllocatePages_Pattern(t *testing.T) {
	allocator := newTestAllocator()
	region := allocator.AllocatePages(1)
	defer allocator.Free(region)

	// The canonical fill is i mod 96; only the page tail may have been
	// repaired.
	for i := 0; i < len(region)-1; i++ {
		if region[i] != byte(i%96) {
			t.Fatalf("region[%d] = %d, want %d", i, region[i], i%96)
		}
	}
}

func TestNormalizeAlignment(t *testing.T) {
	cases := []struct {
		requested uint64
		want      uint64
	}{
		{0, 64},
		{1, 64},
		{64, 64},
		{65, 128},
		{128, 128},
		{200, 256},
	}
	for _, c := range cases {
		if got := normalizeAlignment(c.requested); got != c.want {
			t.Errorf("normalizeAlignment(%d) = %d, want %d", c.requested, got, c.want)
		}
	}
}

func TestNormalizeAlignment_BeyondPageSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("alignment beyond the page size did not panic")
		}
	}()
	// A page-aligned mapping cannot deliver this, and an unbounded
	// request must not spin the doubling loop either.
	normalizeAlignment(uint64(PageSize()) * 2)
}

func TestAllocate_AlignmentBeyondPageSizePanics(t *testing.T) {
	allocator := newTestAllocator()
	defer func() {
		if recover() == nil {
			t.Error("Allocate with alignment beyond the page size did not panic")
		}
	}()
	allocator.Allocate(32, 0, uint64(PageSize())*2)
}

func TestPool(t *testing.T) {
	allocator := newTestAllocator()
	pool, err := NewPool(allocator, 1)
	if err != nil {
		t.Fatalf("NewPool() error: %v", err)
	}
	defer pool.Close()

	capacity := pool.Remaining()
	if capacity != uint64(PageSize()) {
		t.Errorf("Remaining() = %d, want %d", capacity, PageSize())
	}

	first, err := pool.Alloc(100)
	if err != nil {
		t.Fatalf("Alloc(100) error: %v", err)
	}
	if len(first) != 100 {
		t.Errorf("len(first) = %d, want 100", len(first))
	}

	second, err := pool.Alloc(100)
	if err != nil {
		t.Fatalf("second Alloc(100) error: %v", err)
	}
	if &first[0] == &second[0] {
		t.Error("pool returned overlapping allocations")
	}

	// Exhaustion leaves the pool unchanged.
	remaining := pool.Remaining()
	if _, err := pool.Alloc(remaining + 1); err != ErrPoolExhausted {
		t.Errorf("oversized Alloc error = %v, want ErrPoolExhausted", err)
	}
	if got := pool.Remaining(); got != remaining {
		t.Errorf("Remaining() = %d after failed Alloc, want %d", got, remaining)
	}

	// A size large enough to wrap the bounds arithmetic must fail the
	// same way, not slip past the capacity check.
	if _, err := pool.Alloc(math.MaxUint64); err != ErrPoolExhausted {
		t.Errorf("Alloc(MaxUint64) error = %v, want ErrPoolExhausted", err)
	}
	if got := pool.Remaining(); got != remaining {
		t.Errorf("Remaining() = %d after overflowing Alloc, want %d", got, remaining)
	}
}

func TestPool_CloseReleasesRegion(t *testing.T) {
	allocator := newTestAllocator()
	pool, err := NewPool(allocator, 2)
	if err != nil {
		t.Fatalf("NewPool() error: %v", err)
	}

	pool.Close()
	if allocator.Stats().Allocated != 0 {
		t.Errorf("Stats.Allocated = %d after pool Close, want 0", allocator.Stats().Allocated)
	}

	// Idempotent.
	pool.Close()
}
