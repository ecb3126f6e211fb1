// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package conserve

import (
	"sync/atomic"

	"github.com/resonance-foundation/substrate/lib/residue"
)

// Counter is a uint32 counter whose value is kept at 0 mod 96 across
// updates. Both the delta and the conservation fixup are folded into a
// single compare-and-swap, so no intermediate non-conserved value is
// ever observable by a concurrent reader.
//
// The zero value is ready to use and conserved.
type Counter struct {
	value atomic.Uint32
}

// AddConserving adds delta to the counter, then rounds the result up
// to the next multiple of 96 in the same atomic update. Returns the
// value observed before the update. Safe for concurrent use.
func (c *Counter) AddConserving(delta uint32) uint32 {
	for {
		old := c.value.Load()
		next := old + delta
		// Rounding up can wrap past 2^32, which is 64 mod 96, so a
		// single round is not always enough. A wrapped value is at
		// most 94, so the second round never wraps again.
		for next%residue.Modulus != 0 {
			next += residue.Modulus - next%residue.Modulus
		}
		if c.value.CompareAndSwap(old, next) {
			return old
		}
	}
}

// Load returns the current value. Always 0 mod 96 between updates.
func (c *Counter) Load() uint32 {
	return c.value.Load()
}

// Reset sets the counter back to zero. Intended for test harnesses;
// production code never resets a live counter.
func (c *Counter) Reset() {
	c.value.Store(0)
}
