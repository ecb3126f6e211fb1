// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package witness

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/resonance-foundation/substrate/lib/clock"
	"github.com/resonance-foundation/substrate/lib/conserve"
	"github.com/resonance-foundation/substrate/lib/residue"
)

// Flags set on a witness. Stored in the Flags byte.
const (
	// FlagMerged marks a witness produced by Merge rather than
	// Generate. Merged witnesses commit to child digests, not to any
	// single buffer, so Verify against a buffer is meaningless for
	// them (and reports false).
	FlagMerged uint8 = 1 << 0
)

// Witness is an immutable cryptographic commitment over a buffer's
// content at a point in time: a SHA-256 digest, a nanosecond
// timestamp, and the buffer's residue class. Once generated, a witness
// is never mutated; Destroy zeroes it, after which it verifies as
// false against everything.
type Witness struct {
	// Digest is the SHA-256 hash of the committed buffer (or, for
	// merged witnesses, of the concatenated child digests).
	Digest [32]byte

	// Timestamp is the commitment time in nanoseconds since the Unix
	// epoch, taken from the generator's clock.
	Timestamp int64

	// Residue is the conservation checksum of the committed buffer.
	Residue residue.Class

	// Flags carries witness property bits (FlagMerged).
	Flags uint8
}

// Generator produces witnesses. It carries the clock that stamps them
// so tests can generate deterministic witnesses with clock.Fake.
type Generator struct {
	clock clock.Clock
}

// NewGenerator returns a Generator stamping witnesses from the given
// clock. Pass clock.Real() in production.
func NewGenerator(c clock.Clock) *Generator {
	if c == nil {
		panic("witness: NewGenerator requires a clock")
	}
	return &Generator{clock: c}
}

// Generate computes a witness over buf: SHA-256 digest, current
// timestamp, and the buffer's residue class. The returned witness is
// immutable. Panics on an empty buffer; committing to nothing is a
// programmer error, not a runtime condition.
func (g *Generator) Generate(buf []byte) *Witness {
	if len(buf) == 0 {
		panic("witness: Generate requires a non-empty buffer")
	}
	return &Witness{
		Digest:    sha256.Sum256(buf),
		Timestamp: g.clock.Now().UnixNano(),
		Residue:   conserve.Checksum(buf),
	}
}

// Verify reports whether w commits to the current content of buf. The
// digest comparison is constant-time (execution time independent of
// where a mismatch occurs). Verify never panics: a nil witness, an
// empty buffer, or a merged witness verifies as false.
func Verify(w *Witness, buf []byte) bool {
	if w == nil || len(buf) == 0 {
		return false
	}
	if w.Flags&FlagMerged != 0 {
		return false
	}
	digest := sha256.Sum256(buf)
	return subtle.ConstantTimeCompare(w.Digest[:], digest[:]) == 1
}

// Destroy zeroes the witness in place so no digest bytes linger in
// freed memory. Safe on nil. A destroyed witness verifies as false
// against any buffer whose digest is not all zeroes, which is every
// buffer with overwhelming probability.
func Destroy(w *Witness) {
	if w == nil {
		return
	}
	for i := range w.Digest {
		w.Digest[i] = 0
	}
	w.Timestamp = 0
	w.Residue = 0
	w.Flags = 0
}

// Time returns the commitment instant.
func (w *Witness) Time() time.Time {
	return time.Unix(0, w.Timestamp)
}

// Resonance returns the residue class the witness committed to.
func (w *Witness) Resonance() residue.Class {
	return w.Residue
}

// FormatDigest returns the hex-encoded digest, the canonical format
// for logs and CLI output.
func (w *Witness) FormatDigest() string {
	return hex.EncodeToString(w.Digest[:])
}

// String returns a short human-readable summary.
func (w *Witness) String() string {
	return fmt.Sprintf("witness{%s… %s %s}",
		hex.EncodeToString(w.Digest[:6]), w.Time().UTC().Format(time.RFC3339Nano), w.Residue)
}
