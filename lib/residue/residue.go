// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package residue

import "fmt"

// Modulus is the size of the residue space. Every classification,
// conservation checksum, and domain budget in the substrate is a value
// in [0, Modulus). This is a protocol constant; changing it
// invalidates every stored residue tag and witness residue class.
const Modulus = 96

// Class is a residue class in [0, Modulus). The zero value is the
// conserved class.
type Class uint8

// Classify maps a byte to its residue class: b mod 96. Pure, total,
// and deterministic; the single source of truth that any vectorized
// classifier must match element-wise.
func Classify(b byte) Class {
	return Class(b % Modulus)
}

// Valid reports whether c is within the residue space.
func (c Class) Valid() bool {
	return c < Modulus
}

// Add returns (c + other) mod 96.
func (c Class) Add(other Class) Class {
	return Class((uint16(c) + uint16(other)) % Modulus)
}

// Complement returns the class that, added to c, yields the conserved
// class: (96 - c) mod 96.
func (c Class) Complement() Class {
	return Class((Modulus - uint16(c)) % Modulus)
}

// String returns the decimal representation, e.g. "r17".
func (c Class) String() string {
	return fmt.Sprintf("r%d", uint8(c))
}
