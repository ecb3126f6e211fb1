// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package residue defines the mod-96 residue space shared by every
// substrate component.
//
// [Classify] is the scalar classification function: byte value mod 96.
// It is stateless and used only for reporting; the conservation and
// witness subsystems depend on the same [Modulus] constant but compute
// their residues over whole buffers (see lib/conserve).
//
// This package has no dependencies and no internal state.
package residue
