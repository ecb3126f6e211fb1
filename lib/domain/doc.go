// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package domain implements budgeted isolation domains: each domain
// exclusively owns one allocator-backed region, holds a mod-96 budget,
// and carries a number-theoretic isolation token.
//
// The [Manager] composes the allocator and the witness generator to
// provide the domain lifecycle (create, destroy, clone, fork, merge)
// and the accounting protocol (transfer, reserve, release) with
// overflow and underflow safety: failed operations leave every input
// unchanged. Isolation between two domains is asserted by a GCD check
// over their tokens, a coarse heuristic rather than a cryptographic
// guarantee.
//
// Depends on lib/alloc, lib/clock, lib/conserve, lib/residue, and
// lib/witness.
package domain
