// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Substrate is the operational CLI for the conservation-invariant
// memory substrate. It is a collaborator surface, not part of the
// core's contract: it drives the public allocator and domain
// operations for inspection and exports sealed proof bundles.
//
// Subcommands:
//
//	exercise  run a scripted allocate/fork/transfer/merge workload
//	          and print allocator statistics
//	export    build a witness chain over a domain and emit a packed,
//	          optionally sealed, proof bundle
//	keygen    generate an age keypair for bundle sealing
//
// Exit codes:
//
//	0  success
//	1  workload or verification failure
//	2  bad arguments or configuration
package main
