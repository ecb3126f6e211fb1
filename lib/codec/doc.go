// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the substrate's CBOR encoding configuration.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2) so that
// the same logical proof bundle always serializes to identical bytes;
// decoding accepts standard CBOR and ignores unknown fields for
// forward compatibility. Consumers import this package rather than
// fxamacker/cbor directly so the configuration stays in one place.
package codec
