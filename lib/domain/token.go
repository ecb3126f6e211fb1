// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package domain

// isolationPrimes is the fixed table of 32-bit primes used as token
// multipliers. A domain's token is its time-derived seed multiplied by
// the prime selected by its ID, so domains assigned the same table
// slot always share a factor (never isolated from one another), while
// domains in different slots are isolated exactly when their seeds are
// coprime. The GCD check is a coarse heuristic, not a cryptographic
// isolation guarantee.
var isolationPrimes = [8]uint64{
	4294967291,
	4294967279,
	4294967231,
	4294967197,
	4294967189,
	4294967161,
	3037000493,
	2147483647,
}

// seedMask bounds the time-derived seed to 28 bits so that
// seed * prime stays far below 2^64. Overflow wrap would destroy the
// factor structure the GCD check depends on.
const seedMask = (1 << 28) - 1

// isolationToken derives a token from a nanosecond timestamp and a
// domain ID. The seed is forced odd so the token is never zero and
// never shares the trivial factor 2 with every other token.
func isolationToken(nanos int64, id uint64) uint64 {
	seed := (uint64(nanos) ^ uint64(nanos)>>29 ^ id*0x9E3779B9) & seedMask
	seed |= 1
	return seed * isolationPrimes[id%uint64(len(isolationPrimes))]
}

// gcd computes the greatest common divisor by Euclid's algorithm.
func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
