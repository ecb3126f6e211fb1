// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package alloc

import (
	"encoding/binary"

	"github.com/resonance-foundation/substrate/lib/residue"
	"github.com/resonance-foundation/substrate/lib/witness"
)

// headerMagic is the integrity sentinel written into every allocation
// header. A mismatch on Free means heap corruption or a non-owned
// pointer, and is fatal. This is a protocol constant.
const headerMagic uint32 = 0x9600C0DE

// headerSize is the serialized header length and the minimum payload
// alignment. The header occupies the first 64 bytes of every headered
// block, so a payload at the default alignment starts immediately
// after it.
const headerSize = 64

// header is the allocation header prepended to every headered block.
// The Allocator owns headers exclusively: they are written once at
// allocation time, validated at every Free, and destroyed with the
// block. The witness handle lives only in the Go-side record; the
// serialized prefix carries sizes, tag, and magic.
type header struct {
	// Requested is the payload size the caller asked for.
	Requested uint64

	// Total is the full block size including header and alignment
	// padding.
	Total uint64

	// ResidueTag is the caller-declared residue class of the payload.
	ResidueTag residue.Class

	// Magic is the integrity sentinel, always headerMagic in an
	// uncorrupted block.
	Magic uint32

	// Witness is the commitment generated over the entire block at
	// allocation time.
	Witness *witness.Witness
}

// Serialized header layout (little-endian, fixed offsets within the
// 64-byte prefix; the remainder is zero padding):
//
//	[0:4)   magic
//	[4:5)   residue tag
//	[8:16)  requested size
//	[16:24) total size
const (
	offsetMagic     = 0
	offsetTag       = 4
	offsetRequested = 8
	offsetTotal     = 16
)

// writeHeader serializes h into the first headerSize bytes of block.
func writeHeader(block []byte, h *header) {
	prefix := block[:headerSize]
	for i := range prefix {
		prefix[i] = 0
	}
	binary.LittleEndian.PutUint32(prefix[offsetMagic:], h.Magic)
	prefix[offsetTag] = byte(h.ResidueTag)
	binary.LittleEndian.PutUint64(prefix[offsetRequested:], h.Requested)
	binary.LittleEndian.PutUint64(prefix[offsetTotal:], h.Total)
}

// readMagic extracts the integrity sentinel from a block prefix.
func readMagic(block []byte) uint32 {
	return binary.LittleEndian.Uint32(block[offsetMagic:])
}
