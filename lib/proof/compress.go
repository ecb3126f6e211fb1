// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package proof

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression algorithm of a packed
// bundle. The tag is the second byte of the packed frame; these
// values are format constants.
type CompressionTag uint8

const (
	// CompressionNone stores the bundle uncompressed. Chosen
	// automatically when compression would not shrink the data.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at the default level: better ratio for
	// the highly regular CBOR of large chains.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's name.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// packVersion is the first byte of every packed frame.
const packVersion byte = 0x01

// packHeaderSize is version + tag + uncompressed size.
const packHeaderSize = 1 + 1 + 8

// errIncompressible reports that compression did not shrink the data;
// Pack falls back to CompressionNone.
var errIncompressible = errors.New("proof: data is incompressible")

// zstd encoder/decoder are reused across calls; both are safe for
// concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("proof: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("proof: zstd decoder initialization failed: " + err.Error())
	}
}

// Pack frames an encoded bundle for storage or sealing:
//
//	[version: 1 byte] [tag: 1 byte] [uncompressed size: 8 bytes LE] [payload]
//
// If the requested compression does not shrink the data, Pack stores
// it uncompressed under CompressionNone rather than failing.
func Pack(data []byte, tag CompressionTag) ([]byte, error) {
	payload, effectiveTag, err := compress(data, tag)
	if err != nil {
		return nil, err
	}

	framed := make([]byte, packHeaderSize+len(payload))
	framed[0] = packVersion
	framed[1] = byte(effectiveTag)
	binary.LittleEndian.PutUint64(framed[2:], uint64(len(data)))
	copy(framed[packHeaderSize:], payload)
	return framed, nil
}

// Unpack reverses Pack, returning the original encoded bundle.
func Unpack(framed []byte) ([]byte, error) {
	if len(framed) < packHeaderSize {
		return nil, fmt.Errorf("proof: packed frame is %d bytes, minimum is %d",
			len(framed), packHeaderSize)
	}
	if framed[0] != packVersion {
		return nil, fmt.Errorf("proof: packed frame version %d is not supported (expected %d)",
			framed[0], packVersion)
	}
	tag := CompressionTag(framed[1])
	uncompressedSize := binary.LittleEndian.Uint64(framed[2:])
	payload := framed[packHeaderSize:]

	switch tag {
	case CompressionNone:
		if uint64(len(payload)) != uncompressedSize {
			return nil, fmt.Errorf("proof: uncompressed frame size %d does not match recorded %d",
				len(payload), uncompressedSize)
		}
		return payload, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("proof: lz4 decompress: %w", err)
		}
		if uint64(read) != uncompressedSize {
			return nil, fmt.Errorf("proof: lz4 decompress produced %d bytes, expected %d",
				read, uncompressedSize)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("proof: zstd decompress: %w", err)
		}
		if uint64(len(result)) != uncompressedSize {
			return nil, fmt.Errorf("proof: zstd decompress produced %d bytes, expected %d",
				len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("proof: unsupported compression tag: %d", tag)
	}
}

// compress applies tag to data, falling back to CompressionNone when
// the result would not be smaller.
func compress(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		compressed, err := compressLZ4(data)
		if errors.Is(err, errIncompressible) {
			return data, CompressionNone, nil
		}
		if err != nil {
			return nil, 0, err
		}
		return compressed, CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("proof: unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("proof: lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when it judges the data incompressible.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}
