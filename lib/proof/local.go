// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package proof

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the symmetric key size for the local-seal path.
const KeySize = 32

// localSealVersion is prepended to every locally sealed bundle and
// authenticated as AAD, so tampering with the version byte fails
// authentication.
const localSealVersion byte = 0x01

// hkdfInfoLocalSeal is the HKDF info string for local-seal key
// derivation. Changing it invalidates every previously sealed bundle.
var hkdfInfoLocalSeal = []byte("substrate.proof.local.v1")

// DeriveLocalKey derives the local-seal key from a master key via
// HKDF-SHA256 with the local-seal domain info. The master key must be
// KeySize bytes.
func DeriveLocalKey(masterKey []byte) ([]byte, error) {
	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("proof: master key is %d bytes, want %d", len(masterKey), KeySize)
	}
	derived := make([]byte, KeySize)
	reader := hkdf.New(sha256.New, masterKey, nil, hkdfInfoLocalSeal)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("proof: HKDF key derivation failed: %w", err)
	}
	return derived, nil
}

// EncryptLocal encrypts a packed bundle with XChaCha20-Poly1305 under
// a derived key, for audit stores on the same machine where age
// recipient management is overkill:
//
//	[version: 1 byte] [nonce: 24 bytes random] [ciphertext+tag]
func EncryptLocal(packed []byte, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("proof: creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("proof: generating random nonce: %w", err)
	}

	output := make([]byte, 1+chacha20poly1305.NonceSizeX,
		1+chacha20poly1305.NonceSizeX+len(packed)+aead.Overhead())
	output[0] = localSealVersion
	copy(output[1:], nonce[:])

	return aead.Seal(output, nonce[:], packed, []byte{localSealVersion}), nil
}

// DecryptLocal reverses EncryptLocal.
func DecryptLocal(blob []byte, key []byte) ([]byte, error) {
	minimum := 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(blob) < minimum {
		return nil, fmt.Errorf("proof: sealed blob is %d bytes, minimum is %d", len(blob), minimum)
	}
	if blob[0] != localSealVersion {
		return nil, fmt.Errorf("proof: sealed blob version %d is not supported (expected %d)",
			blob[0], localSealVersion)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("proof: creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := blob[1+chacha20poly1305.NonceSizeX:]
	packed, err := aead.Open(nil, nonce, ciphertext, []byte{localSealVersion})
	if err != nil {
		return nil, fmt.Errorf("proof: AEAD decryption failed (wrong key or tampered data): %w", err)
	}
	return packed, nil
}
