// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package proof

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// Seal encrypts a packed bundle to one or more age x25519 recipients
// and returns standard base64, suitable for audit logs or state
// stores that carry text. At least one recipient is required.
func Seal(packed []byte, recipientKeys []string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", fmt.Errorf("proof: at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return "", fmt.Errorf("proof: parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return "", fmt.Errorf("proof: creating age encryptor: %w", err)
	}
	if _, err := writer.Write(packed); err != nil {
		return "", fmt.Errorf("proof: writing bundle to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("proof: finalizing age encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Open decrypts a sealed bundle with an age private key
// (AGE-SECRET-KEY-1... format) and returns the packed bytes.
func Open(sealed string, privateKey string) ([]byte, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(privateKey))
	if err != nil {
		return nil, fmt.Errorf("proof: parsing private key: %w", err)
	}

	rawCiphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("proof: decoding base64 ciphertext: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(rawCiphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("proof: decrypting: %w", err)
	}
	packed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("proof: reading decrypted bundle: %w", err)
	}
	return packed, nil
}

// GenerateRecipient generates a fresh age x25519 keypair for bundle
// sealing. Returns (publicKey, privateKey). The private key must be
// handled as a secret by the caller.
func GenerateRecipient() (string, string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("proof: generating age keypair: %w", err)
	}
	return identity.Recipient().String(), identity.String(), nil
}
