// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secret seals the API key at rest.
//
// Values are protected with AES-256-GCM using a PBKDF2-SHA-256 derived
// key. Sealed values carry the "ENC:" prefix and encode salt, nonce, and
// ciphertext together, so a sealed value is self-describing given the
// passphrase.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// SealedPrefix marks a stored value as sealed.
const SealedPrefix = "ENC:"

const (
	nonceSize = 12
	keySize   = 32
	saltSize  = 16

	// OWASP-recommended iteration count for PBKDF2-SHA-256.
	pbkdf2Iterations = 600000
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCiphertext indicates the sealed value format is invalid.
	ErrInvalidCiphertext = errors.New("invalid sealed value format")

	// ErrOpenFailed indicates decryption failed: wrong passphrase or
	// tampered data.
	ErrOpenFailed = errors.New("failed to open sealed value")
)

// =============================================================================
// SEAL / OPEN
// =============================================================================

// IsSealed reports whether a stored value is sealed.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// Seal encrypts plaintext with a key derived from the passphrase.
// Output format: ENC:base64(salt | nonce | ciphertext).
func Seal(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := deriveKey(passphrase, salt)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	payload := make([]byte, 0, saltSize+nonceSize+len(sealed))
	payload = append(payload, salt...)
	payload = append(payload, nonce...)
	payload = append(payload, sealed...)

	return SealedPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// Open decrypts a sealed value. Passing an unsealed value returns it
// unchanged, so callers can treat plaintext and sealed storage uniformly.
func Open(value, passphrase string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(payload) < saltSize+nonceSize+1 {
		return "", ErrInvalidCiphertext
	}

	salt := payload[:saltSize]
	nonce := payload[saltSize : saltSize+nonceSize]
	ciphertext := payload[saltSize+nonceSize:]

	key := deriveKey(passphrase, salt)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrOpenFailed
	}
	return string(plaintext), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// deriveKey stretches the passphrase into an AES-256 key.
func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
}

// zero clears key material to limit exposure in memory dumps.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
