// Package cipher implements the symmetric cryptography primitives sshram's
// container format is built on: Argon2i for password-based key derivation,
// and an AEAD over [chacha20poly1305] for sealing the key body.
package cipher

import (
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen defines the key length in bytes of a derived encryption key.
const KeyLen = chacha20poly1305.KeySize

// TagLen is the length in bytes of the AEAD authentication tag.
const TagLen = chacha20poly1305.Overhead

// Argon2i parameters. This tuple is part of the on-disk container contract:
// a decoder must derive with the exact values an encoder used, so these are
// fixed constants rather than configurable knobs.
const (
	Argon2Time      = 100
	Argon2MemoryKiB = 1 << 16
	Argon2Threads   = 1
)

// DeriveKey derives a KeyLen-byte key from passphrase and salt using
// Argon2i with sshram's fixed parameters.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.Key(passphrase, salt, Argon2Time, Argon2MemoryKiB, Argon2Threads, KeyLen)
}

// Seal encrypts plaintext under key and nonce with no associated data. dst
// supplies the backing storage for the sealed output (its capacity must be
// at least len(plaintext)+TagLen); the returned ciphertext and tag are
// disjoint slices into it, split apart because sshram's container format
// stores salt, nonce, tag, and ciphertext separately rather than as the
// AEAD's native ciphertext||tag concatenation.
func Seal(dst, key, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize cipher: %w", err)
	}
	sealed := aead.Seal(dst[:0], nonce, plaintext, nil)
	return sealed[:len(sealed)-TagLen], sealed[len(sealed)-TagLen:], nil
}

// Open verifies and decrypts ciphertext against tag under key and nonce,
// writing the plaintext into dst (capacity at least len(ciphertext)). It
// fails if authentication does not succeed, and in that case no output
// bytes are meaningful.
func Open(dst, key, nonce, ciphertext, tag []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("initialize cipher: %w", err)
	}
	combined := append(append([]byte{}, ciphertext...), tag...)
	out, err := aead.Open(dst[:0], nonce, combined, nil)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return out, nil
}
