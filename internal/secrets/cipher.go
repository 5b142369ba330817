// Package secrets encrypts provider credentials before they reach persistence.
//
// Ciphertexts are hex strings laid out as nonce || tag || ciphertext using
// AES-256-GCM with a 16-byte nonce. The key is derived once per process with
// scrypt from a shared passphrase and a constant salt. The constant salt is a
// known weakness (identical passphrases yield identical keys across
// deployments) kept so previously stored credentials remain decryptable.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	nonceSize = 16
	tagSize   = 16
	keySize   = 32

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

var kdfSalt = []byte("salt")

// ErrDecrypt is returned for every malformed or tampered blob. Callers treat
// it as "credential unusable".
var ErrDecrypt = errors.New("secrets: credential unusable")

// Cipher is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the key from passphrase. Derivation is deliberately slow;
// build one Cipher at startup and share it.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("secrets: empty passphrase")
	}
	key, err := scrypt.Key([]byte(passphrase), kdfSalt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	// Seal appends the tag after the ciphertext; the stored layout puts it first.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+len(sealed))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return hex.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure yields ErrDecrypt and
// nothing about the input is logged.
func (c *Cipher) Decrypt(blob string) (string, error) {
	data, err := hex.DecodeString(blob)
	if err != nil || len(data) < nonceSize+tagSize {
		return "", ErrDecrypt
	}
	// only the canonical lower-case encoding is accepted
	if hex.EncodeToString(data) != blob {
		return "", ErrDecrypt
	}
	nonce := data[:nonceSize]
	tag := data[nonceSize : nonceSize+tagSize]
	ct := data[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	pt, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(pt), nil
}
