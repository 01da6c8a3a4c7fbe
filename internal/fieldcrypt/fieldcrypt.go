// Package fieldcrypt encrypts individual database columns such as employee
// emergency contacts. Values are sealed with AES-256-GCM under a key derived from
// the configured secret with HKDF-SHA256.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	versionPrefix = "v1:"
	keyInfo       = "onrope field encryption v1"
	keySize       = 32
)

var (
	// ErrEmptySecret is returned when no secret is configured.
	ErrEmptySecret = errors.New("fieldcrypt: secret must not be empty")
	// ErrDecrypt is returned for tampered, truncated or foreign ciphertext.
	ErrDecrypt = errors.New("fieldcrypt: unable to decrypt value")
)

// Cipher seals and opens field values.
type Cipher struct {
	aead   cipher.AEAD
	random io.Reader
}

// New derives the column key from secret.
func New(secret string) (*Cipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("fieldcrypt: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: init gcm: %w", err)
	}
	return &Cipher{aead: aead, random: rand.Reader}, nil
}

// Encrypt returns "v1:" followed by base64(nonce || ciphertext). Empty input stays empty.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", fmt.Errorf("fieldcrypt: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(value, versionPrefix)
	if !ok {
		return "", ErrDecrypt
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", ErrDecrypt
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
