// Package secrets provides field-level symmetric encryption for credential
// data. Each string field is sealed individually so partial updates never
// require decrypting untouched fields.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrInvalidCiphertext = errors.New("secrets: invalid ciphertext")

// Box seals and opens individual string fields with a process-wide key.
type Box struct {
	key []byte
}

// NewBox derives a fixed-size key from the configured secret.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, errors.New("secrets: empty secret key")
	}
	sum := sha256.Sum256([]byte(secret))
	return &Box{key: sum[:]}, nil
}

// Seal encrypts a single field value. The output is base64(nonce||ciphertext).
func (b *Box) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("secrets: init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a field value produced by Seal.
func (b *Box) Open(encoded string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("secrets: init cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

// Compare opens the stored ciphertext and checks the candidate against it in
// constant time. A ciphertext that fails to open never matches.
func (b *Box) Compare(encoded, candidate string) bool {
	plaintext, err := b.Open(encoded)
	if err != nil {
		return false
	}
	return ConstantTimeEquals(plaintext, candidate)
}

// ConstantTimeEquals compares two strings without leaking a timing signal on
// the matching prefix length.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
