package service

import (
	"encoding/base64"

	cryptoDomain "github.com/hcepay/hcepay/internal/crypto/domain"
	apperrors "github.com/hcepay/hcepay/internal/errors"
)

// tokenCipher implements TokenCipher over an AEAD. Ciphertext layout is
// base64(nonce || ciphertext || tag); the nonce travels with the blob so a
// single process-wide key can decrypt any stored field.
type tokenCipher struct {
	aead AEAD
}

// NewTokenCipher creates the token cipher from a 32-byte key and algorithm.
// The key is process-wide configuration loaded once at startup; rotating it
// requires a coordinated re-encryption pass over all stored tokens.
func NewTokenCipher(key []byte, alg cryptoDomain.Algorithm) (TokenCipher, error) {
	aead, err := NewAEAD(key, alg)
	if err != nil {
		return nil, err
	}
	return &tokenCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh nonce and encodes the result.
func (t *tokenCipher) Encrypt(plaintext []byte) (string, error) {
	ciphertext, nonce, err := t.aead.Encrypt(plaintext, nil)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encrypt token material")
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt decodes and opens a ciphertext string. Any decode, truncation, or
// authentication failure is reported as ErrDecryptionFailed; partial or
// unauthenticated plaintext is never returned.
func (t *tokenCipher) Decrypt(ciphertext string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	nonceSize := t.aead.NonceSize()
	if len(blob) < nonceSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := t.aead.Decrypt(blob[nonceSize:], blob[:nonceSize], nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}
