// Package service provides the cryptographic services protecting device-token
// secret material: AEAD ciphers, the token cipher used by the provisioning flow,
// and KMS-based unwrapping of the process-wide encryption key.
package service

import (
	"context"

	cryptoDomain "github.com/hcepay/hcepay/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce length in bytes.
	NonceSize() int
}

// TokenCipher encrypts and decrypts device-token secret material (DPAN, session
// keys, EMV key bundles) for storage. Ciphertext is a self-contained opaque string;
// plaintext never leaves the process boundary except toward the paired device.
type TokenCipher interface {
	// Encrypt seals plaintext and returns an opaque ciphertext string.
	Encrypt(plaintext []byte) (string, error)

	// Decrypt opens a ciphertext string produced by Encrypt. Returns
	// domain.ErrDecryptionFailed on tampering, truncation, or wrong key;
	// it never returns unauthenticated plaintext.
	Decrypt(ciphertext string) ([]byte, error)
}

// KMSService wraps and unwraps the process-wide encryption key via a cloud or
// local KMS.
type KMSService interface {
	// WrapKey encrypts a data key using the KMS identified by keyURI.
	WrapKey(ctx context.Context, keyURI string, key []byte) ([]byte, error)

	// UnwrapKey decrypts a wrapped data key using the KMS identified by keyURI.
	UnwrapKey(ctx context.Context, keyURI string, wrapped []byte) ([]byte, error)
}

// NewAEAD creates an AEAD cipher instance for the specified algorithm.
func NewAEAD(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key)
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}
