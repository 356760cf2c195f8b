package domain

// Algorithm represents the AEAD algorithm used to protect token material at rest.
//
// Both supported algorithms provide Authenticated Encryption with Associated Data,
// ensuring confidentiality and authenticity of the stored DPAN, session keys, and
// EMV key bundles. Use AESGCM on hosts with AES-NI, ChaCha20 elsewhere.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// 256-bit key, 12-byte nonce, 16-byte authentication tag.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	// 256-bit key, 12-byte nonce, 16-byte tag, constant-time in software.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required key length in bytes for both algorithms.
const KeySize = 32
