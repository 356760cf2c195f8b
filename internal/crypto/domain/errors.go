package domain

import (
	"github.com/hcepay/hcepay/internal/errors"
)

var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not
	// supported. Supported: aes-gcm, chacha20-poly1305.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the encryption key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates stored ciphertext could not be authenticated or
	// decrypted (tampering, truncation, or wrong key). Deliberately NOT an
	// invalid-input error: a failure here means key misconfiguration or data
	// corruption, never a caller mistake, and must surface as an internal error.
	ErrDecryptionFailed = errors.New("decryption failed")
)
