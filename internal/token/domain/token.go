// Package domain defines the core domain models for device-bound payment
// tokens. A DeviceToken binds a DPAN to exactly one physical device via its
// fingerprint; all secret material on the token is authenticated-encrypted
// ciphertext and is never held in plaintext outside the issuing flow.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenStatus is the local token lifecycle status. Deactivated is terminal.
type TokenStatus string

const (
	TokenStatusActive      TokenStatus = "active"
	TokenStatusDeactivated TokenStatus = "deactivated"
)

// DeviceToken is a device-bound payment token for one card+device pairing.
type DeviceToken struct {
	// ID is the unique identifier for the token.
	ID uuid.UUID
	// UserID identifies the owner.
	UserID uuid.UUID
	// CardID references the local card record.
	CardID uuid.UUID
	// ExternalCardID is the issuer's card identifier, denormalized for issuer calls.
	ExternalCardID string
	// DeviceFingerprint is the SHA-256 hex hash of device hardware identifiers.
	// It is the sole anchor binding the token to one physical device.
	DeviceFingerprint string
	// EncryptedDPAN is the device PAN as ciphertext.
	EncryptedDPAN string
	// EncryptedSessionKey is the current EMV session key as ciphertext.
	EncryptedSessionKey string
	// EncryptedEMVKeys is the JSON-encoded EMV key bundle as ciphertext.
	EncryptedEMVKeys string
	// TokenReferenceID identifies this token at the issuer.
	TokenReferenceID string
	// ATC is the Application Transaction Counter. It increases strictly
	// monotonically across the token's active lifetime.
	ATC int64
	// Scheme is the denormalized network scheme for APDU selection on the device.
	Scheme string
	// Status is the local lifecycle status.
	Status TokenStatus
	// ExpiryMonth is the DPAN expiry month (1-12).
	ExpiryMonth int
	// ExpiryYear is the four-digit DPAN expiry year.
	ExpiryYear int
	// SessionKeyExpiresAt is when the current session key stops being usable.
	SessionKeyExpiresAt time.Time
	// CreatedAt is the UTC creation timestamp.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last change.
	UpdatedAt time.Time
}

// Active reports whether the token is in the active state.
func (t *DeviceToken) Active() bool {
	return t.Status == TokenStatusActive
}

// SessionKeyExpired reports whether the session key expiry has passed.
func (t *DeviceToken) SessionKeyExpired(now time.Time) bool {
	return now.After(t.SessionKeyExpiresAt)
}

// Deactivate moves the token to its terminal state. Secret fields stay in
// place since status gates all use; the row is kept for audit.
func (t *DeviceToken) Deactivate(now time.Time) {
	t.Status = TokenStatusDeactivated
	t.UpdatedAt = now
}

// PaymentPayload is the material the wallet needs right before a tap. Secret
// fields remain ciphertext; only the paired device can decrypt them.
type PaymentPayload struct {
	TokenID             uuid.UUID
	EncryptedDPAN       string
	EncryptedSessionKey string
	EncryptedEMVKeys    string
	TokenReferenceID    string
	ATC                 int64
	Scheme              string
	ExpiryMonth         int
	ExpiryYear          int
	SessionKeyExpiresAt time.Time
}

// SessionKeyRefresh is the result of refreshing a token's session key.
type SessionKeyRefresh struct {
	TokenID             uuid.UUID
	ATC                 int64
	EncryptedSessionKey string
	SessionKeyExpiresAt time.Time
}
