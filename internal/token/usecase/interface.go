// Package usecase implements the device token provisioning flow: minting a
// DPAN onto one device, issuing and refreshing EMV session keys with a strictly
// monotonic ATC, and retiring tokens. All read-modify-write sequences are
// serialized per token (and per card+device pair during provisioning).
package usecase

import (
	"context"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

// TokenRepository defines the interface for DeviceToken persistence operations.
type TokenRepository interface {
	Create(ctx context.Context, token *tokenDomain.DeviceToken) error
	Update(ctx context.Context, token *tokenDomain.DeviceToken) error
	Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.DeviceToken, error)
	GetActiveByCardAndDevice(ctx context.Context, cardID uuid.UUID, deviceFingerprint string) ([]*tokenDomain.DeviceToken, error)
	GetActiveByCard(ctx context.Context, cardID uuid.UUID) ([]*tokenDomain.DeviceToken, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*tokenDomain.DeviceToken, error)
}

// CardRepository defines the card lookup needed by provisioning.
type CardRepository interface {
	Get(ctx context.Context, cardID uuid.UUID) (*cardDomain.Card, error)
}

// ProvisioningUseCase defines the interface for device token business logic.
type ProvisioningUseCase interface {
	// Provision mints a new device-bound token for the card on the device
	// identified by the fingerprint. Any prior active token for the same
	// card+device pair is retired first; afterwards exactly one active token
	// exists for the pair.
	Provision(ctx context.Context, userID, cardID uuid.UUID, deviceFingerprint string) (*tokenDomain.DeviceToken, error)

	// GetPaymentPayload returns the material the device needs for a tap.
	// Pure read: fails with ErrTokenNotActive or ErrSessionKeyExpired, never
	// returns stale payload data.
	GetPaymentPayload(ctx context.Context, userID, tokenID uuid.UUID) (*tokenDomain.PaymentPayload, error)

	// RefreshSessionKey re-validates the issuer-side token status and mints a
	// new session key with the next ATC, extending the expiry window.
	RefreshSessionKey(ctx context.Context, userID, tokenID uuid.UUID) (*tokenDomain.SessionKeyRefresh, error)

	// Deactivate retires a token: best-effort at the issuer, unconditionally
	// locally. Idempotent.
	Deactivate(ctx context.Context, userID, tokenID uuid.UUID) error

	// DeactivateAllForCard retires every active token referencing the card,
	// across all devices. Returns the number of tokens deactivated.
	DeactivateAllForCard(ctx context.Context, cardID uuid.UUID) (int, error)

	// ListActiveForUser returns the user's active tokens.
	ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]*tokenDomain.DeviceToken, error)
}
