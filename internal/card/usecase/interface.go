// Package usecase implements business logic orchestration for card lifecycle
// management. Card status always follows the issuer: every lifecycle operation
// calls out first and persists the mapped result, and blocking or closing a card
// retires the device tokens provisioned against it.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
)

// CardRepository defines the interface for Card persistence operations.
type CardRepository interface {
	Create(ctx context.Context, card *cardDomain.Card) error
	Update(ctx context.Context, card *cardDomain.Card) error
	Get(ctx context.Context, cardID uuid.UUID) (*cardDomain.Card, error)
}

// TokenDeactivator retires device tokens when their card becomes unusable.
// Implemented by the token provisioning use case.
type TokenDeactivator interface {
	DeactivateAllForCard(ctx context.Context, cardID uuid.UUID) (int, error)
}

// CreateVirtualCardInput carries the request to mint a virtual card.
type CreateVirtualCardInput struct {
	UserID            uuid.UUID
	CardholderName    string
	Currency          string
	ExternalAccountID string
}

// CardUseCase defines the interface for card lifecycle business logic.
type CardUseCase interface {
	// CreateVirtualCard mints a virtual card at the issuer and persists the local record.
	CreateVirtualCard(ctx context.Context, input CreateVirtualCardInput) (*cardDomain.Card, error)
	// Get returns a card owned by the user.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error)
	// Block suspends the card at the issuer and retires its device tokens.
	Block(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error)
	// Unblock lifts a suspension at the issuer.
	Unblock(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error)
	// SyncStatus pulls the issuer-side status and reconciles the local record,
	// retiring device tokens when the card is no longer usable.
	SyncStatus(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error)
}
