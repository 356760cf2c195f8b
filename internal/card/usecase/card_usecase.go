package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	"github.com/hcepay/hcepay/internal/issuer"
)

// cardUseCase implements the CardUseCase interface.
type cardUseCase struct {
	cardRepo    CardRepository
	cardIssuer  issuer.CardIssuer
	deactivator TokenDeactivator
	logger      *slog.Logger
}

// CreateVirtualCard mints a virtual card at the issuer and persists the local record.
func (c *cardUseCase) CreateVirtualCard(
	ctx context.Context,
	input CreateVirtualCardInput,
) (*cardDomain.Card, error) {
	virtualCard, err := c.cardIssuer.CreateVirtualCard(
		ctx,
		input.UserID.String(),
		input.CardholderName,
		input.Currency,
	)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &cardDomain.Card{
		ID:                uuid.Must(uuid.NewV7()),
		UserID:            input.UserID,
		ExternalCardID:    virtualCard.CardID,
		ExternalAccountID: input.ExternalAccountID,
		Type:              cardDomain.CardTypeVirtual,
		Scheme:            cardDomain.SchemeFromIssuer(virtualCard.Scheme),
		Status:            cardDomain.StatusFromIssuer(virtualCard.Status),
		LastFourDigits:    virtualCard.Last4,
		ExpiryMonth:       virtualCard.ExpiryMonth,
		ExpiryYear:        virtualCard.ExpiryYear,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := c.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	c.logger.Info("virtual card created",
		slog.String("card_id", card.ID.String()),
		slog.String("user_id", card.UserID.String()),
		slog.String("status", string(card.Status)),
	)

	return card, nil
}

// Get returns a card owned by the user. Cards belonging to other users are
// reported as not found rather than forbidden.
func (c *cardUseCase) Get(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	card, err := c.cardRepo.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, cardDomain.ErrCardNotFound
	}
	return card, nil
}

// Block suspends the card at the issuer, persists the new status, and retires
// every active device token provisioned against the card.
func (c *cardUseCase) Block(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	card, err := c.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status == cardDomain.CardStatusClosed {
		return nil, cardDomain.ErrCardClosed
	}

	state, err := c.cardIssuer.BlockCard(ctx, card.ExternalCardID)
	if err != nil {
		return nil, err
	}

	return c.applyStatus(ctx, card, cardDomain.StatusFromIssuer(state.Status))
}

// Unblock lifts a suspension at the issuer and persists the new status.
func (c *cardUseCase) Unblock(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	card, err := c.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status == cardDomain.CardStatusClosed {
		return nil, cardDomain.ErrCardClosed
	}

	state, err := c.cardIssuer.UnblockCard(ctx, card.ExternalCardID)
	if err != nil {
		return nil, err
	}

	return c.applyStatus(ctx, card, cardDomain.StatusFromIssuer(state.Status))
}

// SyncStatus reconciles the local card record with the issuer's view.
func (c *cardUseCase) SyncStatus(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	card, err := c.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	details, err := c.cardIssuer.GetCard(ctx, card.ExternalCardID)
	if err != nil {
		return nil, err
	}

	status := cardDomain.StatusFromIssuer(details.Status)
	if status == card.Status {
		return card, nil
	}

	return c.applyStatus(ctx, card, status)
}

// applyStatus persists a status change and retires device tokens when the card
// is no longer usable. Token retirement failures are logged, not surfaced: the
// status write is the authoritative outcome.
func (c *cardUseCase) applyStatus(
	ctx context.Context,
	card *cardDomain.Card,
	status cardDomain.CardStatus,
) (*cardDomain.Card, error) {
	card.Status = status
	card.UpdatedAt = time.Now().UTC()

	if err := c.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}

	c.logger.Info("card status updated",
		slog.String("card_id", card.ID.String()),
		slog.String("status", string(card.Status)),
	)

	if !card.Usable() {
		count, err := c.deactivator.DeactivateAllForCard(ctx, card.ID)
		if err != nil {
			c.logger.Error("failed to deactivate tokens for card",
				slog.String("card_id", card.ID.String()),
				slog.Any("error", err),
			)
		} else if count > 0 {
			c.logger.Info("deactivated tokens for card",
				slog.String("card_id", card.ID.String()),
				slog.Int("count", count),
			)
		}
	}

	return card, nil
}

// NewCardUseCase creates a new CardUseCase instance.
func NewCardUseCase(
	cardRepo CardRepository,
	cardIssuer issuer.CardIssuer,
	deactivator TokenDeactivator,
	logger *slog.Logger,
) CardUseCase {
	return &cardUseCase{
		cardRepo:    cardRepo,
		cardIssuer:  cardIssuer,
		deactivator: deactivator,
		logger:      logger,
	}
}
