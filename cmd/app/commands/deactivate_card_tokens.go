package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	tokenUsecase "github.com/hcepay/hcepay/internal/token/usecase"
)

// RunDeactivateCardTokens retires every active device token provisioned against
// a card, across all devices. Operational escape hatch for compromised cards or
// issuer-side cleanups; the HTTP API performs the same fan-out on card block.
func RunDeactivateCardTokens(
	ctx context.Context,
	provisioningUseCase tokenUsecase.ProvisioningUseCase,
	logger *slog.Logger,
	cardIDStr string,
) error {
	cardID, err := uuid.Parse(cardIDStr)
	if err != nil {
		return fmt.Errorf("invalid card id %q: %w", cardIDStr, err)
	}

	count, err := provisioningUseCase.DeactivateAllForCard(ctx, cardID)
	if err != nil {
		return fmt.Errorf("failed to deactivate tokens for card %s: %w", cardID, err)
	}

	logger.Info("card tokens deactivated",
		slog.String("card_id", cardID.String()),
		slog.Int("count", count),
	)

	fmt.Printf("Deactivated %d token(s) for card %s\n", count, cardID)
	return nil
}
