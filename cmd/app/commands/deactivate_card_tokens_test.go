package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

// stubProvisioning implements the provisioning use case; only the fan-out
// deactivation is exercised by the command.
type stubProvisioning struct {
	deactivatedCard uuid.UUID
	count           int
	err             error
}

func (s *stubProvisioning) Provision(
	ctx context.Context,
	userID, cardID uuid.UUID,
	deviceFingerprint string,
) (*tokenDomain.DeviceToken, error) {
	panic("not used")
}

func (s *stubProvisioning) GetPaymentPayload(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.PaymentPayload, error) {
	panic("not used")
}

func (s *stubProvisioning) RefreshSessionKey(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.SessionKeyRefresh, error) {
	panic("not used")
}

func (s *stubProvisioning) Deactivate(ctx context.Context, userID, tokenID uuid.UUID) error {
	panic("not used")
}

func (s *stubProvisioning) DeactivateAllForCard(ctx context.Context, cardID uuid.UUID) (int, error) {
	s.deactivatedCard = cardID
	return s.count, s.err
}

func (s *stubProvisioning) ListActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	panic("not used")
}

func TestRunDeactivateCardTokens(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cardID := uuid.Must(uuid.NewV7())

	t.Run("success", func(t *testing.T) {
		stub := &stubProvisioning{count: 3}

		err := RunDeactivateCardTokens(ctx, stub, logger, cardID.String())
		require.NoError(t, err)
		assert.Equal(t, cardID, stub.deactivatedCard)
	})

	t.Run("invalid card id", func(t *testing.T) {
		err := RunDeactivateCardTokens(ctx, &stubProvisioning{}, logger, "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid card id")
	})

	t.Run("use case failure", func(t *testing.T) {
		stub := &stubProvisioning{err: errors.New("db down")}

		err := RunDeactivateCardTokens(ctx, stub, logger, cardID.String())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to deactivate tokens")
	})
}
