package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hcepay/hcepay/internal/metrics"
	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

// provisioningUseCaseWithMetrics decorates ProvisioningUseCase with metrics instrumentation.
type provisioningUseCaseWithMetrics struct {
	next    ProvisioningUseCase
	metrics metrics.BusinessMetrics
}

// NewProvisioningUseCaseWithMetrics wraps a ProvisioningUseCase with metrics recording.
func NewProvisioningUseCaseWithMetrics(useCase ProvisioningUseCase, m metrics.BusinessMetrics) ProvisioningUseCase {
	return &provisioningUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (p *provisioningUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "token", operation, status)
	p.metrics.RecordDuration(ctx, "token", operation, time.Since(start), status)
}

// Provision records metrics for token provisioning operations.
func (p *provisioningUseCaseWithMetrics) Provision(
	ctx context.Context,
	userID, cardID uuid.UUID,
	deviceFingerprint string,
) (*tokenDomain.DeviceToken, error) {
	start := time.Now()
	token, err := p.next.Provision(ctx, userID, cardID, deviceFingerprint)
	p.record(ctx, "provision", start, err)
	return token, err
}

// GetPaymentPayload records metrics for payload reads.
func (p *provisioningUseCaseWithMetrics) GetPaymentPayload(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.PaymentPayload, error) {
	start := time.Now()
	payload, err := p.next.GetPaymentPayload(ctx, userID, tokenID)
	p.record(ctx, "get_payment_payload", start, err)
	return payload, err
}

// RefreshSessionKey records metrics for session key refreshes.
func (p *provisioningUseCaseWithMetrics) RefreshSessionKey(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.SessionKeyRefresh, error) {
	start := time.Now()
	refresh, err := p.next.RefreshSessionKey(ctx, userID, tokenID)
	p.record(ctx, "refresh_session_key", start, err)
	return refresh, err
}

// Deactivate records metrics for token deactivations.
func (p *provisioningUseCaseWithMetrics) Deactivate(ctx context.Context, userID, tokenID uuid.UUID) error {
	start := time.Now()
	err := p.next.Deactivate(ctx, userID, tokenID)
	p.record(ctx, "deactivate", start, err)
	return err
}

// DeactivateAllForCard records metrics for card-wide token deactivations.
func (p *provisioningUseCaseWithMetrics) DeactivateAllForCard(
	ctx context.Context,
	cardID uuid.UUID,
) (int, error) {
	start := time.Now()
	count, err := p.next.DeactivateAllForCard(ctx, cardID)
	p.record(ctx, "deactivate_all_for_card", start, err)
	return count, err
}

// ListActiveForUser records metrics for token listings.
func (p *provisioningUseCaseWithMetrics) ListActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	start := time.Now()
	tokens, err := p.next.ListActiveForUser(ctx, userID)
	p.record(ctx, "list_active_for_user", start, err)
	return tokens, err
}
