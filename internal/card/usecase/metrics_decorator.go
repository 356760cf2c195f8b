package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	"github.com/hcepay/hcepay/internal/metrics"
)

// cardUseCaseWithMetrics decorates CardUseCase with metrics instrumentation.
type cardUseCaseWithMetrics struct {
	next    CardUseCase
	metrics metrics.BusinessMetrics
}

// NewCardUseCaseWithMetrics wraps a CardUseCase with metrics recording.
func NewCardUseCaseWithMetrics(useCase CardUseCase, m metrics.BusinessMetrics) CardUseCase {
	return &cardUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (c *cardUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "card", operation, status)
	c.metrics.RecordDuration(ctx, "card", operation, time.Since(start), status)
}

// CreateVirtualCard records metrics for card creation operations.
func (c *cardUseCaseWithMetrics) CreateVirtualCard(
	ctx context.Context,
	input CreateVirtualCardInput,
) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.CreateVirtualCard(ctx, input)
	c.record(ctx, "create_virtual_card", start, err)
	return card, err
}

// Get records metrics for card retrieval operations.
func (c *cardUseCaseWithMetrics) Get(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.Get(ctx, userID, cardID)
	c.record(ctx, "get", start, err)
	return card, err
}

// Block records metrics for card blocking operations.
func (c *cardUseCaseWithMetrics) Block(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.Block(ctx, userID, cardID)
	c.record(ctx, "block", start, err)
	return card, err
}

// Unblock records metrics for card unblocking operations.
func (c *cardUseCaseWithMetrics) Unblock(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.Unblock(ctx, userID, cardID)
	c.record(ctx, "unblock", start, err)
	return card, err
}

// SyncStatus records metrics for card status synchronization operations.
func (c *cardUseCaseWithMetrics) SyncStatus(ctx context.Context, userID, cardID uuid.UUID) (*cardDomain.Card, error) {
	start := time.Now()
	card, err := c.next.SyncStatus(ctx, userID, cardID)
	c.record(ctx, "sync_status", start, err)
	return card, err
}
