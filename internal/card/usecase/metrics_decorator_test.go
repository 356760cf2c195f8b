package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMetrics captures metric calls for assertions.
type recordingMetrics struct {
	mu         sync.Mutex
	operations []string
	statuses   []string
	durations  int
}

func (r *recordingMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, domain+"."+operation)
	r.statuses = append(r.statuses, status)
}

func (r *recordingMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func TestCardUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	recorder := &recordingMetrics{}
	decorated := NewCardUseCaseWithMetrics(fixture.useCase, recorder)

	userID := uuid.Must(uuid.NewV7())

	card, err := decorated.CreateVirtualCard(ctx, CreateVirtualCardInput{
		UserID:         userID,
		CardholderName: "JANE DOE",
		Currency:       "EUR",
	})
	require.NoError(t, err)

	_, err = decorated.Get(ctx, userID, card.ID)
	require.NoError(t, err)

	_, err = decorated.Get(ctx, userID, uuid.Must(uuid.NewV7()))
	require.Error(t, err)

	assert.Equal(t, []string{"card.create_virtual_card", "card.get", "card.get"}, recorder.operations)
	assert.Equal(t, []string{"success", "success", "error"}, recorder.statuses)
	assert.Equal(t, 3, recorder.durations)
}
