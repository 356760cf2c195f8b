package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	"github.com/hcepay/hcepay/internal/issuer"
)

// fakeCardRepository is an in-memory CardRepository.
type fakeCardRepository struct {
	mu    sync.Mutex
	cards map[uuid.UUID]cardDomain.Card
}

func newFakeCardRepository() *fakeCardRepository {
	return &fakeCardRepository{cards: make(map[uuid.UUID]cardDomain.Card)}
}

func (f *fakeCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[card.ID] = *card
	return nil
}

func (f *fakeCardRepository) Update(ctx context.Context, card *cardDomain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[card.ID]; !ok {
		return cardDomain.ErrCardNotFound
	}
	f.cards[card.ID] = *card
	return nil
}

func (f *fakeCardRepository) Get(ctx context.Context, cardID uuid.UUID) (*cardDomain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[cardID]
	if !ok {
		return nil, cardDomain.ErrCardNotFound
	}
	return &card, nil
}

// fakeDeactivator records fan-out calls.
type fakeDeactivator struct {
	mu     sync.Mutex
	calls  []uuid.UUID
	count  int
	retErr error
}

func (f *fakeDeactivator) DeactivateAllForCard(ctx context.Context, cardID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cardID)
	return f.count, f.retErr
}

type cardUseCaseFixture struct {
	useCase     CardUseCase
	repo        *fakeCardRepository
	dev         *issuer.DevIssuer
	deactivator *fakeDeactivator
}

func newCardUseCaseFixture() *cardUseCaseFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeCardRepository()
	dev := issuer.NewDevIssuer(logger)
	deactivator := &fakeDeactivator{}
	return &cardUseCaseFixture{
		useCase:     NewCardUseCase(repo, dev, deactivator, logger),
		repo:        repo,
		dev:         dev,
		deactivator: deactivator,
	}
}

func (f *cardUseCaseFixture) createCard(t *testing.T, userID uuid.UUID) *cardDomain.Card {
	t.Helper()
	card, err := f.useCase.CreateVirtualCard(context.Background(), CreateVirtualCardInput{
		UserID:            userID,
		CardholderName:    "JANE DOE",
		Currency:          "EUR",
		ExternalAccountID: "acct-1",
	})
	require.NoError(t, err)
	return card
}

func TestCardUseCase_CreateVirtualCard(t *testing.T) {
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())

	card := fixture.createCard(t, userID)

	assert.Equal(t, userID, card.UserID)
	assert.Equal(t, cardDomain.CardTypeVirtual, card.Type)
	assert.Equal(t, cardDomain.CardSchemeVisa, card.Scheme)
	assert.Equal(t, cardDomain.CardStatusActive, card.Status)
	assert.NotEmpty(t, card.ExternalCardID)
	assert.Len(t, card.LastFourDigits, 4)

	stored, err := fixture.repo.Get(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ExternalCardID, stored.ExternalCardID)
}

func TestCardUseCase_CreateVirtualCard_IssuerUnavailable(t *testing.T) {
	fixture := newCardUseCaseFixture()
	fixture.dev.SetUnavailable(true)

	_, err := fixture.useCase.CreateVirtualCard(context.Background(), CreateVirtualCardInput{
		UserID: uuid.Must(uuid.NewV7()),
	})
	assert.ErrorIs(t, err, issuer.ErrProviderUnavailable)
	assert.Empty(t, fixture.repo.cards)
}

func TestCardUseCase_Get(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	t.Run("owner sees the card", func(t *testing.T) {
		got, err := fixture.useCase.Get(ctx, userID, card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
	})

	t.Run("other users get not found", func(t *testing.T) {
		_, err := fixture.useCase.Get(ctx, uuid.Must(uuid.NewV7()), card.ID)
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})

	t.Run("unknown card", func(t *testing.T) {
		_, err := fixture.useCase.Get(ctx, userID, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})
}

func TestCardUseCase_Block(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	blocked, err := fixture.useCase.Block(ctx, userID, card.ID)
	require.NoError(t, err)

	assert.Equal(t, cardDomain.CardStatusBlocked, blocked.Status)
	assert.True(t, blocked.UpdatedAt.After(card.UpdatedAt) || blocked.UpdatedAt.Equal(card.UpdatedAt))

	// Blocking retires the card's device tokens
	require.Len(t, fixture.deactivator.calls, 1)
	assert.Equal(t, card.ID, fixture.deactivator.calls[0])
}

func TestCardUseCase_Block_IssuerUnavailable(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	fixture.dev.SetUnavailable(true)
	_, err := fixture.useCase.Block(ctx, userID, card.ID)
	assert.ErrorIs(t, err, issuer.ErrProviderUnavailable)

	// No local status change and no token fan-out on issuer failure
	stored, repoErr := fixture.repo.Get(ctx, card.ID)
	require.NoError(t, repoErr)
	assert.Equal(t, cardDomain.CardStatusActive, stored.Status)
	assert.Empty(t, fixture.deactivator.calls)
}

func TestCardUseCase_Unblock(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	_, err := fixture.useCase.Block(ctx, userID, card.ID)
	require.NoError(t, err)

	unblocked, err := fixture.useCase.Unblock(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, cardDomain.CardStatusActive, unblocked.Status)
}

func TestCardUseCase_ClosedCardRejectsLifecycleOps(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	fixture.dev.SetCardStatus(card.ExternalCardID, issuer.CardStatusTerminated)
	closed, err := fixture.useCase.SyncStatus(ctx, userID, card.ID)
	require.NoError(t, err)
	require.Equal(t, cardDomain.CardStatusClosed, closed.Status)

	_, err = fixture.useCase.Block(ctx, userID, card.ID)
	assert.ErrorIs(t, err, cardDomain.ErrCardClosed)

	_, err = fixture.useCase.Unblock(ctx, userID, card.ID)
	assert.ErrorIs(t, err, cardDomain.ErrCardClosed)
}

func TestCardUseCase_SyncStatus(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	t.Run("no change is a no-op", func(t *testing.T) {
		synced, err := fixture.useCase.SyncStatus(ctx, userID, card.ID)
		require.NoError(t, err)
		assert.Equal(t, cardDomain.CardStatusActive, synced.Status)
		assert.Empty(t, fixture.deactivator.calls)
	})

	t.Run("issuer suspension blocks locally and retires tokens", func(t *testing.T) {
		fixture.dev.SetCardStatus(card.ExternalCardID, issuer.CardStatusSuspended)

		synced, err := fixture.useCase.SyncStatus(ctx, userID, card.ID)
		require.NoError(t, err)
		assert.Equal(t, cardDomain.CardStatusBlocked, synced.Status)
		require.Len(t, fixture.deactivator.calls, 1)
		assert.Equal(t, card.ID, fixture.deactivator.calls[0])
	})

	t.Run("fan-out failure does not fail the sync", func(t *testing.T) {
		fixture.deactivator.retErr = assert.AnError
		fixture.dev.SetCardStatus(card.ExternalCardID, issuer.CardStatusTerminated)

		synced, err := fixture.useCase.SyncStatus(ctx, userID, card.ID)
		require.NoError(t, err)
		assert.Equal(t, cardDomain.CardStatusClosed, synced.Status)
	})
}

func TestCardUseCase_UpdatedAtAdvances(t *testing.T) {
	ctx := context.Background()
	fixture := newCardUseCaseFixture()
	userID := uuid.Must(uuid.NewV7())
	card := fixture.createCard(t, userID)

	time.Sleep(time.Millisecond)
	blocked, err := fixture.useCase.Block(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.True(t, blocked.UpdatedAt.After(card.CreatedAt))
}
