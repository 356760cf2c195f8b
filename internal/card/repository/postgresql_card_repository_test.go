package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
)

func testCard() *cardDomain.Card {
	now := time.Now().UTC()
	return &cardDomain.Card{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		ExternalCardID:    "ext-card-1",
		ExternalAccountID: "ext-acct-1",
		Type:              cardDomain.CardTypeVirtual,
		Scheme:            cardDomain.CardSchemeVisa,
		Status:            cardDomain.CardStatusActive,
		LastFourDigits:    "4242",
		ExpiryMonth:       8,
		ExpiryYear:        2029,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestPostgreSQLCardRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLCardRepository(db)
	card := testCard()

	mock.ExpectExec("INSERT INTO cards").
		WithArgs(
			card.ID, card.UserID, card.ExternalCardID, card.ExternalAccountID,
			card.Type, card.Scheme, card.Status, card.LastFourDigits,
			card.ExpiryMonth, card.ExpiryYear, card.CreatedAt, card.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), card))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLCardRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLCardRepository(db)
	card := testCard()

	t.Run("updates an existing card", func(t *testing.T) {
		mock.ExpectExec("UPDATE cards SET status").
			WithArgs(card.Status, card.UpdatedAt, card.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), card))
	})

	t.Run("missing card", func(t *testing.T) {
		mock.ExpectExec("UPDATE cards SET status").
			WithArgs(card.Status, card.UpdatedAt, card.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), card)
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLCardRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLCardRepository(db)
	card := testCard()

	columns := []string{
		"id", "user_id", "external_card_id", "external_account_id", "card_type", "scheme",
		"status", "last_four_digits", "expiry_month", "expiry_year", "created_at", "updated_at",
	}

	t.Run("returns the card", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).AddRow(
			card.ID, card.UserID, card.ExternalCardID, card.ExternalAccountID,
			card.Type, card.Scheme, card.Status, card.LastFourDigits,
			card.ExpiryMonth, card.ExpiryYear, card.CreatedAt, card.UpdatedAt,
		)
		mock.ExpectQuery("SELECT (.+) FROM cards").WithArgs(card.ID).WillReturnRows(rows)

		got, err := repo.Get(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.Equal(t, card.UserID, got.UserID)
		assert.Equal(t, cardDomain.CardStatusActive, got.Status)
		assert.Equal(t, "4242", got.LastFourDigits)
	})

	t.Run("missing card", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM cards").
			WithArgs(card.ID).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.Get(context.Background(), card.ID)
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
