package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	"github.com/hcepay/hcepay/internal/database"
	apperrors "github.com/hcepay/hcepay/internal/errors"
)

// MySQLCardRepository implements Card persistence for MySQL databases.
type MySQLCardRepository struct {
	db *sql.DB
}

// Create inserts a new card into the MySQL database.
func (m *MySQLCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO cards (id, user_id, external_card_id, external_account_id, card_type, scheme, status,
			  last_four_digits, expiry_month, expiry_year, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := card.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal card id")
	}

	userID, err := card.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
		card.ExternalCardID,
		card.ExternalAccountID,
		card.Type,
		card.Scheme,
		card.Status,
		card.LastFourDigits,
		card.ExpiryMonth,
		card.ExpiryYear,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create card")
	}

	return nil
}

// Update persists status and timestamp changes for an existing card.
func (m *MySQLCardRepository) Update(ctx context.Context, card *cardDomain.Card) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE cards SET status = ?, updated_at = ? WHERE id = ?`

	id, err := card.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal card id")
	}

	result, err := querier.ExecContext(ctx, query, card.Status, card.UpdatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update card")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check card update result")
	}
	if rows == 0 {
		return cardDomain.ErrCardNotFound
	}

	return nil
}

// Get retrieves a card by its identifier.
func (m *MySQLCardRepository) Get(ctx context.Context, cardID uuid.UUID) (*cardDomain.Card, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, external_card_id, external_account_id, card_type, scheme, status,
			  last_four_digits, expiry_month, expiry_year, created_at, updated_at
			  FROM cards
			  WHERE id = ?
			  LIMIT 1`

	id, err := cardID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal card id")
	}

	var card cardDomain.Card
	var rawID, rawUserID []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&rawID,
		&rawUserID,
		&card.ExternalCardID,
		&card.ExternalAccountID,
		&card.Type,
		&card.Scheme,
		&card.Status,
		&card.LastFourDigits,
		&card.ExpiryMonth,
		&card.ExpiryYear,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cardDomain.ErrCardNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get card")
	}

	if err := card.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal card id")
	}

	if err := card.UserID.UnmarshalBinary(rawUserID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	return &card, nil
}

// NewMySQLCardRepository creates a new MySQL card repository instance.
func NewMySQLCardRepository(db *sql.DB) *MySQLCardRepository {
	return &MySQLCardRepository{db: db}
}
