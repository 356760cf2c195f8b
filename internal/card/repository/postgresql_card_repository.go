// Package repository implements card persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	"github.com/hcepay/hcepay/internal/database"
	apperrors "github.com/hcepay/hcepay/internal/errors"
)

// PostgreSQLCardRepository implements Card persistence for PostgreSQL databases.
type PostgreSQLCardRepository struct {
	db *sql.DB
}

// Create inserts a new card into the PostgreSQL database.
func (p *PostgreSQLCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO cards (id, user_id, external_card_id, external_account_id, card_type, scheme, status,
			  last_four_digits, expiry_month, expiry_year, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		card.ID,
		card.UserID,
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
func (p *PostgreSQLCardRepository) Update(ctx context.Context, card *cardDomain.Card) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE cards SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, card.Status, card.UpdatedAt, card.ID)
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
func (p *PostgreSQLCardRepository) Get(ctx context.Context, cardID uuid.UUID) (*cardDomain.Card, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, external_card_id, external_account_id, card_type, scheme, status,
			  last_four_digits, expiry_month, expiry_year, created_at, updated_at
			  FROM cards
			  WHERE id = $1
			  LIMIT 1`

	var card cardDomain.Card
	err := querier.QueryRowContext(ctx, query, cardID).Scan(
		&card.ID,
		&card.UserID,
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

	return &card, nil
}

// NewPostgreSQLCardRepository creates a PostgreSQL-backed card repository.
func NewPostgreSQLCardRepository(db *sql.DB) *PostgreSQLCardRepository {
	return &PostgreSQLCardRepository{db: db}
}
