// Package repository implements device token persistence for PostgreSQL and
// MySQL. Tokens are never deleted by normal operations: deactivation is a
// status write and every query that feeds token use filters on status in SQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hcepay/hcepay/internal/database"
	apperrors "github.com/hcepay/hcepay/internal/errors"
	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

const postgresTokenColumns = `id, user_id, card_id, external_card_id, device_fingerprint,
			  encrypted_dpan, encrypted_session_key, encrypted_emv_keys, token_reference_id,
			  atc, scheme, status, expiry_month, expiry_year, session_key_expires_at,
			  created_at, updated_at`

// PostgreSQLTokenRepository implements DeviceToken persistence for PostgreSQL databases.
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new device token into the PostgreSQL database.
func (p *PostgreSQLTokenRepository) Create(ctx context.Context, token *tokenDomain.DeviceToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO hce_tokens (` + postgresTokenColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.UserID,
		token.CardID,
		token.ExternalCardID,
		token.DeviceFingerprint,
		token.EncryptedDPAN,
		token.EncryptedSessionKey,
		token.EncryptedEMVKeys,
		token.TokenReferenceID,
		token.ATC,
		token.Scheme,
		token.Status,
		token.ExpiryMonth,
		token.ExpiryYear,
		token.SessionKeyExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token")
	}
	return nil
}

// Update persists the mutable token fields: session key ciphertext, ATC,
// status, expiry, and the updated timestamp.
func (p *PostgreSQLTokenRepository) Update(ctx context.Context, token *tokenDomain.DeviceToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE hce_tokens
			  SET encrypted_session_key = $1, atc = $2, status = $3, session_key_expires_at = $4, updated_at = $5
			  WHERE id = $6`

	result, err := querier.ExecContext(
		ctx,
		query,
		token.EncryptedSessionKey,
		token.ATC,
		token.Status,
		token.SessionKeyExpiresAt,
		token.UpdatedAt,
		token.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update token")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check token update result")
	}
	if rows == 0 {
		return tokenDomain.ErrTokenNotFound
	}
	return nil
}

// Get retrieves a device token by its identifier.
func (p *PostgreSQLTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + `
			  FROM hce_tokens
			  WHERE id = $1
			  LIMIT 1`

	row := querier.QueryRowContext(ctx, query, tokenID)
	token, err := scanPostgresToken(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tokenDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get token")
	}
	return token, nil
}

// GetActiveByCardAndDevice returns the active tokens for one card+device pairing.
func (p *PostgreSQLTokenRepository) GetActiveByCardAndDevice(
	ctx context.Context,
	cardID uuid.UUID,
	deviceFingerprint string,
) ([]*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + `
			  FROM hce_tokens
			  WHERE card_id = $1 AND device_fingerprint = $2 AND status = $3
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, cardID, deviceFingerprint, tokenDomain.TokenStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get tokens by card and device")
	}
	return collectPostgresTokens(rows)
}

// GetActiveByCard returns all active tokens referencing a card, across devices.
func (p *PostgreSQLTokenRepository) GetActiveByCard(
	ctx context.Context,
	cardID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + `
			  FROM hce_tokens
			  WHERE card_id = $1 AND status = $2
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, cardID, tokenDomain.TokenStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get tokens by card")
	}
	return collectPostgresTokens(rows)
}

// GetActiveByUser returns all active tokens owned by a user.
func (p *PostgreSQLTokenRepository) GetActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + `
			  FROM hce_tokens
			  WHERE user_id = $1 AND status = $2
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, userID, tokenDomain.TokenStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get tokens by user")
	}
	return collectPostgresTokens(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresToken(row rowScanner) (*tokenDomain.DeviceToken, error) {
	var token tokenDomain.DeviceToken
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.CardID,
		&token.ExternalCardID,
		&token.DeviceFingerprint,
		&token.EncryptedDPAN,
		&token.EncryptedSessionKey,
		&token.EncryptedEMVKeys,
		&token.TokenReferenceID,
		&token.ATC,
		&token.Scheme,
		&token.Status,
		&token.ExpiryMonth,
		&token.ExpiryYear,
		&token.SessionKeyExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func collectPostgresTokens(rows *sql.Rows) ([]*tokenDomain.DeviceToken, error) {
	defer rows.Close()

	var tokens []*tokenDomain.DeviceToken
	for rows.Next() {
		token, err := scanPostgresToken(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan token")
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read tokens")
	}
	return tokens, nil
}

// NewPostgreSQLTokenRepository creates a PostgreSQL-backed token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}
