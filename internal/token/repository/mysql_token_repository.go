package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hcepay/hcepay/internal/database"
	apperrors "github.com/hcepay/hcepay/internal/errors"
	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

const mysqlTokenColumns = `id, user_id, card_id, external_card_id, device_fingerprint,
			  encrypted_dpan, encrypted_session_key, encrypted_emv_keys, token_reference_id,
			  atc, scheme, status, expiry_month, expiry_year, session_key_expires_at,
			  created_at, updated_at`

// MySQLTokenRepository implements DeviceToken persistence for MySQL databases.
type MySQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new device token into the MySQL database.
func (m *MySQLTokenRepository) Create(ctx context.Context, token *tokenDomain.DeviceToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO hce_tokens (` + mysqlTokenColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	userID, err := token.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	cardID, err := token.CardID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal card id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
		cardID,
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
func (m *MySQLTokenRepository) Update(ctx context.Context, token *tokenDomain.DeviceToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE hce_tokens
			  SET encrypted_session_key = ?, atc = ?, status = ?, session_key_expires_at = ?, updated_at = ?
			  WHERE id = ?`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		token.EncryptedSessionKey,
		token.ATC,
		token.Status,
		token.SessionKeyExpiresAt,
		token.UpdatedAt,
		id,
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
func (m *MySQLTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlTokenColumns + `
			  FROM hce_tokens
			  WHERE id = ?
			  LIMIT 1`

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal token id")
	}

	row := querier.QueryRowContext(ctx, query, id)
	token, err := scanMySQLToken(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tokenDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get token")
	}

	return token, nil
}

// GetActiveByCardAndDevice returns the active tokens for one card+device pairing.
func (m *MySQLTokenRepository) GetActiveByCardAndDevice(
	ctx context.Context,
	cardID uuid.UUID,
	deviceFingerprint string,
) ([]*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlTokenColumns + `
			  FROM hce_tokens
			  WHERE card_id = ? AND device_fingerprint = ? AND status = ?
			  ORDER BY created_at`

	id, err := cardID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal card id")
	}

	rows, err := querier.QueryContext(ctx, query, id, deviceFingerprint, tokenDomain.TokenStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get tokens by card and device")
	}
	return collectMySQLTokens(rows)
}

// GetActiveByCard returns all active tokens referencing a card, across devices.
func (m *MySQLTokenRepository) GetActiveByCard(
	ctx context.Context,
	cardID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlTokenColumns + `
			  FROM hce_tokens
			  WHERE card_id = ? AND status = ?
			  ORDER BY created_at`

	id, err := cardID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal card id")
	}

	rows, err := querier.QueryContext(ctx, query, id, tokenDomain.TokenStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get tokens by card")
	}
	return collectMySQLTokens(rows)
}

// GetActiveByUser returns all active tokens owned by a user.
func (m *MySQLTokenRepository) GetActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlTokenColumns + `
			  FROM hce_tokens
			  WHERE user_id = ? AND status = ?
			  ORDER BY created_at`

	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	rows, err := querier.QueryContext(ctx, query, id, tokenDomain.TokenStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get tokens by user")
	}
	return collectMySQLTokens(rows)
}

func scanMySQLToken(row rowScanner) (*tokenDomain.DeviceToken, error) {
	var token tokenDomain.DeviceToken
	var id, userID, cardID []byte

	err := row.Scan(
		&id,
		&userID,
		&cardID,
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

	if err := token.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token id")
	}
	if err := token.UserID.UnmarshalBinary(userID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if err := token.CardID.UnmarshalBinary(cardID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal card id")
	}

	return &token, nil
}

func collectMySQLTokens(rows *sql.Rows) ([]*tokenDomain.DeviceToken, error) {
	defer rows.Close()

	var tokens []*tokenDomain.DeviceToken
	for rows.Next() {
		token, err := scanMySQLToken(rows)
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

// NewMySQLTokenRepository creates a new MySQL token repository instance.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}
