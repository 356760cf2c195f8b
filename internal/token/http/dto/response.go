package dto

import (
	"time"

	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

// TokenResponse represents a device token in API responses. Secret fields are
// ciphertext; only the paired device can decrypt them.
type TokenResponse struct {
	ID                  string    `json:"id"`
	CardID              string    `json:"card_id"`
	Status              string    `json:"status"`
	Scheme              string    `json:"scheme"`
	ATC                 int64     `json:"atc"`
	ExpiryMonth         int       `json:"expiry_month"`
	ExpiryYear          int       `json:"expiry_year"`
	SessionKeyExpiresAt time.Time `json:"session_key_expires_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// MapTokenToResponse converts a domain token to its API representation.
func MapTokenToResponse(token *tokenDomain.DeviceToken) TokenResponse {
	return TokenResponse{
		ID:                  token.ID.String(),
		CardID:              token.CardID.String(),
		Status:              string(token.Status),
		Scheme:              token.Scheme,
		ATC:                 token.ATC,
		ExpiryMonth:         token.ExpiryMonth,
		ExpiryYear:          token.ExpiryYear,
		SessionKeyExpiresAt: token.SessionKeyExpiresAt,
		CreatedAt:           token.CreatedAt,
	}
}

// ListTokensResponse represents the user's active tokens.
type ListTokensResponse struct {
	Data []TokenResponse `json:"data"`
}

// MapTokensToListResponse converts a slice of domain tokens to a list response.
func MapTokensToListResponse(tokens []*tokenDomain.DeviceToken) ListTokensResponse {
	data := make([]TokenResponse, 0, len(tokens))
	for _, token := range tokens {
		data = append(data, MapTokenToResponse(token))
	}
	return ListTokensResponse{Data: data}
}

// PaymentPayloadResponse carries the tap material to the wallet.
type PaymentPayloadResponse struct {
	TokenID             string    `json:"token_id"`
	EncryptedDPAN       string    `json:"encrypted_dpan"`
	EncryptedSessionKey string    `json:"encrypted_session_key"`
	EncryptedEMVKeys    string    `json:"encrypted_emv_keys"`
	TokenReferenceID    string    `json:"token_reference_id"`
	ATC                 int64     `json:"atc"`
	Scheme              string    `json:"scheme"`
	ExpiryMonth         int       `json:"expiry_month"`
	ExpiryYear          int       `json:"expiry_year"`
	SessionKeyExpiresAt time.Time `json:"session_key_expires_at"`
}

// MapPayloadToResponse converts a domain payment payload to its API representation.
func MapPayloadToResponse(payload *tokenDomain.PaymentPayload) PaymentPayloadResponse {
	return PaymentPayloadResponse{
		TokenID:             payload.TokenID.String(),
		EncryptedDPAN:       payload.EncryptedDPAN,
		EncryptedSessionKey: payload.EncryptedSessionKey,
		EncryptedEMVKeys:    payload.EncryptedEMVKeys,
		TokenReferenceID:    payload.TokenReferenceID,
		ATC:                 payload.ATC,
		Scheme:              payload.Scheme,
		ExpiryMonth:         payload.ExpiryMonth,
		ExpiryYear:          payload.ExpiryYear,
		SessionKeyExpiresAt: payload.SessionKeyExpiresAt,
	}
}

// RefreshSessionKeyResponse carries the refreshed session key material.
type RefreshSessionKeyResponse struct {
	TokenID             string    `json:"token_id"`
	ATC                 int64     `json:"atc"`
	EncryptedSessionKey string    `json:"encrypted_session_key"`
	SessionKeyExpiresAt time.Time `json:"session_key_expires_at"`
}

// MapRefreshToResponse converts a domain refresh result to its API representation.
func MapRefreshToResponse(refresh *tokenDomain.SessionKeyRefresh) RefreshSessionKeyResponse {
	return RefreshSessionKeyResponse{
		TokenID:             refresh.TokenID.String(),
		ATC:                 refresh.ATC,
		EncryptedSessionKey: refresh.EncryptedSessionKey,
		SessionKeyExpiresAt: refresh.SessionKeyExpiresAt,
	}
}
