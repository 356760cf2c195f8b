package dto

import (
	"time"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
)

// CardResponse represents a card in API responses.
type CardResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Scheme         string    `json:"scheme"`
	Status         string    `json:"status"`
	LastFourDigits string    `json:"last_four_digits"`
	ExpiryMonth    int       `json:"expiry_month"`
	ExpiryYear     int       `json:"expiry_year"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MapCardToResponse converts a domain card to its API representation. Issuer
// identifiers stay internal.
func MapCardToResponse(card *cardDomain.Card) CardResponse {
	return CardResponse{
		ID:             card.ID.String(),
		Type:           string(card.Type),
		Scheme:         string(card.Scheme),
		Status:         string(card.Status),
		LastFourDigits: card.LastFourDigits,
		ExpiryMonth:    card.ExpiryMonth,
		ExpiryYear:     card.ExpiryYear,
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}
}
