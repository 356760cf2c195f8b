// Package domain defines the core domain models for cards. A card is the local
// record of an issuer-side card; its status always mirrors the issuer and is
// never inferred locally.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/hcepay/hcepay/internal/issuer"
)

// CardType identifies the card form factor.
type CardType string

const (
	CardTypeVirtual  CardType = "virtual"
	CardTypePhysical CardType = "physical"
)

// CardScheme identifies the payment network.
type CardScheme string

const (
	CardSchemeVisa       CardScheme = "visa"
	CardSchemeMastercard CardScheme = "mastercard"
)

// CardStatus is the local card lifecycle status, mapped from the issuer.
type CardStatus string

const (
	CardStatusInactive CardStatus = "inactive"
	CardStatusActive   CardStatus = "active"
	CardStatusBlocked  CardStatus = "blocked"
	CardStatusClosed   CardStatus = "closed"
)

// Card represents a payment card owned by a user.
type Card struct {
	// ID is the unique identifier for the card.
	ID uuid.UUID
	// UserID identifies the owner.
	UserID uuid.UUID
	// ExternalCardID is the issuer's identifier for this card.
	ExternalCardID string
	// ExternalAccountID is the issuer's identifier for the funding account.
	ExternalAccountID string
	// Type is the card form factor.
	Type CardType
	// Scheme is the payment network.
	Scheme CardScheme
	// Status mirrors the issuer-side lifecycle status.
	Status CardStatus
	// LastFourDigits is the printable PAN suffix.
	LastFourDigits string
	// ExpiryMonth is the card expiry month (1-12).
	ExpiryMonth int
	// ExpiryYear is the four-digit card expiry year.
	ExpiryYear int
	// CreatedAt is the UTC creation timestamp.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last change.
	UpdatedAt time.Time
}

// Usable reports whether tokens may operate against the card locally.
func (c *Card) Usable() bool {
	return c.Status == CardStatusActive
}

// StatusFromIssuer maps an issuer-reported card status onto the local lifecycle.
func StatusFromIssuer(status issuer.CardStatus) CardStatus {
	switch status {
	case issuer.CardStatusActive, issuer.CardStatusUnverified:
		return CardStatusActive
	case issuer.CardStatusInactive:
		return CardStatusInactive
	case issuer.CardStatusSuspended:
		return CardStatusBlocked
	case issuer.CardStatusTerminated:
		return CardStatusClosed
	default:
		return CardStatusBlocked
	}
}

// SchemeFromIssuer maps an issuer-reported network name onto the local scheme.
func SchemeFromIssuer(scheme string) CardScheme {
	switch scheme {
	case "MASTERCARD", "mastercard":
		return CardSchemeMastercard
	default:
		return CardSchemeVisa
	}
}
