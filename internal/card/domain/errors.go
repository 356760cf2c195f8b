package domain

import (
	"github.com/hcepay/hcepay/internal/errors"
)

// Card-specific error definitions.
var (
	// ErrCardNotFound indicates the card does not exist or belongs to another user.
	ErrCardNotFound = errors.Wrap(errors.ErrNotFound, "card not found")
	// ErrCardClosed indicates a lifecycle operation was attempted on a closed card.
	ErrCardClosed = errors.Wrap(errors.ErrConflict, "card is closed")
)
