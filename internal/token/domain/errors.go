package domain

import (
	"github.com/hcepay/hcepay/internal/errors"
)

// Token-specific error definitions.
var (
	// ErrTokenNotFound indicates the token does not exist or belongs to another user.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")
	// ErrCardNotActive indicates the issuer does not report the card as usable
	// for provisioning.
	ErrCardNotActive = errors.Wrap(errors.ErrConflict, "card is not active")
	// ErrTokenNotActive indicates an operation on a deactivated token.
	ErrTokenNotActive = errors.Wrap(errors.ErrConflict, "token is not active")
	// ErrSessionKeyExpired indicates the session key TTL has passed and the
	// caller must refresh before requesting a payload.
	ErrSessionKeyExpired = errors.Wrap(errors.ErrConflict, "session key expired, refresh required")
	// ErrDeactivatedByIssuer indicates the issuer revoked the token out of band;
	// the local token has been moved to its terminal state.
	ErrDeactivatedByIssuer = errors.Wrap(errors.ErrConflict, "token deactivated by issuer")
)
