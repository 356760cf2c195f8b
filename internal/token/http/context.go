// Package http provides the wallet-facing HTTP handlers for device token
// operations. Requests arrive through an upstream gateway that has already
// authenticated the user and forwards the identity in the X-User-ID header.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/hcepay/hcepay/internal/errors"
)

// UserIDHeader carries the authenticated user identity set by the gateway.
const UserIDHeader = "X-User-ID"

// UserID extracts the authenticated user from the request headers.
func UserID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return uuid.Nil, apperrors.ErrUnauthorized
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid user id")
	}

	return id, nil
}
