package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/hcepay/hcepay/internal/errors"
	"github.com/hcepay/hcepay/internal/httputil"
	"github.com/hcepay/hcepay/internal/token/http/dto"
	tokenUseCase "github.com/hcepay/hcepay/internal/token/usecase"
	customValidation "github.com/hcepay/hcepay/internal/validation"
)

// TokenHandler handles HTTP requests for device token operations.
type TokenHandler struct {
	provisioningUseCase tokenUseCase.ProvisioningUseCase
	logger              *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	provisioningUseCase tokenUseCase.ProvisioningUseCase,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		provisioningUseCase: provisioningUseCase,
		logger:              logger,
	}
}

// ProvisionHandler provisions a device token for a card.
// POST /v1/hce/provision
// Returns 201 Created with the token metadata.
func (h *TokenHandler) ProvisionHandler(c *gin.Context) {
	userID, err := UserID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.ProvisionTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	token, err := h.provisioningUseCase.Provision(c.Request.Context(), userID, cardID, req.DeviceFingerprint)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTokenToResponse(token))
}

// PayloadHandler returns the payment payload for a tap.
// GET /v1/hce/payload/:tokenID
func (h *TokenHandler) PayloadHandler(c *gin.Context) {
	userID, tokenID, ok := h.userAndToken(c)
	if !ok {
		return
	}

	payload, err := h.provisioningUseCase.GetPaymentPayload(c.Request.Context(), userID, tokenID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPayloadToResponse(payload))
}

// RefreshHandler refreshes the session key for a token.
// POST /v1/hce/refresh/:tokenID
func (h *TokenHandler) RefreshHandler(c *gin.Context) {
	userID, tokenID, ok := h.userAndToken(c)
	if !ok {
		return
	}

	refresh, err := h.provisioningUseCase.RefreshSessionKey(c.Request.Context(), userID, tokenID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRefreshToResponse(refresh))
}

// DeactivateHandler retires a token.
// POST /v1/hce/deactivate/:tokenID
// Returns 204 No Content; deactivating an already-retired token succeeds.
func (h *TokenHandler) DeactivateHandler(c *gin.Context) {
	userID, tokenID, ok := h.userAndToken(c)
	if !ok {
		return
	}

	if err := h.provisioningUseCase.Deactivate(c.Request.Context(), userID, tokenID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListHandler returns the user's active tokens.
// GET /v1/hce/tokens
func (h *TokenHandler) ListHandler(c *gin.Context) {
	userID, err := UserID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	tokens, err := h.provisioningUseCase.ListActiveForUser(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokensToListResponse(tokens))
}

// userAndToken extracts the authenticated user and the tokenID path parameter.
func (h *TokenHandler) userAndToken(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := UserID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return uuid.Nil, uuid.Nil, false
	}

	tokenID, err := uuid.Parse(c.Param("tokenID"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "invalid token id"),
			h.logger,
		)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, tokenID, true
}
