// Package http provides HTTP handlers for card lifecycle operations. User
// identity arrives in the X-User-ID header set by the upstream gateway.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	"github.com/hcepay/hcepay/internal/card/http/dto"
	cardUseCase "github.com/hcepay/hcepay/internal/card/usecase"
	apperrors "github.com/hcepay/hcepay/internal/errors"
	"github.com/hcepay/hcepay/internal/httputil"
	tokenHTTP "github.com/hcepay/hcepay/internal/token/http"
	customValidation "github.com/hcepay/hcepay/internal/validation"
)

// CardHandler handles HTTP requests for card lifecycle operations.
type CardHandler struct {
	cardUseCase cardUseCase.CardUseCase
	logger      *slog.Logger
}

// NewCardHandler creates a new card handler with required dependencies.
func NewCardHandler(useCase cardUseCase.CardUseCase, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		cardUseCase: useCase,
		logger:      logger,
	}
}

// CreateHandler mints a virtual card for the user.
// POST /v1/cards
// Returns 201 Created with the card representation.
func (h *CardHandler) CreateHandler(c *gin.Context) {
	userID, err := tokenHTTP.UserID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	card, err := h.cardUseCase.CreateVirtualCard(c.Request.Context(), cardUseCase.CreateVirtualCardInput{
		UserID:            userID,
		CardholderName:    req.CardholderName,
		Currency:          req.Currency,
		ExternalAccountID: req.ExternalAccountID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCardToResponse(card))
}

// GetHandler returns a card owned by the user.
// GET /v1/cards/:cardID
func (h *CardHandler) GetHandler(c *gin.Context) {
	h.respond(c, func(userID, cardID uuid.UUID) (*cardDomain.Card, error) {
		return h.cardUseCase.Get(c.Request.Context(), userID, cardID)
	})
}

// BlockHandler suspends a card and retires its device tokens.
// POST /v1/cards/:cardID/block
func (h *CardHandler) BlockHandler(c *gin.Context) {
	h.respond(c, func(userID, cardID uuid.UUID) (*cardDomain.Card, error) {
		return h.cardUseCase.Block(c.Request.Context(), userID, cardID)
	})
}

// UnblockHandler lifts a card suspension.
// POST /v1/cards/:cardID/unblock
func (h *CardHandler) UnblockHandler(c *gin.Context) {
	h.respond(c, func(userID, cardID uuid.UUID) (*cardDomain.Card, error) {
		return h.cardUseCase.Unblock(c.Request.Context(), userID, cardID)
	})
}

// SyncHandler reconciles the local card status with the issuer.
// POST /v1/cards/:cardID/sync
func (h *CardHandler) SyncHandler(c *gin.Context) {
	h.respond(c, func(userID, cardID uuid.UUID) (*cardDomain.Card, error) {
		return h.cardUseCase.SyncStatus(c.Request.Context(), userID, cardID)
	})
}

// respond runs a card operation scoped to the authenticated user and the
// cardID path parameter and writes the card representation.
func (h *CardHandler) respond(c *gin.Context, op func(userID, cardID uuid.UUID) (*cardDomain.Card, error)) {
	userID, err := tokenHTTP.UserID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	cardID, err := uuid.Parse(c.Param("cardID"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "invalid card id"),
			h.logger,
		)
		return
	}

	card, err := op(userID, cardID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCardToResponse(card))
}
