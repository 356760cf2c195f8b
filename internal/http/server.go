// Package http provides the HTTP API server, routing, and shared middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	cardHTTP "github.com/hcepay/hcepay/internal/card/http"
	"github.com/hcepay/hcepay/internal/config"
	tokenHTTP "github.com/hcepay/hcepay/internal/token/http"
)

// Server represents the HTTP API server.
type Server struct {
	server       *http.Server
	config       *config.Config
	logger       *slog.Logger
	tokenHandler *tokenHTTP.TokenHandler
	cardHandler  *cardHTTP.CardHandler
}

// NewServer creates a new HTTP server with the route handlers it serves.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	tokenHandler *tokenHTTP.TokenHandler,
	cardHandler *cardHTTP.CardHandler,
) *Server {
	return &Server{
		config:       cfg,
		logger:       logger,
		tokenHandler: tokenHandler,
		cardHandler:  cardHandler,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the Gin router with middleware and all API routes.
// The context drives the readiness endpoint: once it is cancelled the
// server reports not ready.
func (s *Server) SetupRouter(ctx context.Context) *gin.Engine {
	router := gin.New()

	router.Use(requestid.New())
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(
		s.config.CORSEnabled,
		s.config.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler(ctx))

	v1 := router.Group("/v1")

	cards := v1.Group("/cards")
	cards.POST("", s.cardHandler.CreateHandler)
	cards.GET("/:cardID", s.cardHandler.GetHandler)
	cards.POST("/:cardID/block", s.cardHandler.BlockHandler)
	cards.POST("/:cardID/unblock", s.cardHandler.UnblockHandler)
	cards.POST("/:cardID/sync", s.cardHandler.SyncHandler)

	hce := v1.Group("/hce")

	// Provisioning reaches out to the card issuer; the budget keeps a
	// misbehaving wallet from hammering it.
	provisionHandlers := []gin.HandlerFunc{}
	if s.config.RateLimitProvisionEnabled {
		provisionHandlers = append(provisionHandlers, tokenHTTP.RateLimitMiddleware(
			s.config.RateLimitProvisionRequestsPerSec,
			s.config.RateLimitProvisionBurst,
			s.logger,
		))
	}
	provisionHandlers = append(provisionHandlers, s.tokenHandler.ProvisionHandler)
	hce.POST("/provision", provisionHandlers...)

	hce.GET("/tokens", s.tokenHandler.ListHandler)
	hce.GET("/payload/:tokenID", s.tokenHandler.PayloadHandler)
	hce.POST("/refresh/:tokenID", s.tokenHandler.RefreshHandler)
	hce.POST("/deactivate/:tokenID", s.tokenHandler.DeactivateHandler)

	return router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start builds the router and starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.SetupRouter(ctx)

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
