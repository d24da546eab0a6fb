package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/handlers"
)

// Server wraps the HTTP server and its routes
type Server struct {
	httpServer *http.Server
	logger     arbor.ILogger
}

// Handlers bundles the route handlers wired by the app layer
type Handlers struct {
	Translate *handlers.TranslateHandler
	Requests  *handlers.RequestHandler
	Status    *handlers.StatusHandler
	WebSocket *handlers.WebSocketHandler
}

// New creates an HTTP server with all routes registered
func New(config *common.Config, h *Handlers, logger arbor.ILogger) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux, h)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withMiddleware(mux, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second, // Sync delivery can hold the response for the full pipeline deadline
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving. Blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
