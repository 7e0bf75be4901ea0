// Package httpapi serves the rental ledger over HTTP.
//
// Routes are mounted on a chi router with CORS, request ids, and JWT
// bearer authentication. The token subject is the caller identity that
// ownership checks run against.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server is the REST API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter builds the chi router for the ledger API. Read-only routes
// are public; mutating routes require a bearer token.
func NewRouter(engine *renthouse.RentHouse, cfg ServerConfig) chi.Router {
	h := NewHandler(engine)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public read endpoints
		r.Get("/properties", h.ListProperties)
		r.Get("/properties/{propertyID}", h.GetProperty)
		r.Get("/properties/{propertyID}/escrow", h.EscrowBalance)
		r.Get("/properties/{propertyID}/bookings/unsettled", h.UnsettledBookings)
		r.Get("/properties/{propertyID}/receipts", h.Receipts)
		r.Get("/bookings/{bookingID}", h.GetBooking)
		r.Get("/stats", h.Stats)

		// Authenticated mutating endpoints
		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(cfg.JWTSecret))

			r.Post("/properties", h.ListProperty)
			r.Post("/properties/{propertyID}/deactivate", h.DeactivateProperty)
			r.Post("/properties/{propertyID}/withdrawals", h.Withdraw)
			r.Post("/bookings", h.BookProperty)
		})
	})

	return r
}

// NewServer creates an HTTP server wrapping the ledger API router.
func NewServer(engine *renthouse.RentHouse, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(engine, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting REST API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping REST API server")
	return s.httpServer.Shutdown(ctx)
}
