// Package server exposes the game collection over an authenticated JSON API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/server/api"
	"github.com/goodtune/gameshelf/internal/storage"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr      string
	JWTSecret       string
	TokenExpiration time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
	AllowedOrigins  []string

	// AllowRegistration opens POST /api/auth/register to anyone.
	AllowRegistration bool
}

// Server represents the API HTTP server.
type Server struct {
	config      Config
	users       storage.UserStore
	collection  *collection.Service
	auth        *AuthService
	rateLimiter *RateLimiter
	server      *http.Server
	router      *mux.Router
	listener    net.Listener // Optional pre-created listener (for systemd socket activation)
	logger      zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, users storage.UserStore, svc *collection.Service, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 100
	}
	rateLimitWindow := cfg.RateLimitWindow
	if rateLimitWindow == 0 {
		rateLimitWindow = time.Minute
	}

	s := &Server{
		config:      cfg,
		users:       users,
		collection:  svc,
		auth:        NewAuthService(users, cfg.JWTSecret, cfg.TokenExpiration, logger),
		rateLimiter: NewRateLimiter(rateLimit, rateLimitWindow),
		router:      mux.NewRouter(),
		logger:      logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RateLimitMiddleware(s.rateLimiter))

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(CORSMiddleware(s.config.AllowedOrigins))
	}

	// Public routes
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/auth/login", s.handleLogin).Methods("POST", "OPTIONS")
	s.router.HandleFunc("/api/auth/register", s.handleRegister).Methods("POST", "OPTIONS")

	authRouter := s.router.PathPrefix("/api").Subrouter()
	authRouter.Use(AuthMiddleware(s.auth))

	authRouter.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	authRouter.HandleFunc("/auth/me", s.handleMe).Methods("GET")
	authRouter.HandleFunc("/auth/change-password", s.handleChangePassword).Methods("POST")

	games := api.NewGameHandler(s.collection, GetUserIDFromContext, s.logger)
	authRouter.HandleFunc("/games", games.List).Methods("GET")
	authRouter.HandleFunc("/games", games.Create).Methods("POST")
	authRouter.HandleFunc("/games/{id}", games.Get).Methods("GET")
	authRouter.HandleFunc("/games/{id}", games.Update).Methods("PUT")
	authRouter.HandleFunc("/games/{id}", games.Delete).Methods("DELETE")

	plays := api.NewPlayHandler(s.collection, GetUserIDFromContext, s.logger)
	authRouter.HandleFunc("/games/{id}/plays", plays.Record).Methods("POST")
	authRouter.HandleFunc("/games/{id}/plays/{date}", plays.Remove).Methods("DELETE")

	statsHandler := api.NewStatsHandler(s.collection, GetUserIDFromContext, s.logger)
	authRouter.HandleFunc("/stats/months/current", statsHandler.Month).Methods("GET")
	authRouter.HandleFunc("/stats/months/{month}", statsHandler.Month).Methods("GET")
	authRouter.HandleFunc("/stats/all-time", statsHandler.AllTime).Methods("GET")

	transfer := api.NewTransferHandler(s.collection, GetUserIDFromContext, s.logger)
	authRouter.HandleFunc("/export", transfer.Export).Methods("GET")
	authRouter.HandleFunc("/import", transfer.Import).Methods("POST")
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")
	s.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
