// Package api provides the HTTP server and handlers for the WallVault service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/wallvault/wallvault-server/internal/ratelimit"
	"github.com/wallvault/wallvault-server/internal/service"
	"github.com/wallvault/wallvault-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	library  *service.LibraryService
	store    *store.Store
	limiter  *ratelimit.KeyedRateLimiter
	validate *validator.Validate
	router   *chi.Mux
	logger   *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(library *service.LibraryService, st *store.Store, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		library:  library,
		store:    st,
		limiter:  limiter,
		validate: validator.New(),
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Range"},
		ExposedHeaders: []string{"Content-Range", "Accept-Ranges", "Content-Length"},
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.recordVisitor)

		r.Get("/config-status", s.handleConfigStatus)
		r.Get("/drives", s.handleListDrives)
		r.Get("/status", s.handleStatus)
		r.Get("/data", s.handleData)
		r.Get("/video/{id}", s.handleStreamVideo)
		r.Get("/preview/{id}", s.handlePreview)
		r.Post("/reset-config", s.handleResetConfig)
		r.Post("/update-history", s.handleUpdateHistory)

		// Scan triggers are expensive; keep one client from spamming them.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitScans)
			r.Post("/select-drive", s.handleSelectDrive)
			r.Post("/refresh", s.handleRefresh)
		})
	})
}

// handleHealthCheck responds to liveness probes.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
