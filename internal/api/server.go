// Package api serves nearest-aircraft queries and the sighting log over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/nearest-aircraft/internal/db"
	"github.com/unklstewy/nearest-aircraft/internal/service"
	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

// Finder answers nearest-aircraft queries.
type Finder interface {
	Find(ctx context.Context, q service.Query) (nearest.Result, error)
}

// SightingStore reads the sighting log.
type SightingStore interface {
	Recent(ctx context.Context, limit int) ([]sightings.Sighting, error)
	Stats(ctx context.Context) (db.Stats, error)
}

// RecorderStats reports the sighting recorder counters.
type RecorderStats interface {
	Stats() sightings.Stats
}

// Options configure a Server. Finder is required.
type Options struct {
	Finder Finder

	// Store enables the /api/v1/sightings endpoints
	Store SightingStore

	// Recorder adds queue counters to the sighting stats
	Recorder RecorderStats

	// DefaultRadius is used when a query has no dist
	DefaultRadius float64

	// AllowedOrigins for CORS (default: all)
	AllowedOrigins []string

	// DatabaseCheck adds a database status to /health
	DatabaseCheck func(ctx context.Context) error

	Logger *slog.Logger
}

// Server holds the HTTP router and its dependencies.
type Server struct {
	router   *chi.Mux
	finder   Finder
	store    SightingStore
	recorder RecorderStats
	radius   float64
	dbCheck  func(ctx context.Context) error
	logger   *slog.Logger
}

// NewServer creates a server and registers its routes.
func NewServer(opts Options) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		finder:   opts.Finder,
		store:    opts.Store,
		recorder: opts.Recorder,
		radius:   opts.DefaultRadius,
		dbCheck:  opts.DatabaseCheck,
		logger:   opts.Logger,
	}
	if s.radius <= 0 {
		s.radius = 5
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.setupRoutes(origins)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(origins []string) {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/nearest_plane", s.handleNearestGet)
	r.Post("/nearest_plane", s.handleNearestPost)

	if s.store != nil {
		r.Route("/api/v1/sightings", func(r chi.Router) {
			r.Get("/", s.handleRecentSightings)
			r.Get("/stats", s.handleSightingStats)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes {"detail": msg}.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"detail": msg})
}
