// Package api provides the local HTTP surface for the triage client. It is a
// thin shell over the engine: decode, validate, dispatch, envelope.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/listenup-triage/internal/store"
	"github.com/listenupapp/listenup-triage/internal/triage"
	"github.com/listenupapp/listenup-triage/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine    *triage.Engine
	store     *store.Store
	validator *validation.Validator
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(engine *triage.Engine, st *store.Store, logger *slog.Logger) *Server {
	s := &Server{
		engine:    engine,
		store:     st,
		validator: validation.New(),
		router:    chi.NewRouter(),
		logger:    logger,
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
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Post("/start", s.handleStartSession)
			r.Post("/end", s.handleEndSession)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", s.handleGetQueue)
			r.Post("/tab", s.handleSetTab)
		})

		r.Route("/decisions", func(r chi.Router) {
			r.Post("/", s.handleDecide)
			r.Post("/bulk", s.handleBulkClassify)
			r.Delete("/{bookID}", s.handleUnmark)
		})

		r.Post("/undo", s.handleUndo)
		r.Post("/back", s.handleBack)

		r.Get("/stats", s.handleGetStats)
		r.Get("/position", s.handleGetPosition)

		r.Route("/state", func(r chi.Router) {
			r.Get("/export", s.handleExportState)
			r.Post("/import", s.handleImportState)
		})

		r.Post("/sync/flush", s.handleFlush)
	})
}
