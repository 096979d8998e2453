package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dgallion1/deckgest/internal/config"
	"github.com/dgallion1/deckgest/internal/pipeline"
)

// Server is the HTTP API server for deckgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	backends     []pipeline.Backend
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, backends []pipeline.Backend, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		backends:     backends,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition", "Location"},
			MaxAge:         300,
		}))
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/decks", s.handleCreateDeck)
		r.Post("/api/decks/batch", s.handleBatchDecks)
		r.Post("/api/decks/upload", s.handleUploadDeck)
		r.Get("/api/decks", s.handleListDecks)
		r.Get("/api/decks/{jobID}/status", s.handleDeckStatus)
		r.Get("/api/decks/{jobID}/file", s.handleDeckFile)
		r.Delete("/api/decks/{jobID}", s.handleDeleteDeck)

		r.Post("/api/preview", s.handlePreview)
		r.Get("/api/profiles", s.handleProfiles)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
