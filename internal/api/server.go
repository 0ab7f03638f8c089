package api

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/comicverse/txgate/internal/gate"
	"github.com/comicverse/txgate/internal/models"
	"github.com/comicverse/txgate/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Processor runs gated mutations
type Processor interface {
	Process(ctx context.Context, req *models.PendingMutationRequest) (gate.Result, error)
}

// Tallier computes live candidate tallies
type Tallier interface {
	Tally(ctx context.Context, comicID *big.Int) (*models.CandidatesResponse, error)
}

// Server represents the HTTP API server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	repository storage.Repository
	gate       Processor
	tallier    Tallier
	port       int
}

// NewServer creates a new API server instance.
// WriteTimeout must outlast the longest receipt polling budget.
func NewServer(port int, repository storage.Repository, processor Processor, tallier Tallier, writeTimeout time.Duration) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		repository: repository,
		gate:       processor,
		tallier:    tallier,
		port:       port,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(inFlight)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, models.ErrorDetail{Code: codeNotFound, Message: "endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, models.ErrorDetail{Code: codeMethodNotAllowed, Message: "method not allowed"})
	})

	// Core endpoints
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Collectibles
	r.Route("/characters", func(r chi.Router) {
		r.Get("/", s.handleListEntities(models.CharacterMint))
		r.Post("/", s.handleMint(models.CharacterMint))
		r.Get("/{id}", s.handleGetEntity(models.CharacterMint))
	})
	r.Route("/props", func(r chi.Router) {
		r.Get("/", s.handleListEntities(models.PropMint))
		r.Post("/", s.handleMint(models.PropMint))
		r.Get("/{id}", s.handleGetEntity(models.PropMint))
	})
	r.Route("/scenes", func(r chi.Router) {
		r.Get("/", s.handleListEntities(models.SceneMint))
		r.Post("/", s.handleMint(models.SceneMint))
		r.Get("/{id}", s.handleGetEntity(models.SceneMint))
	})

	// Comics and strip candidates
	r.Route("/comics", func(r chi.Router) {
		r.Get("/", s.handleListEntities(models.ComicCreate))
		r.Post("/", s.handleCreateComic)
		r.Route("/{comicId}", func(r chi.Router) {
			r.Get("/", s.handleGetComic)
			r.Get("/cover", s.handleGetCover)
			r.Post("/cover", s.handleUpdateCover)
			r.Get("/candidates", s.handleListCandidates)
			r.Post("/candidates", s.handleCreateCandidate)
		})
	})

	// Prompt purchases
	r.Route("/prompts/purchases", func(r chi.Router) {
		r.Get("/", s.handleListEntities(models.PromptPurchase))
		r.Post("/", s.handlePurchasePrompt)
		r.Get("/{id}", s.handleGetEntity(models.PromptPurchase))
	})
}

// Start starts the HTTP server in a goroutine
// Returns immediately after starting the server
func (s *Server) Start() error {
	go func() {
		slog.Info("API server starting", "port", s.port)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
// Waits for active connections to close or context to timeout
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down...")
	return s.httpServer.Shutdown(ctx)
}
