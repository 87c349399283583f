package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/sitegrep/internal/audit"
	"github.com/ziadkadry99/sitegrep/internal/highlight"
	"github.com/ziadkadry99/sitegrep/internal/search"
)

// Config holds server configuration.
type Config struct {
	Port        int
	Root        string  // document root served as static files
	DataDir     string  // journal directory, never served
	ScriptURL   string  // path the highlight script is served at
	SearchRPS   float64 // per-client search requests per second, 0 = unlimited
	SearchBurst int
	AllowAll    bool // allow all CORS origins (dev mode)
}

// Server serves the search page, the JSON API, the highlight script and
// the documents themselves.
type Server struct {
	cfg        Config
	searcher   *search.Searcher
	journal    *audit.Store
	log        zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. journal may be nil, in which case searches are not
// recorded and the audit API is not mounted.
func New(cfg Config, searcher *search.Searcher, journal *audit.Store, logger zerolog.Logger) *Server {
	if cfg.ScriptURL == "" {
		cfg.ScriptURL = "/" + highlight.FileName
	}
	s := &Server{
		cfg:      cfg,
		searcher: searcher,
		journal:  journal,
		log:      logger.With().Str("component", "server").Logger(),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(peerAddr)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/search", http.StatusFound)
	})
	// A script hosted elsewhere is still served at the default path.
	scriptPath := s.cfg.ScriptURL
	if !strings.HasPrefix(scriptPath, "/") {
		scriptPath = "/" + highlight.FileName
	}
	r.Get(scriptPath, highlight.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(newClientLimiter(s.cfg.SearchRPS, s.cfg.SearchBurst).middleware)
		r.Get("/search", s.handleSearchPage)
		r.Get("/api/search", s.handleAPISearch)
	})

	if s.journal != nil {
		audit.RegisterRoutes(r, s.journal)
	}

	// Everything else is a document under the root.
	if s.cfg.Root != "" {
		r.NotFound(newDocumentServer(s.cfg.Root, s.cfg.DataDir).ServeHTTP)
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. It returns nil after a
// graceful Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info().Str("addr", addr).Str("root", s.cfg.Root).Msg("sitegrep server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// record journals a served search. Failures are logged.
func (s *Server) record(r *http.Request, keyword string, matches int, err error) {
	if s.journal == nil {
		return
	}
	e := audit.Entry{
		ActorType: audit.ActorUser,
		ActorID:   r.RemoteAddr,
		Action:    audit.ActionSearch,
		Target:    keyword,
		Count:     matches,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	if jerr := s.journal.Log(r.Context(), e); jerr != nil {
		s.log.Warn().Err(jerr).Msg("journal write failed")
	}
}
