package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/agent"
	"github.com/kisanmitra/kisan/internal/config"
	"github.com/kisanmitra/kisan/internal/llm"
)

// Server is the HTTP front end for the advisor chat.
type Server struct {
	cfg          *config.Config
	orchestrator *agent.Orchestrator
	toolDefs     []llm.ToolDef
	router       chi.Router
	http         *http.Server
}

// New creates a Server.
func New(cfg *config.Config, orchestrator *agent.Orchestrator, toolDefs []llm.ToolDef) *Server {
	s := &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		toolDefs:     toolDefs,
		router:       chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/tools", s.handleListTools)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/chat", s.handleChat)
			r.Get("/chat/ws", s.handleChatWS)
		})
	})
}

// requestLogger logs one line per request with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// requireAuth rejects requests without a credential. When an auth token is
// configured the bearer token must match; otherwise presence of the
// Authorization header is enough (the identity provider in front of this
// service has already vetted it).
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if token := s.cfg.Server.AuthToken; token != "" && auth != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Info().Str("addr", addr).Msg("kisan server starting")
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
