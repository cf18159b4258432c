// Package server exposes the conversation loop over HTTP: a prompt endpoint
// that answers either as a server-sent event stream or as a single JSON
// response, plus a health probe.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/launchpad-agents/launchpad/src/executor"
)

// SystemPromptFunc resolves the system prompt for one request. It is called
// per request so prompt sources that change between requests (user bio
// enrichment, prompt file edits) are picked up without a restart.
type SystemPromptFunc func(ctx context.Context) (string, error)

// Config configures a Server.
type Config struct {
	Orchestrator *executor.Orchestrator
	SystemPrompt SystemPromptFunc
	Logger       *slog.Logger
}

// Server handles HTTP requests for the agent.
type Server struct {
	orchestrator *executor.Orchestrator
	systemPrompt SystemPromptFunc
	logger       *slog.Logger
	validate     *validator.Validate
	srv          *http.Server
}

// New creates a Server from config.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prompt := cfg.SystemPrompt
	if prompt == nil {
		prompt = func(context.Context) (string, error) { return "", nil }
	}
	return &Server{
		orchestrator: cfg.Orchestrator,
		systemPrompt: prompt,
		logger:       logger.With("component", "server"),
		validate:     validator.New(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /prompt", s.handlePrompt)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.corsMiddleware(s.logMiddleware(mux))
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("starting agent server", "addr", addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
