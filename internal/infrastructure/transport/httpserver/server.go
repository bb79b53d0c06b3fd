// Package httpserver exposes the tool registry as a small HTTP API.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"browsertools/internal/application/port/input"
	"browsertools/internal/application/port/output"
	"browsertools/internal/application/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

type Config struct {
	Addr string
	// AccessLog receives one JSON line per request. Defaults to stderr.
	AccessLog io.Writer
	// Gatherer backs /metrics. Defaults to the prometheus default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	invoker input.ToolInvoker
	logger  output.LoggerPort
	cfg     Config
	router  chi.Router

	// mu serializes tool calls; the browser session is single-threaded.
	mu sync.Mutex
}

type toolInfo struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Parameters      map[string]any `json:"parameters"`
	RequiresSession bool           `json:"requires_session"`
}

func New(invoker input.ToolInvoker, logger output.LoggerPort, cfg Config) *Server {
	if cfg.AccessLog == nil {
		cfg.AccessLog = os.Stderr
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		invoker: invoker,
		logger:  logger,
		cfg:     cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	accessLog := httplog.NewLogger("browsertools", httplog.Options{
		JSON:    true,
		Concise: true,
	}).Output(s.cfg.AccessLog)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(accessLog))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.handleHealthz)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	router.Route("/tools", func(r chi.Router) {
		r.Get("/", s.handleListTools)
		r.Post("/{name}", s.handleInvoke)
	})
	return router
}

// ListenAndServe blocks until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	defs := s.invoker.Definitions()
	infos := make([]toolInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, toolInfo{
			Name:            def.Name.String(),
			Description:     def.Description,
			Parameters:      def.Parameters(),
			RequiresSession: def.RequiresSession,
		})
	}
	respondJSON(w, http.StatusOK, infos)
}

// handleInvoke answers 200 for every tool outcome, including failures: the
// result text is the tool's answer to the caller.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.invoker.Has(name) {
		respondText(w, http.StatusNotFound, fmt.Sprintf("Error: unknown tool '%s'", name))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondText(w, http.StatusBadRequest, "Error: cannot read request body")
		return
	}
	args, err := service.DecodeArgs(string(body))
	if err != nil {
		respondText(w, http.StatusBadRequest, fmt.Sprintf("Error: arguments must be a JSON object: %v", err))
		return
	}

	s.mu.Lock()
	result := s.invoker.Invoke(r.Context(), name, args)
	s.mu.Unlock()

	respondText(w, http.StatusOK, result)
}

func respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
