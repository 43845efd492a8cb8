package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/cerealbox/internal/processor"
)

// Options configures the optional guards on the tool routes.
type Options struct {
	APIToken   string  // empty disables bearer auth
	RateLimit  float64 // requests per second, 0 disables limiting
	RateBurst  int
	RuleSource string // reported by the status endpoint
}

type Server struct {
	router    *chi.Mux
	port      int
	processor *processor.Processor
	opts      Options
	http      *http.Server
}

func NewServer(port int, p *processor.Processor, opts Options) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		processor: p,
		opts:      opts,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/cerealbox/status", s.status)

	router.Route("/api/v1/tools", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(opts.APIToken))
		if opts.RateLimit > 0 {
			r.Use(RateLimitMiddleware(rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, opts.RateBurst))))
		}
		r.Get("/", s.listTools)
		r.Post("/{name}", s.invokeTool)
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":       "cerealbox",
		"status":      "ready",
		"rule_source": s.opts.RuleSource,
		"tools":       len(s.processor.Tools()),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
