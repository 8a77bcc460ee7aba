package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultRequestTimeout  = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

// Config holds HTTP server settings.
type Config struct {
	Port           int
	RequestTimeout time.Duration

	// StaticDir, when set, is served at / for a front end bundle.
	StaticDir string

	// Tracing wraps the router with otelhttp.
	Tracing     bool
	ServiceName string
}

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	config Config

	staticOnce sync.Once
}

// New builds a router with the standard middleware chain and a /healthz endpoint.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(cfg.RequestTimeout))
	r.Use(middleware.Recoverer)

	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "judge0-llm"
		}
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, name)
		})
	}

	r.Get("/healthz", handleHealth)

	return &Server{
		Router: r,
		Port:   cfg.Port,
		logger: logger,
		config: cfg,
	}
}

// Handle registers a handler for method and path.
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.Router.Method(method, path, h)
}

// Handler returns the root handler, mounting static files last so API routes win.
func (s *Server) Handler() http.Handler {
	s.staticOnce.Do(func() {
		if s.config.StaticDir != "" {
			s.Router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
		}
	})
	return s.Router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.Int("port", s.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
