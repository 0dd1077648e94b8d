// Package server exposes the pipeline as an HTTP trigger.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/db"
	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/server/middleware"
)

// RunRequest is the optional body of a trigger request.
type RunRequest struct {
	Mode string `json:"mode,omitempty"`
}

// RunFunc executes one pipeline run. The summary may be non-nil even when err is set.
type RunFunc func(ctx context.Context, req RunRequest, onProgress pipeline.ProgressCallback) (*pipeline.Summary, error)

// RunStore reads the run ledger; *db.DB implements it.
type RunStore interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	ListRunSteps(ctx context.Context, runID uuid.UUID) ([]db.RunStep, error)
}

// Config holds server configuration
type Config struct {
	Port int
	// JWT enables bearer authentication on the trigger routes when non-nil.
	JWT *config.JWTConfig
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	run        RunFunc
	store      RunStore
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
}

// New creates a new server instance. store may be nil, in which case the /runs routes are not registered.
func New(cfg Config, run RunFunc, store RunStore, logger *zap.Logger) (*Server, error) {
	if run == nil {
		return nil, fmt.Errorf("run function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		run:    run,
		store:  store,
		logger: logger,
	}

	protect := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.JWT != nil {
		auth := middleware.AuthMiddleware(NewJWTService(cfg.JWT).AsTokenValidator())
		protect = func(h http.HandlerFunc) http.Handler { return auth(h) }
	}

	mux := http.NewServeMux()
	mux.Handle("POST /run", protect(s.handleRun))
	mux.Handle("POST /run/stream", protect(s.handleRunStream))
	mux.HandleFunc("GET /health", s.handleHealth)
	if store != nil {
		mux.Handle("GET /runs", protect(s.handleListRuns))
		mux.Handle("GET /runs/{id}", protect(s.handleGetRun))
	}

	s.handler = s.withLogging(s.withCORS(mux))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // extraction over a full batch is slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// tryStart claims the single run slot.
func (s *Server) tryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Server) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, NewRunResponse(nil, errors.New(message)))
}
