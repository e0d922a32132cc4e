package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/tabula/pkg/store"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host            string        // Host to bind to (default "localhost")
	Port            int           // Port to listen on (default 8080)
	ReadTimeout     time.Duration // Read timeout (default 30s)
	WriteTimeout    time.Duration // Write timeout (default 30s); 0 disables it for long streams
	IdleTimeout     time.Duration // Idle timeout (default 60s)
	ShutdownTimeout time.Duration // Graceful shutdown limit (default 10s)
	MaxFastWorkers  int           // Max concurrent rules queries (default 100)
	MaxSlowWorkers  int           // Max concurrent simulations (default 4)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxFastWorkers:  100,
		MaxSlowWorkers:  4,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	version  string
	log      logrus.FieldLogger
}

// NewServer creates a new API server. st may be nil to run without storage;
// log may be nil to use the standard logger.
func NewServer(st *store.Store, config ServerConfig, version string, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
	})
	handlers := NewHandlersWithPool(st, version, pool)
	handlers.SetLogger(log)

	return &Server{
		config:   config,
		handlers: handlers,
		pool:     pool,
		version:  version,
		log:      log,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the response status. It passes flushing and
// hijacking through so streams and websockets keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// loggingMiddleware logs all requests.
func loggingMiddleware(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handlers.Health)
	mux.HandleFunc("POST /api/moves", s.handlers.Moves)
	mux.HandleFunc("POST /api/usable", s.handlers.Usable)
	mux.HandleFunc("POST /api/turn", s.handlers.Turn)
	mux.HandleFunc("POST /api/choose", s.handlers.Choose)
	mux.HandleFunc("GET /api/simulate/stream", s.handlers.SimulateSSE)
	mux.HandleFunc("/api/ws", s.handlers.WebSocket)

	// Game storage
	mux.HandleFunc("POST /api/games", s.handlers.CreateGame)
	mux.HandleFunc("GET /api/games", s.handlers.ListGames)
	mux.HandleFunc("GET /api/games/{id}", s.handlers.GetGame)
	mux.HandleFunc("DELETE /api/games/{id}", s.handlers.DeleteGame)

	return corsMiddleware(loggingMiddleware(s.log, mux))
}

// listen prepares the http.Server for the configured address.
func (s *Server) listen() {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.log.WithFields(logrus.Fields{
		"version": s.version,
		"addr":    addr,
		"storage": s.handlers.store != nil,
	}).Info("starting tabula API server")
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.listen()
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)

	s.listen()
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.log.WithField("signal", sig.String()).Info("shutting down")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
