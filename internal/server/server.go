package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"todo_service/internal/config"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
	timeouts   config.ServerConfig
}

const (
	maxHeaderBytes = 1 << 20 // 1 MB

	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// New returns a Server using the given timeouts; zero values fall back to defaults.
func New(timeouts config.ServerConfig) *Server {
	return &Server{timeouts: timeouts}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// newHTTPServer builds a configured *http.Server for the given address and handler.
func (s *Server) newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: orDefault(s.timeouts.ReadHeaderTimeout, defaultReadHeaderTimeout),
		WriteTimeout:      orDefault(s.timeouts.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       orDefault(s.timeouts.IdleTimeout, defaultIdleTimeout),
	}
}

// normalizeAddr ensures the provided port is a valid address (accepts "8080" or ":8080").
func normalizeAddr(port string) string {
	if port == "" {
		return ""
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run starts the HTTP server and blocks. A graceful Shutdown is not an error.
func (s *Server) Run(port string, handler http.Handler) error {
	hs := s.newHTTPServer(normalizeAddr(port), handler)
	s.mu.Lock()
	s.httpServer = hs
	s.mu.Unlock()

	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	hs := s.httpServer
	s.mu.Unlock()

	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}
