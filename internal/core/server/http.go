// Package server provides net/http server lifecycle management for
// clausekeeper, adapted from the teacher's gRPC lifecycle shape (bind,
// serve, graceful stop with a 30-second forced-stop timeout) onto
// *http.Server since the wire format is ad hoc JSON, not protobuf.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/solatis/clausekeeper/internal/core/api"
	"github.com/solatis/clausekeeper/internal/core/auth"
	"github.com/solatis/clausekeeper/internal/core/config"
)

// HTTPServer manages the evaluation service's HTTP lifecycle.
type HTTPServer struct {
	server   *http.Server
	listener net.Listener
	config   *config.ServerConfig
}

// NewHTTPServer creates the HTTP server with POST / gated by authenticator
// and GET /health always open.
func NewHTTPServer(cfg *config.ServerConfig, service *api.Service, authenticator *auth.Authenticator) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", service.Health)
	mux.Handle("POST /{$}", authenticator.Middleware(http.HandlerFunc(service.Evaluate)))

	return &HTTPServer{
		server: &http.Server{
			Handler:      mux,
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
		},
		config: cfg,
	}, nil
}

// Start binds the listener and serves requests.
// Context is provided for API consistency but Serve blocks until Shutdown is called.
func (s *HTTPServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.listener = listener
	err = s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server with a 30-second timeout.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		_ = s.server.Shutdown(context.Background())
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Close()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(30 * time.Second):
		s.server.Close()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
