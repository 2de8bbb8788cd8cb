// ABOUTME: Server orchestrator that wires the store, services and HTTP API together
// ABOUTME: Manages listeners (TCP, TLS or tailnet) and graceful shutdown

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/otango/otango/internal/api"
	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/config"
	"github.com/otango/otango/internal/dictionary"
	"github.com/otango/otango/internal/store"
)

// Server runs the otango HTTP API.
type Server struct {
	config      *config.Config
	store       store.Store
	auth        *auth.Service
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger
}

// OpenStore opens the database described by cfg.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*store.SQLStore, error) {
	dsn := cfg.DSN
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		dsn = cfg.Path
	}
	s, err := store.Open(ctx, store.Options{
		Driver:       cfg.Driver,
		DSN:          dsn,
		MaxOpenConns: cfg.MaxOpenConns,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// NewAuthService builds the auth service for cfg over st.
func NewAuthService(cfg *config.Config, st store.Store, pool *blocking.Pool, logger *slog.Logger) (*auth.Service, error) {
	return auth.NewService(auth.Config{
		Users:        st,
		Challenges:   st,
		Pool:         pool,
		ChallengeTTL: cfg.Auth.ChallengeTTL,
		Logger:       logger,
	})
}

// New opens the configured store and builds a Server on it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewWithStore(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore builds a Server on an already open store. The Server owns st
// and closes it on Shutdown.
func NewWithStore(cfg *config.Config, st store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool := blocking.New(cfg.Auth.Workers)
	authService, err := NewAuthService(cfg, st, pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating auth service: %w", err)
	}

	handler, err := api.New(api.Options{
		Auth:           authService,
		Dictionary:     dictionary.NewService(st, pool, logger),
		RootRedirect:   cfg.Server.RootRedirect,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api: %w", err)
	}

	return &Server{
		config: cfg,
		store:  st,
		auth:   authService,
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           handler.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "server"),
	}, nil
}

// Auth returns the server's auth service.
func (s *Server) Auth() *auth.Service {
	return s.auth
}

// Run listens according to the configuration and serves until ctx is
// canceled. Returns nil on graceful shutdown, or the error that stopped the
// server.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.setupListener(ctx)
	if err != nil {
		_ = s.closeResources()
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := s.startServer(ln)
	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// setupListener creates the listener based on configuration (Tailscale or TCP).
func (s *Server) setupListener(ctx context.Context) (net.Listener, error) {
	if s.config.Tailscale.Enabled {
		if s.config.Server.HTTPAddr != "" {
			s.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", s.config.Server.HTTPAddr)
		}
		return s.setupTailscaleListener(ctx)
	}
	return s.setupTCPListener()
}

// setupTCPListener listens on server.http_addr, wrapping it in TLS when a
// certificate is configured.
func (s *Server) setupTCPListener() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}

	if s.config.Server.TLSCert == "" {
		return ln, nil
	}

	cert, err := tls.LoadX509KeyPair(s.config.Server.TLSCert, s.config.Server.TLSKey)
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("loading TLS certificate: %w", err)
	}
	s.logger.Info("serving HTTPS", "cert", s.config.Server.TLSCert)
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (s *Server) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown performs shutdown with a fresh context bounded by
// server.shutdown_timeout.
func (s *Server) gracefulShutdown() error {
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops accepting requests, waits for in-flight ones, and releases
// the tailnet node and the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	if err := s.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) closeResources() error {
	var errs []error
	if s.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", s.tsnetServer.Close())
		s.tsnetServer = nil
	}
	if s.store != nil {
		errs = appendCloseError(errs, "store close", s.store.Close())
		s.store = nil
	}
	return errors.Join(errs...)
}
