package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"ignite/internal/api"
	"ignite/internal/config"
	"ignite/internal/logging"
)

// Server serves the HTTP API.
type Server struct {
	bind   string
	logger *slog.Logger
	svc    *api.Service

	lockPath string
	lock     *flock.Flock

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds a server for svc bound to cfg.Server.Bind.
func New(cfg *config.Config, svc *api.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("server requires config and service")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("server bind address is empty")
	}

	lockPath := cfg.InstanceLockPath()
	s := &Server{
		bind:     bind,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		svc:      svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the request router with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/resolve", s.handleResolve)
	mux.HandleFunc("/api/path", s.handlePath)
	mux.HandleFunc("/api/address", s.handleAddress)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/update", s.handleUpdate)
	mux.HandleFunc("/api/versions", s.handleVersions)
	mux.HandleFunc("/api/repr", s.handleRepr)
	mux.HandleFunc("/api/delete", s.handleDelete)
	mux.HandleFunc("/api/rename", s.handleRename)
	mux.HandleFunc("/api/copy", s.handleCopy)
	mux.HandleFunc("/api/journal", s.handleJournal)
	return s.withRequestID(mux)
}

// Start acquires the instance lock and begins serving in the background.
// The server shuts down when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another ignite server holds %s", s.lockPath)
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("root", s.svc.Store().Root()),
		logging.String("lock", s.lockPath),
	)
	return nil
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
}
