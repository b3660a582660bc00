// Package server exposes the coverage dashboard over HTTP: a JSON API,
// export downloads, and a server-rendered HTML view.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/testops/coverage-dashboard/internal/archive"
	"github.com/testops/coverage-dashboard/internal/config"
	"github.com/testops/coverage-dashboard/internal/dashboard"
	"github.com/testops/coverage-dashboard/internal/db"
)

type Server struct {
	cfg     *config.Config
	svc     *dashboard.Service
	store   *db.DB          // optional
	archive *archive.Client // optional
	http    *http.Server
	logger  *slog.Logger
}

func New(cfg *config.Config, svc *dashboard.Service, store *db.DB, arch *archive.Client, addr string, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, svc: svc, store: store, archive: arch, logger: logger}
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = mux
	handler = loggingMiddleware(logger, handler)
	handler = recoveryMiddleware(logger, handler)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
