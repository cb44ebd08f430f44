// Package api provides the read-only HTTP surface over the risk ledger:
// snapshot, ranked suspects, per-account detail, agent roster, global
// metrics, the transaction log, and the environment reset command.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/engine"
	"github.com/ledger-sentinel/internal/feed"
	"github.com/ledger-sentinel/internal/ledger"
	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/metrics"
)

// Resetter returns the core to its empty initial state.
type Resetter interface {
	Reset()
}

// ResetFunc adapts a function to the Resetter interface.
type ResetFunc func()

// Reset implements Resetter.
func (f ResetFunc) Reset() { f() }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	config     ServerConfig

	store    *ledger.Store
	agents   *agent.Registry
	history  *engine.History
	meter    *feed.Meter
	resetter Resetter
	logger   *logging.Logger
}

// NewServer creates the API server and wires its routes.
func NewServer(cfg ServerConfig, store *ledger.Store, agents *agent.Registry, history *engine.History, meter *feed.Meter, resetter Resetter, logger *logging.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		store:    store,
		agents:   agents,
		history:  history,
		meter:    meter,
		resetter: resetter,
		logger:   logger.WithField("component", "api"),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ledger", s.handleLedger).Methods(http.MethodGet)
	api.HandleFunc("/suspects", s.handleSuspects).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", s.handleAccount).Methods(http.MethodGet)
	api.HandleFunc("/agents", s.handleAgents).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleTransactions).Methods(http.MethodGet)
	api.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return ctx.Err()
}
