package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stayscope/internal/artifacts"
	"stayscope/internal/config"
	"stayscope/internal/logging"
	"stayscope/internal/pipeline"
	"stayscope/internal/runs"
)

// Server exposes the run registry and the audit pipelines over HTTP. It does
// not listen until Start is called.
type Server struct {
	bind   string
	logger *slog.Logger
	store  *runs.Store
	files  *artifacts.Store
	runner *pipeline.Runner
	router *mux.Router

	listener net.Listener
	server   *http.Server
}

// New wires the route tree on top of an open registry, artifact store, and
// pipeline runner.
func New(cfg *config.Config, store *runs.Store, files *artifacts.Store, runner *pipeline.Runner, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil || files == nil || runner == nil {
		return nil, errors.New("api server requires config, store, artifact store, and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:   cfg.Paths.APIBind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		store:  store,
		files:  files,
		runner: runner,
	}

	router := mux.NewRouter()
	router.Use(srv.instrument)
	router.NotFoundHandler = srv.instrument(http.HandlerFunc(srv.handleNotFound))
	router.MethodNotAllowedHandler = srv.instrument(http.HandlerFunc(srv.handleMethodNotAllowed))

	router.HandleFunc("/", srv.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", srv.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	apiRoutes := router.PathPrefix("/api").Subrouter()
	apiRoutes.HandleFunc("/models", srv.handleModels).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/health/run", srv.handleHealthRun).Methods(http.MethodPost)
	apiRoutes.HandleFunc("/deep-dive/run", srv.handleDeepDiveRun).Methods(http.MethodPost)
	apiRoutes.HandleFunc("/train/{model_id}", srv.handleTrain).Methods(http.MethodPost)
	apiRoutes.HandleFunc("/runs", srv.handleRuns).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/runs/latest", srv.handleLatestRun).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/artifacts/{model_id}", srv.handleArtifacts).Methods(http.MethodGet)

	srv.router = router
	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the route tree for serving through a custom listener or in
// tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the configured address and serves until ctx is cancelled or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps a registry or pipeline error onto an HTTP status through
// its error kind.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	s.writeError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch runs.ErrorKindOf(err) {
	case "not_found":
		return http.StatusNotFound
	case "invalid_state":
		return http.StatusConflict
	case "schema":
		return http.StatusUnprocessableEntity
	case "storage":
		return http.StatusServiceUnavailable
	case "computation":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
