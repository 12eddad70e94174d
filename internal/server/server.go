// Package server provides the HTTP dashboard: tracker state, history,
// the annotated video stream and live overlay updates.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ayusman/orion/internal/server/api"
	"github.com/ayusman/orion/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Tracker   api.Tracker
	Frames    FrameSource
	Hub       *Hub
	Logger    *zap.Logger
}

// Server is the dashboard's HTTP handler.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *zap.Logger
	http   *http.Server
}

// New creates a Server. Endpoints whose backing component is nil in config
// are not registered.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		transitions := api.NewTransitionsHandler(s.config.Store, s.logger.Named("api"))
		s.mux.Handle("/api/transitions", transitions)
		s.mux.Handle("/api/transitions/", transitions)
	}

	if s.config.Tracker != nil {
		state := api.NewStateHandler(s.config.Tracker)
		s.mux.HandleFunc("/api/state", state.State)
		s.mux.HandleFunc("/api/reset", state.Reset)
		s.mux.HandleFunc("/api/enable", state.Enable)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/overlay", s.config.Hub)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["overlay_clients"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("dashboard listening", zap.String("addr", addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "serve")
}

// Shutdown stops accepting connections and closes overlay clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
