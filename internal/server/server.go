// Package server provides the HTTP and WebSocket API for yubimoji.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/yubimoji/internal/app"
	"github.com/ayusman/yubimoji/internal/logging"
	"github.com/ayusman/yubimoji/internal/server/api"
	"github.com/ayusman/yubimoji/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Logger    *slog.Logger
}

// Server routes the yubimoji HTTP API.
type Server struct {
	config Config
	logger *slog.Logger
	mux    *http.ServeMux
	start  time.Time
	hub    *Hub
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		logger: logging.NewComponentLogger(config.Logger, "server"),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		words := api.NewWordHandler(s.config.Store)
		s.mux.Handle("/api/words", words)
		s.mux.Handle("/api/words/", words)
	}

	if a := s.config.App; a != nil {
		s.hub = NewHub(s.logger)
		a.AddObserver(s.hub)
		a.AddLandmarkObserver(s.hub)

		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/reset", s.handleReset)
		s.mux.HandleFunc("/api/recognition", s.handleRecognition)
		s.mux.Handle("/api/events", s.hub)
		s.mux.Handle("/api/session", NewSessionHandler(a, s.logger))

		if a.HasCamera() {
			s.mux.Handle("/api/stream", NewStreamHandler(a))
		}
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

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	})
}

type stateResponse struct {
	Session app.State `json:"session"`
	Enabled bool      `json:"enabled"`
	Camera  bool      `json:"camera"`
	Clients int       `json:"clients"`
}

func (s *Server) currentState() stateResponse {
	a := s.config.App
	return stateResponse{
		Session: a.Session().State(),
		Enabled: a.IsEnabled(),
		Camera:  a.Running(),
		Clients: s.hub.Clients(),
	}
}

// handleState handles GET /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	api.WriteJSON(w, http.StatusOK, s.currentState())
}

// handleReset handles POST /api/reset and clears the local pending sign.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.config.App.Session().Reset()
	api.WriteJSON(w, http.StatusOK, s.currentState())
}

type recognitionRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleRecognition handles PUT /api/recognition to pause or resume the camera pipeline.
func (s *Server) handleRecognition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req recognitionRequest
	if err := decodeJSON(r, &req); err != nil || req.Enabled == nil {
		api.WriteError(w, http.StatusBadRequest, "Expected {\"enabled\": bool}")
		return
	}
	s.config.App.SetEnabled(*req.Enabled)
	api.WriteJSON(w, http.StatusOK, s.currentState())
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(v)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.hub != nil {
		s.hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
