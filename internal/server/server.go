// Package server serves the scene to browser clients and accepts manual
// input over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Controller is the part of the app the server drives. Every method must
// be safe from any goroutine.
type Controller interface {
	Latest(dst *scene.Snapshot) int
	Enter(s scene.State) error
	InjectGesture(l gesture.Label)
	SetGesturesEnabled(on bool) error
	Session() string
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       Controller
	// FrameRate is the websocket push rate. Zero means DefaultFrameRate.
	FrameRate int
}

// Server represents the HTTP server for the visualizer.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	frames *FramesHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		settings := api.NewSettingsHandler(s.config.Store)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)
		s.mux.Handle("/api/phrases", api.NewPhrasesHandler(s.config.Store))
		s.mux.Handle("/api/transitions", api.NewJournalHandler(s.config.Store))
	}

	if s.config.App != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/gesture", s.handleGesture)
		s.mux.HandleFunc("/api/gestures", s.handleGestureToggle)

		s.frames = NewFramesHandler(s.config.App, s.config.FrameRate)
		s.mux.Handle("/api/frames", s.frames)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops the frame broadcaster.
func (s *Server) Close() {
	if s.frames != nil {
		s.frames.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["session"] = s.config.App.Session()
	}
	writeJSON(w, http.StatusOK, response)
}

type stateResponse struct {
	State    scene.State   `json:"state"`
	Gesture  gesture.Label `json:"gesture"`
	Hold     int           `json:"hold"`
	Gestures bool          `json:"gestures"`
	Phrase   string        `json:"phrase,omitempty"`
	Frame    int           `json:"frame"`
}

type stateRequest struct {
	State string `json:"state"`
}

// handleState reports the current state or requests a manual transition.
// The transition is applied on the next render tick.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var snap scene.Snapshot
		n := s.config.App.Latest(&snap)
		writeJSON(w, http.StatusOK, stateResponse{
			State:    snap.State,
			Gesture:  snap.Label,
			Hold:     snap.Hold,
			Gestures: snap.Gestures,
			Phrase:   snap.Phrase,
			Frame:    n,
		})

	case http.MethodPost:
		var req stateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		state, err := scene.ParseState(req.State)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.config.App.Enter(state); err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, scene.ErrUnknownState) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, req)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type gestureRequest struct {
	Gesture string `json:"gesture"`
}

// handleGesture injects a label as if the camera produced it.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	label, ok := gesture.ParseLabel(req.Gesture)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown gesture")
		return
	}
	s.config.App.InjectGesture(label)
	writeJSON(w, http.StatusAccepted, req)
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// handleGestureToggle turns camera gestures on or off.
func (s *Server) handleGestureToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.config.App.SetGesturesEnabled(req.Enabled); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// MJPEG clients never finish on their own.
		if errors.Is(err, context.DeadlineExceeded) {
			return srv.Close()
		}
		return err
	}
	return nil
}
