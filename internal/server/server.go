// Package server provides the HTTP server for the Nebula particle visualizer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/plugin"
	"github.com/ayusman/nebula/internal/render"
	"github.com/ayusman/nebula/internal/server/api"
	"github.com/ayusman/nebula/internal/store"
)

// Config holds the server configuration. Nil fields disable the routes that
// need them.
type Config struct {
	StaticDir string
	Store     *store.Store
	Live      *config.Live
	Engine    api.Engine
	Mic       api.Microphone
	Plugins   *plugin.Manager

	// Frames serves the particle frame websocket, usually a
	// render.Broadcaster.
	Frames http.Handler
	// Status holds the header of the latest rendered frame.
	Status *render.Latest
	// Preview supplies camera JPEGs for the MJPEG stream.
	Preview JPEGSource
	// Tracking supplies detector results for the landmarks websocket.
	Tracking ResultSource
}

// Server represents the HTTP server for the Nebula application.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	landmarks *LandmarksHandler
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

	if s.config.Live != nil {
		s.mux.Handle("/api/config", api.NewConfigHandler(s.config.Live, s.config.Store))
	}

	if s.config.Engine != nil {
		api.NewShapesHandler(s.config.Engine, s.config.Store).Register(s.mux)
		api.NewAudioHandler(s.config.Engine, s.config.Mic).Register(s.mux)
	}

	if s.config.Plugins != nil {
		s.mux.Handle("GET /api/plugins", api.NewPluginsHandler(s.config.Plugins))
	}

	if s.config.Status != nil {
		s.mux.HandleFunc("GET /api/status", s.handleStatus)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/frames", s.config.Frames)
	}

	// Register camera stream endpoint if a preview source is configured
	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Tracking != nil {
		s.landmarks = NewLandmarksHandler(s.config.Tracking)
		s.mux.Handle("/api/landmarks", s.landmarks)
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

// Close stops background broadcasters.
func (s *Server) Close() {
	if s.landmarks != nil {
		s.landmarks.Close()
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleStatus handles GET /api/status with the latest frame header.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	f := s.config.Status.Frame()
	w.Header().Set("Content-Type", "application/json")
	if f == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "engine not running"})
		return
	}
	json.NewEncoder(w).Encode(f)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
