// Package server provides the HTTP server for the FormCoach exercise evaluation system.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/formcoach/internal/capture"
	"github.com/ayusman/formcoach/internal/server/api"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  *session.Manager
	Camera    capture.Camera
	Live      LiveSource
}

// Server represents the HTTP server for the FormCoach application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
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

// setupRoutes wires the handler tree. Nil dependencies leave their
// routes unregistered, so a server built from a zero Config still
// answers health and exercise catalog requests.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	exercisesHandler := api.NewExercisesHandler()
	s.mux.Handle("/api/exercises", exercisesHandler)
	s.mux.Handle("/api/exercises/", exercisesHandler)

	if s.config.Store != nil {
		profileHandler := api.NewProfileHandler(s.config.Store)
		s.mux.Handle("/api/profiles", profileHandler)
		s.mux.Handle("/api/profiles/", profileHandler)
	}

	if s.config.Sessions != nil {
		sessionHandler := api.NewSessionHandler(s.config.Sessions, s.config.Store)
		framesHandler := api.NewFramesHandler(s.config.Sessions)

		// /api/sessions/{id}/frames belongs to the frames handler,
		// everything else under /api/sessions to the session handler.
		sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/frames") {
				framesHandler.ServeHTTP(w, r)
				return
			}
			sessionHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/sessions", sessionRouter)
		s.mux.Handle("/api/sessions/", sessionRouter)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.Live != nil {
		s.mux.Handle("/ws/live", NewLiveHandler(s.config.Live))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth reports process liveness and uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	response := struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Uptime: time.Since(s.start).String(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("server: failed to encode health response: %v", err)
	}
}

// ListenAndServe starts the HTTP server on the given address. The
// stream and WebSocket endpoints hold their connections open, so
// only the header read carries a timeout.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
