package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
)

// SessionHandler handles HTTP requests for evaluation session resources.
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store
}

// NewSessionHandler creates a new SessionHandler. The store may be nil;
// sessions then always run with default thresholds.
func NewSessionHandler(sessions *session.Manager, s *store.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions, store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/sessions or /api/sessions/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/sessions
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/sessions/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createSessionRequest struct {
	Exercise  string `json:"exercise"`
	ProfileID string `json:"profile_id"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	Exercise  string `json:"exercise"`
	Phase     string `json:"phase"`
	Frames    int    `json:"frames"`
	StartedAt string `json:"started_at"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

// toSessionResponse converts a session.Session to a sessionResponse.
func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Exercise:  s.Exercise,
		Phase:     string(s.Tracker.Phase()),
		Frames:    s.Tracker.Frames(),
		StartedAt: s.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/sessions and returns all active sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}

	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id} and returns a single session.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// create handles POST /api/sessions and starts a new evaluation session.
// Thresholds come from the named profile when profile_id is given, from
// the exercise's default profile when one is set, and from the built-in
// defaults otherwise.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate required fields
	if req.Exercise == "" {
		writeError(w, http.StatusBadRequest, "exercise is required")
		return
	}

	// Verify the exercise exists
	if _, err := exercise.Get(req.Exercise); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown exercise")
		return
	}

	// Resolve threshold params
	var params []byte
	if req.ProfileID != "" {
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "Profiles are not available")
			return
		}
		profile, err := h.store.Profiles().GetByID(req.ProfileID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "Profile not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to get profile")
			return
		}
		if profile.Exercise != req.Exercise {
			writeError(w, http.StatusBadRequest, "Profile belongs to a different exercise")
			return
		}
		params = profile.Params
	} else if h.store != nil {
		profile, err := h.store.Profiles().GetDefault(req.Exercise)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get default profile")
			return
		}
		if profile != nil {
			params = profile.Params
		}
	}

	ex, err := exercise.WithParams(req.Exercise, params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid threshold params")
		return
	}

	sess := h.sessions.Create(ex)

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// delete handles DELETE /api/sessions/{id} and ends a session.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.sessions.Delete(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FramesHandler handles landmark frame submission for a session.
type FramesHandler struct {
	sessions *session.Manager
}

// NewFramesHandler creates a new FramesHandler with the given session manager.
func NewFramesHandler(sessions *session.Manager) *FramesHandler {
	return &FramesHandler{sessions: sessions}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/sessions/{id}/frames
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse session ID from path: /api/sessions/{id}/frames
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "frames" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	sessionID := parts[0]

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.process(w, r, sessionID)
}

type processFrameRequest struct {
	Landmarks pose.Frame `json:"landmarks"`
}

// process handles POST /api/sessions/{id}/frames: it advances the
// session by one landmark frame and returns the evaluation result.
func (h *FramesHandler) process(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	var req processFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := sess.Tracker.Process(req.Landmarks)
	if err != nil {
		if errors.Is(err, session.ErrMalformedFrame) {
			writeError(w, http.StatusUnprocessableEntity, "Frame must be empty or contain exactly 33 landmarks")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process frame")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
