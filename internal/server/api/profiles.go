// Package api provides HTTP API handlers for the FormCoach exercise evaluation system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/store"
)

// ProfileHandler handles HTTP requests for threshold profile resources.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a new ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/profiles, /api/profiles/{id} or /api/profiles/{id}/default
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/profiles
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

	// Default endpoint: /api/profiles/{id}/default
	if strings.HasSuffix(path, "/default") {
		id := strings.TrimSuffix(path, "/default")
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setDefault(w, r, id)
		return
	}

	// Item endpoint: /api/profiles/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createProfileRequest struct {
	Exercise string          `json:"exercise"`
	Name     string          `json:"name"`
	Params   json.RawMessage `json:"params"`
}

type updateProfileRequest struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

type profileResponse struct {
	ID        string          `json:"id"`
	Exercise  string          `json:"exercise"`
	Name      string          `json:"name"`
	Params    json.RawMessage `json:"params"`
	IsDefault bool            `json:"is_default"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toProfileResponse converts a store.Profile to a profileResponse.
func toProfileResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Exercise:  p.Exercise,
		Name:      p.Name,
		Params:    p.Params,
		IsDefault: p.IsDefault,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/profiles and returns all profiles,
// optionally filtered with the ?exercise= query parameter.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		profiles []*store.Profile
		err      error
	)

	if name := r.URL.Query().Get("exercise"); name != "" {
		profiles, err = h.store.Profiles().ListByExercise(name)
	} else {
		profiles, err = h.store.Profiles().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}

	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id} and returns a single profile.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// create handles POST /api/profiles and creates a new profile.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate required fields
	if req.Exercise == "" {
		writeError(w, http.StatusBadRequest, "exercise is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	// Verify the exercise exists
	if _, err := exercise.Get(req.Exercise); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown exercise")
		return
	}

	// Verify the params produce a usable threshold set
	if _, err := exercise.WithParams(req.Exercise, req.Params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid threshold params")
		return
	}

	// Check for duplicate name within the exercise
	existing, err := h.store.Profiles().GetByName(req.Exercise, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing profile")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Profile with this name already exists")
		return
	}

	params := req.Params
	if params == nil {
		params = json.RawMessage("{}")
	}

	profile := &store.Profile{
		ID:       uuid.New().String(),
		Exercise: req.Exercise,
		Name:     req.Name,
		Params:   params,
	}

	if err := h.store.Profiles().Create(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

// update handles PUT /api/profiles/{id} and updates an existing profile.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	// First, get the existing profile
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Update fields if provided
	if req.Name != "" && req.Name != profile.Name {
		existing, err := h.store.Profiles().GetByName(profile.Exercise, req.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to check existing profile")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Profile with this name already exists")
			return
		}
		profile.Name = req.Name
	}
	if req.Params != nil {
		if _, err := exercise.WithParams(profile.Exercise, req.Params); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid threshold params")
			return
		}
		profile.Params = req.Params
	}

	if err := h.store.Profiles().Update(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// setDefault handles POST /api/profiles/{id}/default and makes the
// profile the default for its exercise.
func (h *ProfileHandler) setDefault(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().SetDefault(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set default profile")
		return
	}

	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// delete handles DELETE /api/profiles/{id} and removes a profile.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Profiles().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
