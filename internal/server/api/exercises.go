package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/formcoach/internal/exercise"
)

// ExercisesHandler serves the catalog of supported exercises.
type ExercisesHandler struct{}

// NewExercisesHandler creates a new ExercisesHandler.
func NewExercisesHandler() *ExercisesHandler {
	return &ExercisesHandler{}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/exercises or /api/exercises/{name}
func (h *ExercisesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/exercises")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	h.get(w, r, path)
}

// Response types

type exerciseResponse struct {
	Name       string   `json:"name"`
	Phases     []string `json:"phases"`
	Thresholds any      `json:"thresholds"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

// toExerciseResponse describes one exercise by name: its phase cycle
// and the default thresholds a profile can override.
func toExerciseResponse(name string) (exerciseResponse, error) {
	ex, err := exercise.Get(name)
	if err != nil {
		return exerciseResponse{}, err
	}

	thresholds, err := exercise.DefaultThresholds(name)
	if err != nil {
		return exerciseResponse{}, err
	}

	phases := make([]string, 0, len(ex.Phases()))
	for _, p := range ex.Phases() {
		phases = append(phases, string(p))
	}

	return exerciseResponse{
		Name:       name,
		Phases:     phases,
		Thresholds: thresholds,
	}, nil
}

// list handles GET /api/exercises and returns the full catalog.
func (h *ExercisesHandler) list(w http.ResponseWriter, r *http.Request) {
	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(exercise.Names())),
	}

	for _, name := range exercise.Names() {
		resp, err := toExerciseResponse(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to describe exercise")
			return
		}
		response.Exercises = append(response.Exercises, resp)
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/exercises/{name} and returns a single exercise.
func (h *ExercisesHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	resp, err := toExerciseResponse(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "Exercise not found")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
