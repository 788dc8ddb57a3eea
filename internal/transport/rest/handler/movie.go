package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"watchwhat/internal/model"
	"watchwhat/internal/service"
	"watchwhat/internal/transport/rest/middleware"
)

// MovieHandler handles movie submission and listing.
type MovieHandler struct {
	sessionSvc *service.SessionService
}

func NewMovieHandler(sessionSvc *service.SessionService) *MovieHandler {
	return &MovieHandler{sessionSvc: sessionSvc}
}

// SubmitMovieRequest is the body for submitting a movie.
type SubmitMovieRequest struct {
	Title string `json:"title"`
}

// Submit handles POST /v1/sessions/{id}/movies
func (h *MovieHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	var req SubmitMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Title) > 200 {
		writeError(w, http.StatusBadRequest, "title must be at most 200 characters")
		return
	}

	movie, err := h.sessionSvc.SubmitMovie(r.Context(), sessionID,
		middleware.GetParticipantID(r.Context()), req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movie)
}

// List handles GET /v1/sessions/{id}/movies with an optional active=true
// filter.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	movies, err := h.sessionSvc.ListMovies(r.Context(), mux.Vars(r)["id"], activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}
