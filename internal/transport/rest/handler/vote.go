package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"watchwhat/internal/model"
	"watchwhat/internal/service"
	"watchwhat/internal/transport/rest/middleware"
)

// VoteHandler handles vote casting and tally queries.
type VoteHandler struct {
	sessionSvc *service.SessionService
}

func NewVoteHandler(sessionSvc *service.SessionService) *VoteHandler {
	return &VoteHandler{sessionSvc: sessionSvc}
}

// CastVoteRequest is the body for casting a vote.
type CastVoteRequest struct {
	MovieID string `json:"movieId"`
	Round   int    `json:"round"`
}

// Cast handles POST /v1/sessions/{id}/votes
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MovieID == "" {
		writeError(w, http.StatusBadRequest, "movieId is required")
		return
	}

	vote, err := h.sessionSvc.CastVote(r.Context(), sessionID,
		middleware.GetParticipantID(r.Context()), req.MovieID, req.Round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vote)
}

// List handles GET /v1/sessions/{id}/votes with optional round and
// participant query filters.
func (h *VoteHandler) List(w http.ResponseWriter, r *http.Request) {
	var round *int
	if raw := r.URL.Query().Get("round"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "round must be a positive integer")
			return
		}
		round = &n
	}
	participantID := r.URL.Query().Get("participant")
	if participantID != "" && round == nil {
		writeError(w, http.StatusBadRequest, "participant filter requires a round")
		return
	}

	votes, err := h.sessionSvc.ListVotes(r.Context(), mux.Vars(r)["id"], round, participantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if votes == nil {
		votes = []model.Vote{}
	}
	writeJSON(w, http.StatusOK, votes)
}

// RoundResults handles GET /v1/sessions/{id}/rounds/{round}/results
func (h *VoteHandler) RoundResults(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(mux.Vars(r)["round"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "round must be an integer")
		return
	}

	results, err := h.sessionSvc.RoundResults(r.Context(), mux.Vars(r)["id"], round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
