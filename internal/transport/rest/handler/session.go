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

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
}

func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.sessionSvc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetByCode handles GET /v1/sessions/code/{code}
func (h *SessionHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	detail, err := h.sessionSvc.GetSessionByCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Status handles GET /v1/sessions/{id}/status
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessionSvc.StatusSummary(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// JoinRequest is the body for joining a session.
type JoinRequest struct {
	Name string `json:"name"`
}

// JoinResponse carries the new participant and its session token.
type JoinResponse struct {
	Participant model.Participant `json:"participant"`
	Token       string            `json:"token"`
}

// Join handles POST /v1/sessions/{id}/participants
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > 50 {
		writeError(w, http.StatusBadRequest, "name must be at most 50 characters")
		return
	}

	participant, token, err := h.sessionSvc.AddParticipant(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, JoinResponse{Participant: *participant, Token: token})
}

// ListParticipants handles GET /v1/sessions/{id}/participants
func (h *SessionHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.sessionSvc.ListParticipants(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if participants == nil {
		participants = []model.Participant{}
	}
	writeJSON(w, http.StatusOK, participants)
}

// UpdateStatusRequest is the body for a manual status transition.
type UpdateStatusRequest struct {
	Status model.SessionStatus `json:"status"`
}

// UpdateStatus handles PUT /v1/sessions/{id}/status
func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.UpdateStatus(r.Context(), sessionID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Advance handles POST /v1/sessions/{id}/advance
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	result, err := h.sessionSvc.AdvanceRound(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
