package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"watchwhat/internal/service"
	"watchwhat/internal/transport/rest/handler"
	"watchwhat/internal/transport/rest/middleware"
	"watchwhat/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.SessionService)
	movieHandler := handler.NewMovieHandler(c.SessionService)
	voteHandler := handler.NewVoteHandler(c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SessionService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/code/{code}", sessionHandler.GetByCode).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/status", sessionHandler.Status).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/participants", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/participants", sessionHandler.ListParticipants).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/movies", movieHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/votes", voteHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/rounds/{round}/results", voteHandler.RoundResults).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Participant routes (require a session token)
	participantRoutes := v1.NewRoute().Subrouter()
	participantRoutes.Use(authMW.RequireParticipant)

	participantRoutes.HandleFunc("/sessions/{id}/movies", movieHandler.Submit).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{id}/votes", voteHandler.Cast).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{id}/status", sessionHandler.UpdateStatus).Methods("PUT", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{id}/advance", sessionHandler.Advance).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
