package model

import "github.com/golang-jwt/jwt/v5"

// ParticipantClaims is the session-scoped identity issued when a participant
// joins. It only names who the caller is within one session; there are no
// accounts behind it.
type ParticipantClaims struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}
