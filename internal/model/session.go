package model

import "time"

type SessionStatus string

const (
	StatusSubmission SessionStatus = "submission"
	StatusVoting     SessionStatus = "voting"
	StatusRevote     SessionStatus = "revote"
	StatusFinished   SessionStatus = "finished"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s SessionStatus) bool {
	switch s {
	case StatusSubmission, StatusVoting, StatusRevote, StatusFinished:
		return true
	}
	return false
}

// AcceptsVotes reports whether votes may be cast in status s. Revote is a
// voting phase over the same movie set, not a separate kind of round.
func (s SessionStatus) AcceptsVotes() bool {
	return s == StatusVoting || s == StatusRevote
}

type Session struct {
	ID            string        `json:"id" bson:"_id"`
	Code          string        `json:"code" bson:"code"`
	Status        SessionStatus `json:"status" bson:"status"`
	CurrentRound  int           `json:"currentRound" bson:"currentRound"`
	WinnerMovieID *string       `json:"winnerMovieId,omitempty" bson:"winnerMovieId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// SessionDetail is a session together with its participants and movies.
// Returned by the lookup endpoints and pushed to subscribers on connect.
type SessionDetail struct {
	Session
	Participants []Participant `json:"participants"`
	Movies       []Movie       `json:"movies"`
}

// SessionSummary is the compact status view cached in Redis.
type SessionSummary struct {
	SessionID        string        `json:"sessionId"`
	Code             string        `json:"code"`
	Status           SessionStatus `json:"status"`
	CurrentRound     int           `json:"currentRound"`
	ParticipantCount int           `json:"participantCount"`
	MovieCount       int           `json:"movieCount"`
	ActiveMovieCount int           `json:"activeMovieCount"`
	WinnerMovieID    *string       `json:"winnerMovieId,omitempty"`
}
