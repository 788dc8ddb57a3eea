package model

import "time"

type Vote struct {
	ID            string    `json:"id" bson:"_id"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	Round         int       `json:"round" bson:"round"`
	ParticipantID string    `json:"participantId" bson:"participantId"`
	MovieID       string    `json:"movieId" bson:"movieId"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// VoteSummary is the per-movie count for one round of a session's tally.
type VoteSummary struct {
	MovieID    string `json:"movieId"`
	MovieTitle string `json:"movieTitle"`
	VoteCount  int    `json:"voteCount"`
	Round      int    `json:"round"`
}

// RoundResults is the tally for one round plus the movies the elimination
// rule would remove for that tally.
type RoundResults struct {
	Round            int           `json:"round"`
	Votes            []VoteSummary `json:"votes"`
	EliminatedMovies []string      `json:"eliminatedMovies"`
}
