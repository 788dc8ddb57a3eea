package model

import "time"

type Movie struct {
	ID            string    `json:"id" bson:"_id"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	Title         string    `json:"title" bson:"title"`
	SubmittedByID string    `json:"submittedByParticipantId" bson:"submittedByParticipantId"`
	// EliminatedRound is the round in which the movie was voted out.
	// Nil means the movie is still in the running.
	EliminatedRound *int      `json:"eliminatedRound,omitempty" bson:"eliminatedRound,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// Active reports whether the movie has not been eliminated yet.
func (m *Movie) Active() bool {
	return m.EliminatedRound == nil
}
