package model

// EventType identifies a session change event pushed to subscribers.
type EventType string

const (
	EventParticipantJoined    EventType = "participant_joined"
	EventMovieSubmitted       EventType = "movie_submitted"
	EventVoteCast             EventType = "vote_cast"
	EventMovieEliminated      EventType = "movie_eliminated"
	EventRoundAdvanced        EventType = "round_advanced"
	EventSessionStatusUpdated EventType = "session_status_updated"
	EventSessionFinished      EventType = "session_finished"
	EventSessionSnapshot      EventType = "session_snapshot"
)

type ParticipantJoinedEvent struct {
	SessionID   string      `json:"sessionId"`
	Participant Participant `json:"participant"`
}

type MovieSubmittedEvent struct {
	SessionID string `json:"sessionId"`
	Movie     Movie  `json:"movie"`
}

type VoteCastEvent struct {
	SessionID     string        `json:"sessionId"`
	Round         int           `json:"round"`
	ParticipantID string        `json:"participantId"`
	MovieID       string        `json:"movieId"`
	VoteSummaries []VoteSummary `json:"voteSummaries"`
}

type MovieEliminatedEvent struct {
	SessionID       string `json:"sessionId"`
	MovieID         string `json:"movieId"`
	Title           string `json:"title"`
	VoteCount       int    `json:"voteCount"`
	EliminatedRound int    `json:"eliminatedRound"`
}

type RoundAdvancedEvent struct {
	SessionID       string        `json:"sessionId"`
	OldRound        int           `json:"oldRound"`
	NewRound        int           `json:"newRound"`
	Status          SessionStatus `json:"status"`
	EliminatedCount int           `json:"eliminatedCount"`
	VoteCounts      []VoteSummary `json:"voteCounts"`
}

type SessionStatusUpdatedEvent struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
}

type WinnerInfo struct {
	MovieID string `json:"movieId"`
	Title   string `json:"title"`
}

type SessionFinishedEvent struct {
	SessionID string     `json:"sessionId"`
	Winner    WinnerInfo `json:"winner"`
}
