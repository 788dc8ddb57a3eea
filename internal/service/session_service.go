package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"watchwhat/internal/apperr"
	"watchwhat/internal/cache"
	"watchwhat/internal/model"
	"watchwhat/internal/repository"
	"watchwhat/internal/tally"
)

// SessionService owns the session state machine. Every mutating operation
// validates legality for the current status, runs under the session's lock,
// persists through the repositories, and broadcasts the resulting event.
type SessionService struct {
	sessions     repository.SessionRepo
	participants repository.ParticipantRepo
	movies       repository.MovieRepo
	votes        repository.VoteRepo
	summaries    cache.SummaryCache
	authSvc      *AuthService
	broadcaster  Broadcaster
	locks        *sessionLocks
}

func NewSessionService(
	sessions repository.SessionRepo,
	participants repository.ParticipantRepo,
	movies repository.MovieRepo,
	votes repository.VoteRepo,
	summaries cache.SummaryCache,
	authSvc *AuthService,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		participants: participants,
		movies:       movies,
		votes:        votes,
		summaries:    summaries,
		authSvc:      authSvc,
		locks:        newSessionLocks(),
	}
}

// SetBroadcaster sets the fan-out for session events.
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *SessionService) broadcast(sessionID string, event model.EventType, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, event, payload)
	}
}

// CreateSession creates a session in submission status with a fresh code.
func (s *SessionService) CreateSession(ctx context.Context) (*model.Session, error) {
	code, err := generateSessionCode(ctx, s.sessions)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to generate session code")
	}

	now := time.Now()
	session := &model.Session{
		ID:           uuid.New().String(),
		Code:         code,
		Status:       model.StatusSubmission,
		CurrentRound: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to create session")
	}

	s.refreshSummary(ctx, session)
	slog.Info("session created", "session_id", session.ID, "code", session.Code)
	return session, nil
}

// GetSession returns a session with its participants and movies.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*model.SessionDetail, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, session)
}

// GetSessionByCode looks a session up by its share code.
func (s *SessionService) GetSessionByCode(ctx context.Context, code string) (*model.SessionDetail, error) {
	session, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to get session")
	}
	if session == nil {
		return nil, apperr.New(apperr.KindNotFound, "no session with code %s", code)
	}
	return s.detail(ctx, session)
}

func (s *SessionService) detail(ctx context.Context, session *model.Session) (*model.SessionDetail, error) {
	participants, err := s.participants.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list participants")
	}
	movies, err := s.movies.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list movies")
	}
	return &model.SessionDetail{
		Session:      *session,
		Participants: participants,
		Movies:       movies,
	}, nil
}

// AddParticipant joins a participant to a session. Joins are only accepted
// while the session is collecting submissions, so the voting pool stays
// well-defined once voting starts. Returns the participant and a
// session-scoped token.
func (s *SessionService) AddParticipant(ctx context.Context, sessionID, name string) (*model.Participant, string, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if session.Status != model.StatusSubmission {
		return nil, "", apperr.New(apperr.KindInvalidState,
			"session %s is %s and not accepting new participants", sessionID, session.Status)
	}

	participant := &model.Participant{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, "", apperr.Wrap(apperr.KindStore, err, "failed to create participant")
	}

	token, err := s.authSvc.GenerateParticipantToken(participant)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindStore, err, "failed to generate participant token")
	}

	s.refreshSummary(ctx, session)
	s.broadcast(sessionID, model.EventParticipantJoined, model.ParticipantJoinedEvent{
		SessionID:   sessionID,
		Participant: *participant,
	})
	slog.Info("participant joined", "session_id", sessionID, "participant_id", participant.ID, "name", participant.Name)
	return participant, token, nil
}

// SubmitMovie adds a movie to the session pool during the submission phase.
// Titles are unique per session, compared case-insensitively after trimming.
func (s *SessionService) SubmitMovie(ctx context.Context, sessionID, participantID, title string) (*model.Movie, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.StatusSubmission {
		return nil, apperr.New(apperr.KindInvalidState,
			"session %s is %s and not accepting movie submissions", sessionID, session.Status)
	}

	participant, err := s.getParticipant(ctx, sessionID, participantID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	existing, err := s.movies.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list movies")
	}
	for _, m := range existing {
		if strings.EqualFold(strings.TrimSpace(m.Title), title) {
			return nil, apperr.New(apperr.KindDuplicateTitle,
				"%q was already submitted to session %s", title, sessionID)
		}
	}

	movie := &model.Movie{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		Title:         title,
		SubmittedByID: participant.ID,
		CreatedAt:     time.Now(),
	}
	if err := s.movies.Create(ctx, movie); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to create movie")
	}

	s.refreshSummary(ctx, session)
	s.broadcast(sessionID, model.EventMovieSubmitted, model.MovieSubmittedEvent{
		SessionID: sessionID,
		Movie:     *movie,
	})
	slog.Info("movie submitted", "session_id", sessionID, "movie_id", movie.ID, "title", movie.Title)
	return movie, nil
}

// CastVote records one participant's vote for one active movie in the
// current round and broadcasts the updated round tally. A participant may
// vote for any number of distinct active movies in a round, but only once
// per movie.
func (s *SessionService) CastVote(ctx context.Context, sessionID, participantID, movieID string, round int) (*model.Vote, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.AcceptsVotes() {
		return nil, apperr.New(apperr.KindInvalidState,
			"session %s is %s, not in a voting phase", sessionID, session.Status)
	}
	if round != session.CurrentRound {
		return nil, apperr.New(apperr.KindInvalidRound,
			"vote is for round %d but session %s is on round %d", round, sessionID, session.CurrentRound)
	}

	if _, err := s.getParticipant(ctx, sessionID, participantID); err != nil {
		return nil, err
	}

	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to get movie")
	}
	if movie == nil {
		return nil, apperr.New(apperr.KindNotFound, "movie %s not found", movieID)
	}
	if movie.SessionID != sessionID {
		return nil, apperr.New(apperr.KindInvalidTarget,
			"movie %s does not belong to session %s", movieID, sessionID)
	}
	if !movie.Active() {
		return nil, apperr.New(apperr.KindInvalidTarget,
			"movie %s was eliminated in round %d", movieID, *movie.EliminatedRound)
	}

	vote := &model.Vote{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		Round:         round,
		ParticipantID: participantID,
		MovieID:       movieID,
		CreatedAt:     time.Now(),
	}
	if err := s.votes.Create(ctx, vote); err != nil {
		if apperr.KindOf(err) == apperr.KindDuplicateVote {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to create vote")
	}

	// The broadcast tally is recomputed from stored votes, never from an
	// in-memory counter.
	summaries, err := s.roundTally(ctx, sessionID, round)
	if err != nil {
		return nil, err
	}

	s.broadcast(sessionID, model.EventVoteCast, model.VoteCastEvent{
		SessionID:     sessionID,
		Round:         round,
		ParticipantID: participantID,
		MovieID:       movieID,
		VoteSummaries: summaries,
	})
	slog.Info("vote cast", "session_id", sessionID, "participant_id", participantID, "movie_id", movieID, "round", round)
	return vote, nil
}

// UpdateStatus performs a manual status transition. The only legal manual
// move is submission -> voting (the creator starting the vote); everything
// else happens through AdvanceRound or not at all.
func (s *SessionService) UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus) (*model.Session, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if !model.ValidStatus(status) {
		return nil, apperr.New(apperr.KindInvalidState, "unknown status %q", status)
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.StatusSubmission || status != model.StatusVoting {
		return nil, apperr.New(apperr.KindInvalidState,
			"cannot transition session %s from %s to %s", sessionID, session.Status, status)
	}

	session.Status = status
	session.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to update session")
	}

	s.refreshSummary(ctx, session)
	s.broadcast(sessionID, model.EventSessionStatusUpdated, model.SessionStatusUpdatedEvent{
		SessionID: sessionID,
		Status:    status,
	})
	slog.Info("session status updated", "session_id", sessionID, "status", status)
	return session, nil
}

// AdvanceResult is the outcome of closing a voting round.
type AdvanceResult struct {
	Session    *model.Session      `json:"session"`
	OldRound   int                 `json:"oldRound"`
	NewRound   int                 `json:"newRound"`
	Eliminated []model.VoteSummary `json:"eliminatedMovies"`
	VoteCounts []model.VoteSummary `json:"voteCounts"`
	Winner     *model.WinnerInfo   `json:"winner,omitempty"`
}

// AdvanceRound closes the current voting round: it tallies the round over the
// active movies, eliminates the movies at the minimum count (unless the round
// is a full tie, which forces a revote over the same set), and either opens
// the next round or finishes the session with a winner.
func (s *SessionService) AdvanceRound(ctx context.Context, sessionID string) (*AdvanceResult, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.AcceptsVotes() {
		return nil, apperr.New(apperr.KindInvalidState,
			"cannot advance round while session %s is %s", sessionID, session.Status)
	}

	// Tally over the movies active in this round rather than the live active
	// set. If a previous advance failed partway through stamping eliminations,
	// the half-stamped movies still carry this round's number, so a retry sees
	// the same set, derives the same decision, and re-stamps idempotently.
	active, err := s.moviesActiveInRound(ctx, sessionID, session.CurrentRound)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByRound(ctx, sessionID, session.CurrentRound)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list votes")
	}

	counts, err := tally.Count(active, votes, session.CurrentRound)
	if err != nil {
		return nil, err
	}
	outcome, err := tally.Decide(counts)
	if err != nil {
		return nil, err
	}

	oldRound := session.CurrentRound
	for _, e := range outcome.Eliminated {
		if err := s.movies.SetEliminated(ctx, e.MovieID, oldRound); err != nil {
			return nil, apperr.Wrap(apperr.KindStore, err, "failed to eliminate movie")
		}
	}

	session.CurrentRound++
	session.UpdatedAt = time.Now()
	var winner *model.WinnerInfo
	switch outcome.Phase {
	case tally.PhaseFinished:
		session.Status = model.StatusFinished
		id := outcome.WinnerID
		session.WinnerMovieID = &id
		for _, m := range active {
			if m.ID == id {
				winner = &model.WinnerInfo{MovieID: id, Title: m.Title}
			}
		}
	case tally.PhaseRevote:
		session.Status = model.StatusRevote
	default:
		session.Status = model.StatusVoting
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to update session")
	}
	s.refreshSummary(ctx, session)

	// Events go out in commit order: eliminations, then the round advance,
	// then the finish.
	for _, e := range outcome.Eliminated {
		s.broadcast(sessionID, model.EventMovieEliminated, model.MovieEliminatedEvent{
			SessionID:       sessionID,
			MovieID:         e.MovieID,
			Title:           e.MovieTitle,
			VoteCount:       e.VoteCount,
			EliminatedRound: oldRound,
		})
	}
	s.broadcast(sessionID, model.EventRoundAdvanced, model.RoundAdvancedEvent{
		SessionID:       sessionID,
		OldRound:        oldRound,
		NewRound:        session.CurrentRound,
		Status:          session.Status,
		EliminatedCount: len(outcome.Eliminated),
		VoteCounts:      counts,
	})
	if winner != nil {
		s.broadcast(sessionID, model.EventSessionFinished, model.SessionFinishedEvent{
			SessionID: sessionID,
			Winner:    *winner,
		})
	}

	slog.Info("round advanced",
		"session_id", sessionID,
		"old_round", oldRound,
		"new_round", session.CurrentRound,
		"status", session.Status,
		"eliminated", len(outcome.Eliminated))

	return &AdvanceResult{
		Session:    session,
		OldRound:   oldRound,
		NewRound:   session.CurrentRound,
		Eliminated: outcome.Eliminated,
		VoteCounts: counts,
		Winner:     winner,
	}, nil
}

// StatusSummary returns the compact progress view of a session, served from
// the summary cache when fresh.
func (s *SessionService) StatusSummary(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	if cached, err := s.summaries.Get(ctx, sessionID); err == nil && cached != nil {
		return cached, nil
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary, err := s.buildSummary(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := s.summaries.Set(ctx, summary); err != nil {
		slog.Warn("failed to cache session summary", "session_id", sessionID, "error", err)
	}
	return summary, nil
}

// RoundResults recomputes the tally for a round from stored votes, together
// with the movie ids the elimination rule removes for that tally. For closed
// rounds this reproduces the decision that was made.
func (s *SessionService) RoundResults(ctx context.Context, sessionID string, round int) (*model.RoundResults, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if round < 1 || round > session.CurrentRound {
		return nil, apperr.New(apperr.KindInvalidRound,
			"round %d is out of range for session %s", round, sessionID)
	}

	movies, err := s.moviesActiveInRound(ctx, sessionID, round)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByRound(ctx, sessionID, round)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list votes")
	}

	counts, err := tally.Count(movies, votes, round)
	if err != nil {
		return nil, err
	}

	results := &model.RoundResults{Round: round, Votes: counts, EliminatedMovies: []string{}}
	if len(counts) > 1 {
		outcome, err := tally.Decide(counts)
		if err != nil {
			return nil, err
		}
		for _, e := range outcome.Eliminated {
			results.EliminatedMovies = append(results.EliminatedMovies, e.MovieID)
		}
	}
	return results, nil
}

// ListParticipants returns the session's participants in join order.
func (s *SessionService) ListParticipants(ctx context.Context, sessionID string) ([]model.Participant, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	participants, err := s.participants.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list participants")
	}
	return participants, nil
}

// ListMovies returns the session's movies, optionally only the active ones.
func (s *SessionService) ListMovies(ctx context.Context, sessionID string, activeOnly bool) ([]model.Movie, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var (
		movies []model.Movie
		err    error
	)
	if activeOnly {
		movies, err = s.movies.ListActive(ctx, sessionID)
	} else {
		movies, err = s.movies.ListBySession(ctx, sessionID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list movies")
	}
	return movies, nil
}

// ListVotes returns a session's votes, optionally narrowed to a round and a
// participant.
func (s *SessionService) ListVotes(ctx context.Context, sessionID string, round *int, participantID string) ([]model.Vote, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var (
		votes []model.Vote
		err   error
	)
	switch {
	case participantID != "" && round != nil:
		votes, err = s.votes.ListByParticipant(ctx, sessionID, participantID, *round)
	case round != nil:
		votes, err = s.votes.ListByRound(ctx, sessionID, *round)
	default:
		votes, err = s.votes.ListBySession(ctx, sessionID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list votes")
	}
	return votes, nil
}

func (s *SessionService) getSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to get session")
	}
	if session == nil {
		return nil, apperr.New(apperr.KindNotFound, "session %s not found", sessionID)
	}
	return session, nil
}

func (s *SessionService) getParticipant(ctx context.Context, sessionID, participantID string) (*model.Participant, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to get participant")
	}
	if participant == nil || participant.SessionID != sessionID {
		return nil, apperr.New(apperr.KindNotFound,
			"participant %s not found in session %s", participantID, sessionID)
	}
	return participant, nil
}

// roundTally counts the given round over the movies active in that round, so
// it stays valid for votes on movies a half-failed advance already stamped.
func (s *SessionService) roundTally(ctx context.Context, sessionID string, round int) ([]model.VoteSummary, error) {
	active, err := s.moviesActiveInRound(ctx, sessionID, round)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByRound(ctx, sessionID, round)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list votes")
	}
	return tally.Count(active, votes, round)
}

// moviesActiveInRound reconstructs the movie set that was active during a
// round: everything not yet eliminated by the end of that round.
func (s *SessionService) moviesActiveInRound(ctx context.Context, sessionID string, round int) ([]model.Movie, error) {
	movies, err := s.movies.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list movies")
	}
	var out []model.Movie
	for _, m := range movies {
		if m.EliminatedRound == nil || *m.EliminatedRound >= round {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *SessionService) buildSummary(ctx context.Context, session *model.Session) (*model.SessionSummary, error) {
	participantCount, err := s.participants.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to count participants")
	}
	movieCount, err := s.movies.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to count movies")
	}
	active, err := s.movies.ListActive(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, err, "failed to list active movies")
	}
	return &model.SessionSummary{
		SessionID:        session.ID,
		Code:             session.Code,
		Status:           session.Status,
		CurrentRound:     session.CurrentRound,
		ParticipantCount: participantCount,
		MovieCount:       movieCount,
		ActiveMovieCount: len(active),
		WinnerMovieID:    session.WinnerMovieID,
	}, nil
}

// refreshSummary rewrites the cached summary after a committed mutation.
// Cache failures are logged, not surfaced; the store stays authoritative.
func (s *SessionService) refreshSummary(ctx context.Context, session *model.Session) {
	summary, err := s.buildSummary(ctx, session)
	if err != nil {
		slog.Warn("failed to build session summary", "session_id", session.ID, "error", err)
		return
	}
	if err := s.summaries.Set(ctx, summary); err != nil {
		slog.Warn("failed to cache session summary", "session_id", session.ID, "error", err)
	}
}
