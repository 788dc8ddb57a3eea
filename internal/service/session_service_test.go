package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"watchwhat/internal/apperr"
	"watchwhat/internal/cache"
	"watchwhat/internal/model"
	"watchwhat/internal/repository"
)

// eventRecorder captures broadcasts so tests can assert on event order.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	SessionID string
	Type      model.EventType
	Payload   interface{}
}

func (r *eventRecorder) BroadcastToSession(sessionID string, event model.EventType, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{SessionID: sessionID, Type: event, Payload: payload})
}

func (r *eventRecorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestService(t *testing.T) (*SessionService, *eventRecorder) {
	t.Helper()
	svc := NewSessionService(
		repository.NewMemorySessionRepo(),
		repository.NewMemoryParticipantRepo(),
		repository.NewMemoryMovieRepo(),
		repository.NewMemoryVoteRepo(),
		cache.NewMemorySummaryCache(),
		NewAuthService("test-secret"),
	)
	rec := &eventRecorder{}
	svc.SetBroadcaster(rec)
	return svc, rec
}

// setupVotingSession creates a session with three participants and the given
// movie titles, already moved into the voting phase.
func setupVotingSession(t *testing.T, svc *SessionService, titles ...string) (*model.Session, []model.Participant, []model.Movie) {
	t.Helper()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	var participants []model.Participant
	for i := 0; i < 3; i++ {
		p, _, err := svc.AddParticipant(ctx, session.ID, "Participant "+strconv.Itoa(i+1))
		if err != nil {
			t.Fatalf("AddParticipant: %v", err)
		}
		participants = append(participants, *p)
	}

	var movies []model.Movie
	for i, title := range titles {
		m, err := svc.SubmitMovie(ctx, session.ID, participants[i%len(participants)].ID, title)
		if err != nil {
			t.Fatalf("SubmitMovie %q: %v", title, err)
		}
		movies = append(movies, *m)
	}

	session, err = svc.UpdateStatus(ctx, session.ID, model.StatusVoting)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	return session, participants, movies
}

func TestCreateSessionDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.Status != model.StatusSubmission {
		t.Errorf("expected status submission, got %s", session.Status)
	}
	if session.CurrentRound != 1 {
		t.Errorf("expected round 1, got %d", session.CurrentRound)
	}
	if len(session.Code) != 6 {
		t.Errorf("expected 6-char code, got %q", session.Code)
	}
	if session.WinnerMovieID != nil {
		t.Error("new session must not have a winner")
	}

	detail, err := svc.GetSessionByCode(context.Background(), session.Code)
	if err != nil {
		t.Fatalf("GetSessionByCode: %v", err)
	}
	if detail.ID != session.ID {
		t.Errorf("code lookup returned wrong session %s", detail.ID)
	}
}

func TestAddParticipantRejectedAfterSubmission(t *testing.T) {
	svc, _ := newTestService(t)
	session, _, _ := setupVotingSession(t, svc, "Alien", "Heat")

	_, _, err := svc.AddParticipant(context.Background(), session.ID, "Latecomer")
	if err == nil {
		t.Fatal("expected late join to be rejected")
	}
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected KindInvalidState, got %s", apperr.KindOf(err))
	}
}

func TestSubmitMovieDuplicateTitle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, _ := mustSession(t, svc)
	p, _, err := svc.AddParticipant(ctx, session.ID, "Sam")
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if _, err := svc.SubmitMovie(ctx, session.ID, p.ID, "Alien"); err != nil {
		t.Fatalf("SubmitMovie: %v", err)
	}

	_, err = svc.SubmitMovie(ctx, session.ID, p.ID, "  aLiEn ")
	if err == nil {
		t.Fatal("expected duplicate title to be rejected")
	}
	if apperr.KindOf(err) != apperr.KindDuplicateTitle {
		t.Errorf("expected KindDuplicateTitle, got %s", apperr.KindOf(err))
	}
}

func TestSubmitMovieOutsideSubmission(t *testing.T) {
	svc, _ := newTestService(t)
	session, participants, _ := setupVotingSession(t, svc, "Alien", "Heat")

	_, err := svc.SubmitMovie(context.Background(), session.ID, participants[0].ID, "Dune")
	if err == nil {
		t.Fatal("expected submission to be rejected while voting")
	}
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected KindInvalidState, got %s", apperr.KindOf(err))
	}
}

func TestCastVoteValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, participants, movies := setupVotingSession(t, svc, "Alien", "Heat")

	// Wrong round (scenario: round 3 while current is 1).
	_, err := svc.CastVote(ctx, session.ID, participants[0].ID, movies[0].ID, 3)
	if apperr.KindOf(err) != apperr.KindInvalidRound {
		t.Errorf("expected KindInvalidRound, got %v", err)
	}

	// Unknown movie.
	_, err = svc.CastVote(ctx, session.ID, participants[0].ID, "nope", 1)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected KindNotFound, got %v", err)
	}

	// Movie from another session.
	_, _, otherMovies := setupVotingSession(t, svc, "Dune", "Tron")
	_, err = svc.CastVote(ctx, session.ID, participants[0].ID, otherMovies[0].ID, 1)
	if apperr.KindOf(err) != apperr.KindInvalidTarget {
		t.Errorf("expected KindInvalidTarget for foreign movie, got %v", err)
	}

	// First vote succeeds, exact repeat is a duplicate.
	if _, err := svc.CastVote(ctx, session.ID, participants[0].ID, movies[0].ID, 1); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	_, err = svc.CastVote(ctx, session.ID, participants[0].ID, movies[0].ID, 1)
	if apperr.KindOf(err) != apperr.KindDuplicateVote {
		t.Errorf("expected KindDuplicateVote, got %v", err)
	}

	// Same participant may vote for a different movie in the same round.
	if _, err := svc.CastVote(ctx, session.ID, participants[0].ID, movies[1].ID, 1); err != nil {
		t.Errorf("vote for second movie should succeed: %v", err)
	}
}

func TestCastVoteRejectedOutsideVoting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, _ := mustSession(t, svc)
	p, _, err := svc.AddParticipant(ctx, session.ID, "Sam")
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	m, err := svc.SubmitMovie(ctx, session.ID, p.ID, "Alien")
	if err != nil {
		t.Fatalf("SubmitMovie: %v", err)
	}

	_, err = svc.CastVote(ctx, session.ID, p.ID, m.ID, 1)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected KindInvalidState, got %v", err)
	}
}

// Scenario A: X=2, Y=0, Z=2 in round 1 eliminates Y and continues voting.
func TestAdvanceRoundEliminatesMinimum(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, participants, movies := setupVotingSession(t, svc, "X", "Y", "Z")

	x, z := movies[0], movies[2]
	for _, p := range participants[:2] {
		if _, err := svc.CastVote(ctx, session.ID, p.ID, x.ID, 1); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
		if _, err := svc.CastVote(ctx, session.ID, p.ID, z.ID, 1); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
	}

	result, err := svc.AdvanceRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if result.OldRound != 1 || result.NewRound != 2 {
		t.Errorf("expected round 1 -> 2, got %d -> %d", result.OldRound, result.NewRound)
	}
	if result.Session.Status != model.StatusVoting {
		t.Errorf("expected status voting, got %s", result.Session.Status)
	}
	if len(result.Eliminated) != 1 || result.Eliminated[0].MovieID != movies[1].ID {
		t.Errorf("expected Y eliminated, got %+v", result.Eliminated)
	}

	active, err := svc.ListMovies(ctx, session.ID, true)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active movies, got %d", len(active))
	}

	eliminated, err := svc.ListMovies(ctx, session.ID, false)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	for _, m := range eliminated {
		if m.ID == movies[1].ID {
			if m.EliminatedRound == nil || *m.EliminatedRound != 1 {
				t.Errorf("Y should be stamped with round 1, got %v", m.EliminatedRound)
			}
		}
	}

	// Eliminated movies are no longer a valid vote target.
	_, err = svc.CastVote(ctx, session.ID, participants[0].ID, movies[1].ID, 2)
	if apperr.KindOf(err) != apperr.KindInvalidTarget {
		t.Errorf("expected KindInvalidTarget for eliminated movie, got %v", err)
	}
}

// Scenario B: a 1-1 tie moves the session to revote with both movies active.
func TestAdvanceRoundFullTieRevotes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, participants, movies := setupVotingSession(t, svc, "X", "Y")

	if _, err := svc.CastVote(ctx, session.ID, participants[0].ID, movies[0].ID, 1); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if _, err := svc.CastVote(ctx, session.ID, participants[1].ID, movies[1].ID, 1); err != nil {
		t.Fatalf("CastVote: %v", err)
	}

	result, err := svc.AdvanceRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if result.Session.Status != model.StatusRevote {
		t.Errorf("expected status revote, got %s", result.Session.Status)
	}
	if len(result.Eliminated) != 0 {
		t.Errorf("expected no eliminations on a tie, got %+v", result.Eliminated)
	}
	if result.NewRound != 2 {
		t.Errorf("expected round 2, got %d", result.NewRound)
	}

	active, _ := svc.ListMovies(ctx, session.ID, true)
	if len(active) != 2 {
		t.Errorf("both movies must stay active after a tie, got %d", len(active))
	}

	// Voting is allowed during revote.
	if _, err := svc.CastVote(ctx, session.ID, participants[0].ID, movies[0].ID, 2); err != nil {
		t.Errorf("vote during revote should succeed: %v", err)
	}
}

// Zero votes all around is a tie too, not a mass elimination.
func TestAdvanceRoundAllZeroRevotes(t *testing.T) {
	svc, _ := newTestService(t)
	session, _, _ := setupVotingSession(t, svc, "X", "Y", "Z")

	result, err := svc.AdvanceRound(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if result.Session.Status != model.StatusRevote || len(result.Eliminated) != 0 {
		t.Errorf("zero-vote round must revote, got status %s with %d eliminations",
			result.Session.Status, len(result.Eliminated))
	}
}

// Scenario C: eliminating down to one movie finishes the session.
func TestAdvanceRoundFindsWinner(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	session, participants, movies := setupVotingSession(t, svc, "X", "Y")

	for _, p := range participants[:2] {
		if _, err := svc.CastVote(ctx, session.ID, p.ID, movies[0].ID, 1); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
	}
	if _, err := svc.CastVote(ctx, session.ID, participants[2].ID, movies[1].ID, 1); err != nil {
		t.Fatalf("CastVote: %v", err)
	}

	result, err := svc.AdvanceRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if result.Session.Status != model.StatusFinished {
		t.Errorf("expected status finished, got %s", result.Session.Status)
	}
	if result.Winner == nil || result.Winner.MovieID != movies[0].ID {
		t.Errorf("expected X to win, got %+v", result.Winner)
	}
	if result.Session.WinnerMovieID == nil || *result.Session.WinnerMovieID != movies[0].ID {
		t.Errorf("winner_movie_id not set, got %v", result.Session.WinnerMovieID)
	}

	// Exactly one movie is left active.
	active, _ := svc.ListMovies(ctx, session.ID, true)
	if len(active) != 1 || active[0].ID != movies[0].ID {
		t.Errorf("expected only the winner active, got %+v", active)
	}

	// No further advances once finished.
	_, err = svc.AdvanceRound(ctx, session.ID)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected KindInvalidState after finish, got %v", err)
	}

	// Events arrive in commit order, ending with the finish.
	types := rec.types()
	n := len(types)
	if n < 3 ||
		types[n-3] != model.EventMovieEliminated ||
		types[n-2] != model.EventRoundAdvanced ||
		types[n-1] != model.EventSessionFinished {
		t.Errorf("unexpected event tail: %v", types)
	}
}

// failingMovieRepo fails one SetEliminated call, then heals. It simulates a
// transient store error partway through stamping an elimination set.
type failingMovieRepo struct {
	repository.MovieRepo
	calls      int
	failOnCall int
}

func (r *failingMovieRepo) SetEliminated(ctx context.Context, movieID string, round int) error {
	r.calls++
	if r.calls == r.failOnCall {
		return errors.New("write timeout")
	}
	return r.MovieRepo.SetEliminated(ctx, movieID, round)
}

// A store failure after stamping only part of an elimination set must not
// wedge the session: the retry tallies the same round set, re-derives the
// same decision, and finishes the job.
func TestAdvanceRoundRetriesAfterPartialElimination(t *testing.T) {
	movies := &failingMovieRepo{MovieRepo: repository.NewMemoryMovieRepo(), failOnCall: 2}
	svc := NewSessionService(
		repository.NewMemorySessionRepo(),
		repository.NewMemoryParticipantRepo(),
		movies,
		repository.NewMemoryVoteRepo(),
		cache.NewMemorySummaryCache(),
		NewAuthService("test-secret"),
	)
	svc.SetBroadcaster(&eventRecorder{})
	ctx := context.Background()

	session, participants, pool := setupVotingSession(t, svc, "W", "X", "Y", "Z")

	// W=2, X=2, Y=1, Z=1: Y and Z are both due for elimination.
	for _, p := range participants[:2] {
		for _, m := range pool[:2] {
			if _, err := svc.CastVote(ctx, session.ID, p.ID, m.ID, 1); err != nil {
				t.Fatalf("CastVote: %v", err)
			}
		}
	}
	for _, m := range pool[2:] {
		if _, err := svc.CastVote(ctx, session.ID, participants[2].ID, m.ID, 1); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
	}

	// The first close stamps Y and then fails writing Z.
	_, err := svc.AdvanceRound(ctx, session.ID)
	if apperr.KindOf(err) != apperr.KindStore {
		t.Fatalf("expected KindStore from the partial failure, got %v", err)
	}

	current, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if current.CurrentRound != 1 || current.Status != model.StatusVoting {
		t.Fatalf("failed advance must leave the round open, got round %d status %s",
			current.CurrentRound, current.Status)
	}

	// The half-stamped round still tallies: votes for Y must not turn into
	// errors on the retry.
	results, err := svc.RoundResults(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("RoundResults after partial failure: %v", err)
	}
	if len(results.Votes) != 4 {
		t.Errorf("expected all 4 movies in the round tally, got %+v", results.Votes)
	}

	result, err := svc.AdvanceRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("AdvanceRound retry: %v", err)
	}
	if len(result.Eliminated) != 2 {
		t.Fatalf("expected Y and Z eliminated, got %+v", result.Eliminated)
	}
	if result.NewRound != 2 || result.Session.Status != model.StatusVoting {
		t.Errorf("expected round 2 voting, got round %d status %s",
			result.NewRound, result.Session.Status)
	}

	active, err := svc.ListMovies(ctx, session.ID, true)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected W and X active, got %+v", active)
	}
	all, err := svc.ListMovies(ctx, session.ID, false)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	for _, m := range all {
		if m.ID != pool[2].ID && m.ID != pool[3].ID {
			continue
		}
		if m.EliminatedRound == nil || *m.EliminatedRound != 1 {
			t.Errorf("%s should be stamped with round 1, got %v", m.Title, m.EliminatedRound)
		}
	}
}

func TestAdvanceRoundRejectedInSubmission(t *testing.T) {
	svc, _ := newTestService(t)
	session, _ := mustSession(t, svc)

	_, err := svc.AdvanceRound(context.Background(), session.ID)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected KindInvalidState, got %v", err)
	}
}

func TestAdvanceRoundRejectedWithNoMovies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, _ := mustSession(t, svc)
	if _, _, err := svc.AddParticipant(ctx, session.ID, "Sam"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, session.ID, model.StatusVoting); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	_, err := svc.AdvanceRound(ctx, session.ID)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected KindInvalidState with zero movies, got %v", err)
	}
}

func TestUpdateStatusLegalTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, _ := mustSession(t, svc)
	if _, err := svc.UpdateStatus(ctx, session.ID, model.StatusVoting); err != nil {
		t.Fatalf("submission -> voting should be legal: %v", err)
	}

	for _, target := range []model.SessionStatus{
		model.StatusSubmission, model.StatusRevote, model.StatusFinished, "bogus",
	} {
		_, err := svc.UpdateStatus(ctx, session.ID, target)
		if apperr.KindOf(err) != apperr.KindInvalidState {
			t.Errorf("voting -> %s should be rejected, got %v", target, err)
		}
	}
}

func TestRoundResultsReproduceDecision(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, participants, movies := setupVotingSession(t, svc, "X", "Y", "Z")

	for _, p := range participants[:2] {
		if _, err := svc.CastVote(ctx, session.ID, p.ID, movies[0].ID, 1); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
		if _, err := svc.CastVote(ctx, session.ID, p.ID, movies[2].ID, 1); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
	}

	before, err := svc.RoundResults(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("RoundResults: %v", err)
	}

	if _, err := svc.AdvanceRound(ctx, session.ID); err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}

	// Recomputing the closed round from stored votes gives the same tally
	// and the same elimination set.
	after, err := svc.RoundResults(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("RoundResults after advance: %v", err)
	}
	if len(after.Votes) != len(before.Votes) {
		t.Fatalf("tally changed after close: %+v vs %+v", before.Votes, after.Votes)
	}
	for i := range after.Votes {
		if after.Votes[i] != before.Votes[i] {
			t.Errorf("summary %d changed: %+v vs %+v", i, before.Votes[i], after.Votes[i])
		}
	}
	if len(after.EliminatedMovies) != 1 || after.EliminatedMovies[0] != movies[1].ID {
		t.Errorf("expected Y in eliminated set, got %v", after.EliminatedMovies)
	}
}

func TestStatusSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, _, _ := setupVotingSession(t, svc, "X", "Y", "Z")

	summary, err := svc.StatusSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("StatusSummary: %v", err)
	}
	if summary.ParticipantCount != 3 {
		t.Errorf("expected 3 participants, got %d", summary.ParticipantCount)
	}
	if summary.MovieCount != 3 || summary.ActiveMovieCount != 3 {
		t.Errorf("expected 3/3 movies, got %d/%d", summary.MovieCount, summary.ActiveMovieCount)
	}
	if summary.Status != model.StatusVoting || summary.CurrentRound != 1 {
		t.Errorf("unexpected summary state: %+v", summary)
	}
}

func TestConcurrentVotesAreSerialized(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	numVoters := 10
	var participants []model.Participant
	for i := 0; i < numVoters; i++ {
		p, _, err := svc.AddParticipant(ctx, session.ID, "Voter "+strconv.Itoa(i))
		if err != nil {
			t.Fatalf("AddParticipant: %v", err)
		}
		participants = append(participants, *p)
	}
	m1, err := svc.SubmitMovie(ctx, session.ID, participants[0].ID, "Alien")
	if err != nil {
		t.Fatalf("SubmitMovie: %v", err)
	}
	m2, err := svc.SubmitMovie(ctx, session.ID, participants[0].ID, "Heat")
	if err != nil {
		t.Fatalf("SubmitMovie: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, session.ID, model.StatusVoting); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			movie := m1
			if idx%2 == 1 {
				movie = m2
			}
			if _, err := svc.CastVote(ctx, session.ID, participants[idx].ID, movie.ID, 1); err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	votes, err := svc.ListVotes(ctx, session.ID, nil, "")
	if err != nil {
		t.Fatalf("ListVotes: %v", err)
	}
	if len(votes) != numVoters {
		t.Errorf("expected %d stored votes, got %d", numVoters, len(votes))
	}

	// Concurrent duplicates: only one of these may land.
	var dupSuccess atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CastVote(ctx, session.ID, participants[1].ID, m1.ID, 1); err == nil {
				dupSuccess.Add(1)
			}
		}()
	}
	wg.Wait()
	if dupSuccess.Load() != 1 {
		t.Errorf("expected exactly 1 duplicate attempt to succeed, got %d", dupSuccess.Load())
	}
}

func TestParticipantTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, _ := mustSession(t, svc)
	p, token, err := svc.AddParticipant(ctx, session.ID, "Sam")
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if token == "" {
		t.Fatal("expected a participant token")
	}

	claims, err := svc.authSvc.ValidateParticipantToken(token)
	if err != nil {
		t.Fatalf("ValidateParticipantToken: %v", err)
	}
	if claims.ParticipantID != p.ID || claims.SessionID != session.ID {
		t.Errorf("claims do not match participant: %+v", claims)
	}

	if _, err := svc.authSvc.ValidateParticipantToken("garbage"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}

func mustSession(t *testing.T, svc *SessionService) (*model.Session, context.Context) {
	t.Helper()
	ctx := context.Background()
	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session, ctx
}
