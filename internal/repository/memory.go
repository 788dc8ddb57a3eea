package repository

import (
	"context"
	"sync"

	"watchwhat/internal/apperr"
	"watchwhat/internal/model"
)

// In-memory implementations of the repository interfaces. Used by tests and
// useful for running the server without a Mongo instance.

type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions []model.Session
}

func NewMemorySessionRepo() SessionRepo {
	return &memorySessionRepo{}
}

func (r *memorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, *session)
	return nil
}

func (r *memorySessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.sessions {
		if r.sessions[i].ID == id {
			s := r.sessions[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (r *memorySessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.sessions {
		if r.sessions[i].Code == code {
			s := r.sessions[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (r *memorySessionRepo) Update(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		if r.sessions[i].ID == session.ID {
			r.sessions[i] = *session
			return nil
		}
	}
	return apperr.New(apperr.KindNotFound, "session %s not found", session.ID)
}

type memoryParticipantRepo struct {
	mu           sync.RWMutex
	participants []model.Participant
}

func NewMemoryParticipantRepo() ParticipantRepo {
	return &memoryParticipantRepo{}
}

func (r *memoryParticipantRepo) Create(ctx context.Context, participant *model.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append(r.participants, *participant)
	return nil
}

func (r *memoryParticipantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.participants {
		if r.participants[i].ID == id {
			p := r.participants[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memoryParticipantRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Participant
	for _, p := range r.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryParticipantRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	participants, _ := r.ListBySession(ctx, sessionID)
	return len(participants), nil
}

type memoryMovieRepo struct {
	mu     sync.RWMutex
	movies []model.Movie
}

func NewMemoryMovieRepo() MovieRepo {
	return &memoryMovieRepo{}
}

func (r *memoryMovieRepo) Create(ctx context.Context, movie *model.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movies = append(r.movies, *movie)
	return nil
}

func (r *memoryMovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.movies {
		if r.movies[i].ID == id {
			m := r.movies[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memoryMovieRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Movie
	for _, m := range r.movies {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryMovieRepo) ListActive(ctx context.Context, sessionID string) ([]model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Movie
	for _, m := range r.movies {
		if m.SessionID == sessionID && m.EliminatedRound == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryMovieRepo) SetEliminated(ctx context.Context, movieID string, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movies {
		if r.movies[i].ID == movieID {
			rnd := round
			r.movies[i].EliminatedRound = &rnd
			return nil
		}
	}
	return apperr.New(apperr.KindNotFound, "movie %s not found", movieID)
}

func (r *memoryMovieRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	movies, _ := r.ListBySession(ctx, sessionID)
	return len(movies), nil
}

type memoryVoteRepo struct {
	mu    sync.RWMutex
	votes []model.Vote
}

func NewMemoryVoteRepo() VoteRepo {
	return &memoryVoteRepo{}
}

func (r *memoryVoteRepo) Create(ctx context.Context, vote *model.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.ParticipantID == vote.ParticipantID && v.MovieID == vote.MovieID && v.Round == vote.Round {
			return apperr.New(apperr.KindDuplicateVote,
				"participant %s already voted for movie %s in round %d",
				vote.ParticipantID, vote.MovieID, vote.Round)
		}
	}
	r.votes = append(r.votes, *vote)
	return nil
}

func (r *memoryVoteRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Vote, error) {
	return r.filter(func(v model.Vote) bool { return v.SessionID == sessionID }), nil
}

func (r *memoryVoteRepo) ListByRound(ctx context.Context, sessionID string, round int) ([]model.Vote, error) {
	return r.filter(func(v model.Vote) bool { return v.SessionID == sessionID && v.Round == round }), nil
}

func (r *memoryVoteRepo) ListByParticipant(ctx context.Context, sessionID, participantID string, round int) ([]model.Vote, error) {
	return r.filter(func(v model.Vote) bool {
		return v.SessionID == sessionID && v.ParticipantID == participantID && v.Round == round
	}), nil
}

func (r *memoryVoteRepo) filter(keep func(model.Vote) bool) []model.Vote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Vote
	for _, v := range r.votes {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
