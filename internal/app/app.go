// Package app wires repositories, caches and services into one unit so the
// server and the tests construct the stack the same way.
package app

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"watchwhat/internal/cache"
	"watchwhat/internal/repository"
	"watchwhat/internal/service"
)

type App struct {
	SessionRepo     repository.SessionRepo
	ParticipantRepo repository.ParticipantRepo
	MovieRepo       repository.MovieRepo
	VoteRepo        repository.VoteRepo
	SummaryCache    cache.SummaryCache
	AuthService     *service.AuthService
	SessionService  *service.SessionService
}

// New builds the stack on Mongo and Redis.
func New(db *mongo.Database, rdb *redis.Client, jwtSecret string) *App {
	return build(
		repository.NewSessionRepo(db),
		repository.NewParticipantRepo(db),
		repository.NewMovieRepo(db),
		repository.NewVoteRepo(db),
		cache.NewSummaryCache(rdb),
		jwtSecret,
	)
}

// NewInMemory builds the stack on the in-memory store, for tests and for
// running without external services.
func NewInMemory(jwtSecret string) *App {
	return build(
		repository.NewMemorySessionRepo(),
		repository.NewMemoryParticipantRepo(),
		repository.NewMemoryMovieRepo(),
		repository.NewMemoryVoteRepo(),
		cache.NewMemorySummaryCache(),
		jwtSecret,
	)
}

func build(
	sessions repository.SessionRepo,
	participants repository.ParticipantRepo,
	movies repository.MovieRepo,
	votes repository.VoteRepo,
	summaries cache.SummaryCache,
	jwtSecret string,
) *App {
	authSvc := service.NewAuthService(jwtSecret)
	sessionSvc := service.NewSessionService(sessions, participants, movies, votes, summaries, authSvc)
	return &App{
		SessionRepo:     sessions,
		ParticipantRepo: participants,
		MovieRepo:       movies,
		VoteRepo:        votes,
		SummaryCache:    summaries,
		AuthService:     authSvc,
		SessionService:  sessionSvc,
	}
}
