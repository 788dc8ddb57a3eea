package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"watchwhat/internal/apperr"
	"watchwhat/internal/model"
)

type VoteRepo interface {
	// Create persists a vote. A second vote by the same participant for the
	// same movie in the same round fails with apperr.KindDuplicateVote.
	Create(ctx context.Context, vote *model.Vote) error
	ListBySession(ctx context.Context, sessionID string) ([]model.Vote, error)
	ListByRound(ctx context.Context, sessionID string, round int) ([]model.Vote, error)
	ListByParticipant(ctx context.Context, sessionID, participantID string, round int) ([]model.Vote, error)
}

type voteRepo struct {
	collection *mongo.Collection
}

func NewVoteRepo(db *mongo.Database) VoteRepo {
	return &voteRepo{collection: db.Collection("votes")}
}

func (r *voteRepo) Create(ctx context.Context, vote *model.Vote) error {
	_, err := r.collection.InsertOne(ctx, vote)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.KindDuplicateVote,
				"participant %s already voted for movie %s in round %d",
				vote.ParticipantID, vote.MovieID, vote.Round)
		}
		return err
	}
	return nil
}

func (r *voteRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Vote, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID})
}

func (r *voteRepo) ListByRound(ctx context.Context, sessionID string, round int) ([]model.Vote, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID, "round": round})
}

func (r *voteRepo) ListByParticipant(ctx context.Context, sessionID, participantID string, round int) ([]model.Vote, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID, "participantId": participantID, "round": round})
}

func (r *voteRepo) find(ctx context.Context, filter bson.M) ([]model.Vote, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var votes []model.Vote
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}
