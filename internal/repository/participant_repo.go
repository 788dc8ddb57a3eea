package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"watchwhat/internal/model"
)

type ParticipantRepo interface {
	Create(ctx context.Context, participant *model.Participant) error
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	// ListBySession returns participants ordered by join time. The first
	// entry is the session creator.
	ListBySession(ctx context.Context, sessionID string) ([]model.Participant, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

type participantRepo struct {
	collection *mongo.Collection
}

func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{collection: db.Collection("participants")}
}

func (r *participantRepo) Create(ctx context.Context, participant *model.Participant) error {
	_, err := r.collection.InsertOne(ctx, participant)
	return err
}

func (r *participantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	var participant model.Participant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&participant)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Participant, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	var participants []model.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID})
	return int(n), err
}
