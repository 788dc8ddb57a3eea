package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"watchwhat/internal/model"
)

type MovieRepo interface {
	Create(ctx context.Context, movie *model.Movie) error
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	// ListBySession returns every movie of the session in submission order.
	ListBySession(ctx context.Context, sessionID string) ([]model.Movie, error)
	// ListActive returns the movies still in the running.
	ListActive(ctx context.Context, sessionID string) ([]model.Movie, error)
	// SetEliminated stamps the round a movie was voted out in.
	SetEliminated(ctx context.Context, movieID string, round int) error
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

type movieRepo struct {
	collection *mongo.Collection
}

func NewMovieRepo(db *mongo.Database) MovieRepo {
	return &movieRepo{collection: db.Collection("movies")}
}

func (r *movieRepo) Create(ctx context.Context, movie *model.Movie) error {
	_, err := r.collection.InsertOne(ctx, movie)
	return err
}

func (r *movieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	var movie model.Movie
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&movie)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Movie, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID})
}

func (r *movieRepo) ListActive(ctx context.Context, sessionID string) ([]model.Movie, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID, "eliminatedRound": nil})
}

func (r *movieRepo) find(ctx context.Context, filter bson.M) ([]model.Movie, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var movies []model.Movie
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepo) SetEliminated(ctx context.Context, movieID string, round int) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": movieID},
		bson.M{"$set": bson.M{"eliminatedRound": round}})
	return err
}

func (r *movieRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID})
	return int(n), err
}
