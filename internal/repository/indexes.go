package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. Session codes
// are unique, and the vote index enforces the one-vote-per
// (participant, movie, round) rule at the storage layer.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("sessions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create session code index: %w", err)
	}

	for _, coll := range []string{"participants", "movies", "votes"} {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "sessionId", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("failed to create %s session index: %w", coll, err)
		}
	}

	_, err = db.Collection("votes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "round", Value: 1},
			{Key: "participantId", Value: 1},
			{Key: "movieId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create vote uniqueness index: %w", err)
	}

	return nil
}
