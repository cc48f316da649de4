package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the dispatch queries depend on. Safe to
// run on every startup; Mongo treats existing identical indexes as a no-op.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		"cases": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "hospital_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "ambulance_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{
				Keys:    bson.D{{Key: "case_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"ambulances": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "active_case_id", Value: 1}}},
			{Keys: bson.D{{Key: "current_location", Value: "2dsphere"}}},
			{
				Keys:    bson.D{{Key: "vehicle_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"hospitals": {
			{Keys: bson.D{{Key: "available_beds", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		"accounts": {
			{
				Keys:    bson.D{{Key: "phone", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
