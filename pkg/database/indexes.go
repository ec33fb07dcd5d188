package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates the indexes the service relies on. The unique indexes
// on organization email and device serial number back up the pre-insert
// existence queries: a racing insert loses with a duplicate-key error instead
// of slipping through the check-then-act window.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	specs := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			collection: "users",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			collection: "organizations",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "created_at", Value: -1}}},
			},
		},
		{
			collection: "devices",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "serial_number", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "created_at", Value: -1}}},
				{Keys: bson.D{{Key: "created_at", Value: -1}}},
			},
		},
		{
			collection: "gyms",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "created_at", Value: -1}}},
			},
		},
		{
			collection: "audit_logs",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			},
		},
	}

	for _, s := range specs {
		if _, err := db.Collection(s.collection).Indexes().CreateMany(ctx, s.models); err != nil {
			return err
		}
		logger.Debug("indexes ensured", zap.String("collection", s.collection))
	}
	return nil
}
