package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes the stores rely on. Index creation
// is idempotent, so this runs on every connect.
func (s *Store) ensureIndexes(ctx context.Context, db *mongo.Database) error {
	reports := db.Collection(reportsCollection)
	_, err := reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "report_id", Value: 1}, {Key: "created_by", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("report_owner_unique"),
	})
	if err != nil {
		return fmt.Errorf("ensure report index: %w", err)
	}
	_, err = reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("report_owner_recency"),
	})
	if err != nil {
		return fmt.Errorf("ensure report recency index: %w", err)
	}

	users := db.Collection(usersCollection)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("ensure user email index: %w", err)
	}

	tokens := db.Collection(resetTokensCollection)
	_, err = tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("token_expiry"),
	})
	if err != nil {
		return fmt.Errorf("ensure token expiry index: %w", err)
	}
	return nil
}
