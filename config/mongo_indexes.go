package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
)

// EnsureMongoIndexes creates the indexes the repositories rely on. The
// unique applicant/posting index is what rejects concurrent duplicate
// applications.
func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := db.Collection(mongorepo.ApplicationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "applicant_id", Value: 1}, {Key: "posting_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_applicant_posting").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "posting_id", Value: 1}, {Key: "match_score", Value: -1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_posting_score"),
		},
		{
			Keys:    bson.D{{Key: "applicant_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_applicant_created"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(mongorepo.PostingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_status_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "tag_keys", Value: 1}},
			Options: options.Index().SetName("by_status_tags"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_owner_created"),
		},
	})
	return err
}
