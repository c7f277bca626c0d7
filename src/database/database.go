package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"formulate-backend/src/config"
	"formulate-backend/src/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	formsCollection     = "forms"
	responsesCollection = "responses"
)

var (
	client     *mongo.Client
	once       sync.Once
	connectErr error

	FormCollection     *mongo.Collection
	ResponseCollection *mongo.Collection
)

// ConnectMongoDB connects once and binds the collections. Later calls return
// the first result.
func ConnectMongoDB(cfg config.Config) error {
	if cfg.MongoURI == "" {
		return errors.New("MONGO_URI environment variable not set")
	}

	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, connectErr = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if connectErr != nil {
			return
		}
		if connectErr = client.Ping(ctx, readpref.Primary()); connectErr != nil {
			return
		}

		db := client.Database(cfg.MongoDB)
		FormCollection = db.Collection(formsCollection)
		ResponseCollection = db.Collection(responsesCollection)
		logger.Infof("✅ MongoDB connected (db=%s)", cfg.MongoDB)

		connectErr = EnsureIndexes(ctx)
	})
	return connectErr
}

// EnsureIndexes creates the indexes the listing and lookup queries rely on.
func EnsureIndexes(ctx context.Context) error {
	_, err := FormCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uniqueUrl", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = ResponseCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "form", Value: 1}, {Key: "completedAt", Value: -1}}},
		{Keys: bson.D{{Key: "form", Value: 1}, {Key: "ipAddress", Value: 1}}},
	})
	return err
}

// Disconnect closes the client if it was opened.
func Disconnect(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.WithError(err).Warn("mongo disconnect")
	}
}
