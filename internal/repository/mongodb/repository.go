package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/service/pricing"
)

const (
	summariesCollection = "daily_summaries"
	settingsCollection  = "settings"
)

// MongoDBRepository archives daily summaries and doubles as a shared settings store.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

type settingDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{client: client, dbName: dbName}, nil
}

// SaveDailySummary replaces the summary of the same day, inserting it when absent.
func (r *MongoDBRepository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	collection := r.client.Database(r.dbName).Collection(summariesCollection)
	_, err := collection.ReplaceOne(ctx,
		bson.M{"date": summary.Date},
		summary,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// Get implements pricing.Store.
func (r *MongoDBRepository) Get(ctx context.Context, key string) (string, error) {
	var doc settingDocument
	err := r.client.Database(r.dbName).Collection(settingsCollection).
		FindOne(ctx, bson.M{"_id": key}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", pricing.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return doc.Value, nil
}

// Set implements pricing.Store.
func (r *MongoDBRepository) Set(ctx context.Context, key, value string) error {
	doc := settingDocument{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := r.client.Database(r.dbName).Collection(settingsCollection).
		ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
