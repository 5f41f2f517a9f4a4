package ledger

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store using MongoDB.
type MongoStore struct {
	client *mongo.Client
	events *mongo.Collection
}

type mongoEvent struct {
	ID         string    `bson:"_id"`
	Type       string    `bson:"event_type"`
	Payload    []byte    `bson:"payload"`
	ReceivedAt time.Time `bson:"received_at"`
}

// NewMongoStore creates a MongoDB-backed ledger.
func NewMongoStore(connectionString, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	store := &MongoStore{
		client: client,
		events: client.Database(database).Collection("processed_events"),
	}

	// _id is unique by construction; the received_at index supports manual
	// inspection of recent deliveries.
	_, err = store.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "received_at", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ledger indexes: %w", err)
	}

	return store, nil
}

// Exists reports whether an event ID has already been recorded.
func (s *MongoStore) Exists(ctx context.Context, eventID string) (bool, error) {
	err := s.events.FindOne(ctx, bson.M{"_id": eventID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return true, nil
}

// Append records a processed event; the _id key rejects replays.
func (s *MongoStore) Append(ctx context.Context, event Event) error {
	_, err := s.events.InsertOne(ctx, mongoEvent{
		ID:         event.ID,
		Type:       event.Type,
		Payload:    event.Payload,
		ReceivedAt: event.ReceivedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("append processed event: %w", err)
	}
	return nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
