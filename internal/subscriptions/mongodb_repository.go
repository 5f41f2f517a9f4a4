package subscriptions

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository using MongoDB.
type MongoRepository struct {
	client        *mongo.Client
	subscriptions *mongo.Collection
}

// mongoRecord is the persisted shape of a Record.
type mongoRecord struct {
	ID                   string     `bson:"_id"`
	BusinessID           string     `bson:"business_id"`
	StripeSubscriptionID string     `bson:"stripe_subscription_id"`
	StripeCustomerID     string     `bson:"stripe_customer_id"`
	Status               string     `bson:"status"`
	PriceID              string     `bson:"price_id"`
	CurrentPeriodStart   time.Time  `bson:"current_period_start"`
	CurrentPeriodEnd     time.Time  `bson:"current_period_end"`
	TrialEnd             *time.Time `bson:"trial_end,omitempty"`
	CancelAtPeriodEnd    bool       `bson:"cancel_at_period_end"`
	CanceledAt           *time.Time `bson:"canceled_at,omitempty"`
	CreatedAt            time.Time  `bson:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at"`
}

// NewMongoRepository creates a MongoDB-backed repository.
func NewMongoRepository(connectionString, database string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		// Disconnect errors during failed initialization are not actionable;
		// the connection failure is the error that matters.
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	repo := &MongoRepository{
		client:        client,
		subscriptions: client.Database(database).Collection("subscriptions"),
	}

	if err := repo.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	_, err := r.subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "stripe_subscription_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create subscription indexes: %w", err)
	}
	return nil
}

// Create stores a new record; unique indexes reject duplicate tenants.
func (r *MongoRepository) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" || rec.BusinessID == "" || rec.StripeSubscriptionID == "" {
		return ErrInvalidRecord
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := r.subscriptions.InsertOne(ctx, toMongoRecord(rec))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByBusinessID retrieves the record for a tenant business.
func (r *MongoRepository) GetByBusinessID(ctx context.Context, businessID string) (Record, error) {
	return r.findOne(ctx, bson.M{"business_id": businessID})
}

// GetByStripeSubscriptionID retrieves the record for a provider subscription.
func (r *MongoRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (Record, error) {
	return r.findOne(ctx, bson.M{"stripe_subscription_id": stripeSubID})
}

// UpdateByStripeSubscriptionID applies the patch as a single UpdateOne, which
// MongoDB applies atomically per document.
func (r *MongoRepository) UpdateByStripeSubscriptionID(ctx context.Context, stripeSubID string, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.PriceID != nil {
		set["price_id"] = *patch.PriceID
	}
	if patch.CurrentPeriodStart != nil {
		set["current_period_start"] = *patch.CurrentPeriodStart
	}
	if patch.CurrentPeriodEnd != nil {
		set["current_period_end"] = *patch.CurrentPeriodEnd
	}
	if patch.ClearTrialEnd {
		unset["trial_end"] = ""
	} else if patch.TrialEnd != nil {
		set["trial_end"] = *patch.TrialEnd
	}
	if patch.CancelAtPeriodEnd != nil {
		set["cancel_at_period_end"] = *patch.CancelAtPeriodEnd
	}
	if patch.CanceledAt != nil {
		set["canceled_at"] = *patch.CanceledAt
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.subscriptions.UpdateOne(ctx, bson.M{"stripe_subscription_id": stripeSubID}, update)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the MongoDB client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (Record, error) {
	var doc mongoRecord
	err := r.subscriptions.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find subscription: %w", err)
	}
	return fromMongoRecord(doc), nil
}

func toMongoRecord(rec Record) mongoRecord {
	return mongoRecord{
		ID:                   rec.ID,
		BusinessID:           rec.BusinessID,
		StripeSubscriptionID: rec.StripeSubscriptionID,
		StripeCustomerID:     rec.StripeCustomerID,
		Status:               string(rec.Status),
		PriceID:              rec.PriceID,
		CurrentPeriodStart:   rec.CurrentPeriodStart,
		CurrentPeriodEnd:     rec.CurrentPeriodEnd,
		TrialEnd:             rec.TrialEnd,
		CancelAtPeriodEnd:    rec.CancelAtPeriodEnd,
		CanceledAt:           rec.CanceledAt,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
}

func fromMongoRecord(doc mongoRecord) Record {
	return Record{
		ID:                   doc.ID,
		BusinessID:           doc.BusinessID,
		StripeSubscriptionID: doc.StripeSubscriptionID,
		StripeCustomerID:     doc.StripeCustomerID,
		Status:               Status(doc.Status),
		PriceID:              doc.PriceID,
		CurrentPeriodStart:   doc.CurrentPeriodStart,
		CurrentPeriodEnd:     doc.CurrentPeriodEnd,
		TrialEnd:             doc.TrialEnd,
		CancelAtPeriodEnd:    doc.CancelAtPeriodEnd,
		CanceledAt:           doc.CanceledAt,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
}
