package subscriptions

import (
	"context"
	"database/sql"
	"errors"
)

// Common errors returned by repository operations.
var (
	ErrNotFound      = errors.New("subscription not found")
	ErrAlreadyExists = errors.New("subscription already exists")
	ErrInvalidRecord = errors.New("invalid subscription record")
)

// Repository defines the storage port for subscription records. The surface is
// deliberately narrow: the reconciler inserts exactly once per tenant and
// otherwise mutates through keyed partial updates; the gate only reads.
type Repository interface {
	// Create stores a new record. It is a strict insert: a duplicate
	// business or Stripe subscription ID returns ErrAlreadyExists so a
	// second checkout for an already-subscribed tenant surfaces instead of
	// silently overwriting.
	Create(ctx context.Context, rec Record) error

	// GetByBusinessID retrieves the record for a tenant business.
	GetByBusinessID(ctx context.Context, businessID string) (Record, error)

	// GetByStripeSubscriptionID retrieves the record matching a provider
	// subscription ID.
	GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (Record, error)

	// UpdateByStripeSubscriptionID applies a partial update keyed by the
	// provider subscription ID as one atomic statement. Returns ErrNotFound
	// when no record matches.
	UpdateByStripeSubscriptionID(ctx context.Context, stripeSubID string, patch Patch) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryConfig holds configuration for creating a repository.
type RepositoryConfig struct {
	Backend         string  // "memory", "postgres", or "mongodb"
	PostgresDB      *sql.DB // Shared database connection for postgres
	MongoDBURL      string
	MongoDBDatabase string
	TableName       string // Custom table/collection name (default: "subscriptions")
}

// NewRepository creates a repository based on configuration.
func NewRepository(cfg RepositoryConfig) (Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "postgres":
		if cfg.PostgresDB == nil {
			return nil, errors.New("postgres connection required for postgres backend")
		}
		repo := NewPostgresRepository(cfg.PostgresDB)
		if cfg.TableName != "" {
			repo = repo.WithTableName(cfg.TableName)
		}
		if err := repo.createTable(); err != nil {
			return nil, err
		}
		return repo, nil
	case "mongodb":
		return NewMongoRepository(cfg.MongoDBURL, cfg.MongoDBDatabase)
	default:
		return nil, errors.New("unknown subscription repository backend: " + cfg.Backend)
	}
}
