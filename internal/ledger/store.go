// Package ledger records which provider events have already been processed.
// A row's existence is the sole idempotency signal: rows are written once and
// never updated or deleted.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Common errors returned by ledger operations.
var (
	// ErrDuplicateEvent is returned by Append when the event ID was already
	// recorded. Two concurrent deliveries of the same event can both pass the
	// Exists check; the unique key turns the race into this error, which
	// callers treat as success.
	ErrDuplicateEvent = errors.New("event already recorded")
)

// Event is one processed provider event.
type Event struct {
	ID         string    `json:"id"`   // provider event ID
	Type       string    `json:"type"` // provider event type
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Store is the append-only processed-event ledger.
type Store interface {
	// Exists reports whether an event ID has already been recorded.
	Exists(ctx context.Context, eventID string) (bool, error)

	// Append records a processed event. Write-once: a duplicate ID returns
	// ErrDuplicateEvent.
	Append(ctx context.Context, event Event) error

	// Close releases any resources held by the store.
	Close() error
}

// StoreConfig holds configuration for creating a ledger store.
type StoreConfig struct {
	Backend         string  // "memory", "postgres", or "mongodb"
	PostgresDB      *sql.DB // Shared database connection for postgres
	MongoDBURL      string
	MongoDBDatabase string
}

// NewStore creates a ledger store based on configuration.
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "postgres":
		if cfg.PostgresDB == nil {
			return nil, errors.New("postgres connection required for postgres backend")
		}
		store := NewPostgresStore(cfg.PostgresDB)
		if err := store.createTable(); err != nil {
			return nil, err
		}
		return store, nil
	case "mongodb":
		return NewMongoStore(cfg.MongoDBURL, cfg.MongoDBDatabase)
	default:
		return nil, errors.New("unknown ledger backend: " + cfg.Backend)
	}
}
