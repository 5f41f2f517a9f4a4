package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a content item does not exist.
var ErrNotFound = errors.New("content item not found")

// Store persists content items and their generated assets.
type Store interface {
	CreateItem(ctx context.Context, item Item) error
	CreateAsset(ctx context.Context, asset Asset) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListByBusinessID(ctx context.Context, businessID string) ([]Item, error)
	ListAssets(ctx context.Context, contentID string) ([]Asset, error)
	Close(ctx context.Context) error
}

// StoreConfig selects and configures a content store backend.
type StoreConfig struct {
	Backend       string // "memory" or "postgres"
	PostgresDB    *sql.DB
	PostgresTable string
	AssetsTable   string
}

// NewStore creates a content store for the configured backend.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresDB, cfg.PostgresTable, cfg.AssetsTable)
	default:
		return nil, fmt.Errorf("unsupported content store backend %q", cfg.Backend)
	}
}
