// Package tenants exposes a read-only view of the tenant businesses owned by
// the main application. The billing core only ever needs to confirm that a
// business referenced in checkout metadata actually exists.
package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// Directory answers whether a tenant business exists.
type Directory interface {
	Exists(ctx context.Context, businessID string) (bool, error)
}

// DirectoryConfig holds configuration for creating a directory.
type DirectoryConfig struct {
	Backend    string  // "memory" or "postgres"
	PostgresDB *sql.DB // Shared database connection for postgres
	TableName  string  // Custom table name (default: "businesses")
}

// NewDirectory creates a directory based on configuration. The mongodb storage
// backend falls back to the in-memory directory: the tenant table lives in the
// main application's relational store, not in this service's Mongo database.
func NewDirectory(cfg DirectoryConfig) (Directory, error) {
	switch cfg.Backend {
	case "memory", "mongodb", "":
		return NewMemoryDirectory(), nil
	case "postgres":
		if cfg.PostgresDB == nil {
			return nil, errors.New("postgres connection required for postgres backend")
		}
		table := cfg.TableName
		if table == "" {
			table = "businesses"
		}
		return &PostgresDirectory{db: cfg.PostgresDB, tableName: table}, nil
	default:
		return nil, errors.New("unknown tenant directory backend: " + cfg.Backend)
	}
}

// MemoryDirectory is an in-memory Directory for tests and local development.
type MemoryDirectory struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{ids: make(map[string]struct{})}
}

// Add registers a business ID.
func (d *MemoryDirectory) Add(businessID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids[businessID] = struct{}{}
}

// Exists reports whether a business ID is registered.
func (d *MemoryDirectory) Exists(ctx context.Context, businessID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.ids[businessID]
	return ok, nil
}

// PostgresDirectory reads the main application's business table.
type PostgresDirectory struct {
	db        *sql.DB
	tableName string
}

// Exists reports whether a business row exists.
func (d *PostgresDirectory) Exists(ctx context.Context, businessID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, d.tableName)
	if err := d.db.QueryRowContext(ctx, query, businessID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check business: %w", err)
	}
	return exists, nil
}
