package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db          *sql.DB
	itemsTable  string
	assetsTable string
}

// NewPostgresStore creates a content store on a shared database connection.
func NewPostgresStore(ctx context.Context, db *sql.DB, itemsTable, assetsTable string) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres connection required for postgres backend")
	}
	if itemsTable == "" {
		itemsTable = "content_items"
	}
	if assetsTable == "" {
		assetsTable = "content_assets"
	}
	s := &PostgresStore{db: db, itemsTable: itemsTable, assetsTable: assetsTable}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                TEXT PRIMARY KEY,
			business_id       TEXT NOT NULL,
			title             TEXT NOT NULL DEFAULT '',
			status            TEXT NOT NULL,
			generation_status TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_business_id
			ON %s(business_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS %s (
			id              TEXT PRIMARY KEY,
			content_id      TEXT NOT NULL,
			platform        TEXT NOT NULL DEFAULT '',
			scheduled_at    TIMESTAMPTZ,
			delivery_status TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_content_id
			ON %s(content_id);
	`, s.itemsTable,
		s.itemsTable, s.itemsTable,
		s.assetsTable,
		s.assetsTable, s.assetsTable)

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresStore) CreateItem(ctx context.Context, item Item) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (id, business_id, title, status, generation_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title             = EXCLUDED.title,
			status            = EXCLUDED.status,
			generation_status = EXCLUDED.generation_status,
			updated_at        = EXCLUDED.updated_at
	`, s.itemsTable)

	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.BusinessID, item.Title, item.Status, item.GenerationStatus,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAsset(ctx context.Context, asset Asset) error {
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content_id, platform, scheduled_at, delivery_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			scheduled_at    = EXCLUDED.scheduled_at,
			delivery_status = EXCLUDED.delivery_status
	`, s.assetsTable)

	var scheduledAt sql.NullTime
	if asset.ScheduledAt != nil {
		scheduledAt = sql.NullTime{Time: *asset.ScheduledAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		asset.ID, asset.ContentID, asset.Platform, scheduledAt, asset.DeliveryStatus,
		asset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert content asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (*Item, error) {
	query := fmt.Sprintf(`
		SELECT id, business_id, title, status, generation_status, created_at, updated_at
		FROM %s WHERE id = $1
	`, s.itemsTable)

	var item Item
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.BusinessID, &item.Title, &item.Status, &item.GenerationStatus,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan content item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) ListByBusinessID(ctx context.Context, businessID string) ([]Item, error) {
	query := fmt.Sprintf(`
		SELECT id, business_id, title, status, generation_status, created_at, updated_at
		FROM %s WHERE business_id = $1
		ORDER BY created_at DESC
	`, s.itemsTable)

	rows, err := s.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID, &item.BusinessID, &item.Title, &item.Status, &item.GenerationStatus,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListAssets(ctx context.Context, contentID string) ([]Asset, error) {
	query := fmt.Sprintf(`
		SELECT id, content_id, platform, scheduled_at, delivery_status, created_at
		FROM %s WHERE content_id = $1
		ORDER BY created_at ASC
	`, s.assetsTable)

	rows, err := s.db.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("list content assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var scheduledAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.ContentID, &a.Platform, &scheduledAt, &a.DeliveryStatus, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content asset: %w", err)
		}
		if scheduledAt.Valid {
			a.ScheduledAt = &scheduledAt.Time
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Close is a no-op; the shared pool owns the connection.
func (s *PostgresStore) Close(ctx context.Context) error {
	return nil
}
