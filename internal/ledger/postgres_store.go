package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL. The primary key on the
// provider event ID is the only locking the ledger needs.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a ledger on a shared database connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_events (
			event_id    TEXT PRIMARY KEY,
			event_type  TEXT NOT NULL,
			payload     JSONB,
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_processed_events_received_at
			ON processed_events(received_at);
	`)
	return err
}

// Exists reports whether an event ID has already been recorded.
func (s *PostgresStore) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return exists, nil
}

// Append records a processed event. The primary key rejects replays that
// raced past the Exists check.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_events (event_id, event_type, payload, received_at)
		 VALUES ($1, $2, $3, $4)`,
		event.ID, event.Type, event.Payload, event.ReceivedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("append processed event: %w", err)
	}
	return nil
}

// Close is a no-op; the shared pool owns the connection.
func (s *PostgresStore) Close() error {
	return nil
}
