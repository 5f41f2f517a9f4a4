package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db        *sql.DB
	tableName string
}

// NewPostgresRepository creates a repository on a shared database connection.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:        db,
		tableName: "subscriptions",
	}
}

// WithTableName returns a copy of the repository with a custom table name.
func (r *PostgresRepository) WithTableName(name string) *PostgresRepository {
	return &PostgresRepository{
		db:        r.db,
		tableName: name,
	}
}

func (r *PostgresRepository) createTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                     TEXT PRIMARY KEY,
			business_id            TEXT NOT NULL UNIQUE,
			stripe_subscription_id TEXT NOT NULL UNIQUE,
			stripe_customer_id     TEXT NOT NULL,
			status                 TEXT NOT NULL,
			price_id               TEXT NOT NULL DEFAULT '',
			current_period_start   TIMESTAMPTZ NOT NULL,
			current_period_end     TIMESTAMPTZ NOT NULL,
			trial_end              TIMESTAMPTZ,
			cancel_at_period_end   BOOLEAN NOT NULL DEFAULT FALSE,
			canceled_at            TIMESTAMPTZ,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_status
			ON %s(status);
		CREATE INDEX IF NOT EXISTS idx_%s_period_end
			ON %s(current_period_end);
	`, r.tableName,
		r.tableName, r.tableName,
		r.tableName, r.tableName)

	_, err := r.db.Exec(query)
	return err
}

const recordColumns = `id, business_id, stripe_subscription_id, stripe_customer_id,
	status, price_id, current_period_start, current_period_end, trial_end,
	cancel_at_period_end, canceled_at, created_at, updated_at`

// Create stores a new record. Unique constraints on business_id and
// stripe_subscription_id turn a second checkout into ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" || rec.BusinessID == "" || rec.StripeSubscriptionID == "" {
		return ErrInvalidRecord
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.tableName, recordColumns)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.BusinessID, rec.StripeSubscriptionID, rec.StripeCustomerID,
		rec.Status, rec.PriceID, rec.CurrentPeriodStart, rec.CurrentPeriodEnd,
		nullTime(rec.TrialEnd), rec.CancelAtPeriodEnd, nullTime(rec.CanceledAt),
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// GetByBusinessID retrieves the record for a tenant business.
func (r *PostgresRepository) GetByBusinessID(ctx context.Context, businessID string) (Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE business_id = $1`, recordColumns, r.tableName)
	return r.scanOne(ctx, query, businessID)
}

// GetByStripeSubscriptionID retrieves the record for a provider subscription.
func (r *PostgresRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE stripe_subscription_id = $1`, recordColumns, r.tableName)
	return r.scanOne(ctx, query, stripeSubID)
}

// UpdateByStripeSubscriptionID applies the patch in a single UPDATE statement.
// Unset patch fields pass NULL and fall through to the current column value,
// so concurrent deliveries for the same subscription serialize at the row
// level instead of racing an application-side read-modify-write.
func (r *PostgresRepository) UpdateByStripeSubscriptionID(ctx context.Context, stripeSubID string, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			status               = COALESCE($2, status),
			price_id             = COALESCE($3, price_id),
			current_period_start = COALESCE($4, current_period_start),
			current_period_end   = COALESCE($5, current_period_end),
			trial_end            = CASE WHEN $6 THEN NULL ELSE COALESCE($7, trial_end) END,
			cancel_at_period_end = COALESCE($8, cancel_at_period_end),
			canceled_at          = COALESCE($9, canceled_at),
			updated_at           = NOW()
		WHERE stripe_subscription_id = $1
	`, r.tableName)

	result, err := r.db.ExecContext(ctx, query,
		stripeSubID,
		nullStatus(patch.Status),
		nullStringPtr(patch.PriceID),
		nullTime(patch.CurrentPeriodStart),
		nullTime(patch.CurrentPeriodEnd),
		patch.ClearTrialEnd,
		nullTime(patch.TrialEnd),
		nullBool(patch.CancelAtPeriodEnd),
		nullTime(patch.CanceledAt),
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; the shared pool owns the connection.
func (r *PostgresRepository) Close() error {
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (Record, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	var rec Record
	var trialEnd, canceledAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.BusinessID, &rec.StripeSubscriptionID, &rec.StripeCustomerID,
		&rec.Status, &rec.PriceID, &rec.CurrentPeriodStart, &rec.CurrentPeriodEnd,
		&trialEnd, &rec.CancelAtPeriodEnd, &canceledAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan subscription: %w", err)
	}

	if trialEnd.Valid {
		rec.TrialEnd = &trialEnd.Time
	}
	if canceledAt.Valid {
		rec.CanceledAt = &canceledAt.Time
	}
	return rec, nil
}

// Helper functions for nullable types
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullStatus(s *Status) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
