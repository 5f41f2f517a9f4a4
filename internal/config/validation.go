package config

import (
	"database/sql"
	"fmt"
	"strings"
)

// finalize validates the aggregated configuration and normalises derived values.
func (c *Config) finalize() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return fmt.Errorf("server.address must not be empty")
	}

	switch c.Storage.Backend {
	case "memory":
		// No connection details required.
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url required for postgres backend")
		}
	case "mongodb":
		if c.Storage.MongoDBURL == "" {
			return fmt.Errorf("storage.mongodb_url required for mongodb backend")
		}
		if c.Storage.MongoDBDatabase == "" {
			return fmt.Errorf("storage.mongodb_database required for mongodb backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (expected memory, postgres, or mongodb)", c.Storage.Backend)
	}

	if c.Stripe.WebhookSecret == "" {
		// Signature verification is mandatory; refusing to start beats
		// accepting unauthenticated webhooks.
		return fmt.Errorf("stripe.webhook_secret must be configured")
	}

	if c.Billing.GracePeriodDays < 0 {
		return fmt.Errorf("billing.grace_period_days must not be negative")
	}
	if c.Billing.TrialBannerDays < 1 {
		return fmt.Errorf("billing.trial_banner_days must be at least 1")
	}
	if !strings.HasPrefix(c.Billing.TrialRedirectPath, "/") {
		return fmt.Errorf("billing.trial_redirect_path must start with /")
	}
	if !strings.HasPrefix(c.Billing.BillingRedirectPath, "/") {
		return fmt.Errorf("billing.billing_redirect_path must start with /")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Limit < 1 {
			return fmt.Errorf("rate_limit.limit must be at least 1 when enabled")
		}
		if c.RateLimit.Window.Duration <= 0 {
			return fmt.Errorf("rate_limit.window must be positive when enabled")
		}
	}

	return nil
}

// ApplyPostgresPoolSettings configures a sql.DB connection pool from config.
func ApplyPostgresPoolSettings(db *sql.DB, cfg PostgresPoolConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}
	if cfg.ConnMaxIdleTime.Duration > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime.Duration)
	}
}
