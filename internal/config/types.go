package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Stripe         StripeConfig         `yaml:"stripe"`
	Billing        BillingConfig        `yaml:"billing"`
	Storage        StorageConfig        `yaml:"storage"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level       string `yaml:"level"`  // debug, info, warn, error
	Format      string `yaml:"format"` // json, console
	Environment string `yaml:"environment"`
}

// StripeConfig holds Stripe integration configuration.
type StripeConfig struct {
	SecretKey     string   `yaml:"secret_key"`
	WebhookSecret string   `yaml:"webhook_secret"`
	FetchTimeout  Duration `yaml:"fetch_timeout"` // bound on outbound subscription fetches
	Mode          string   `yaml:"mode"`          // live | test
}

// BillingConfig holds the access-evaluation policy knobs.
type BillingConfig struct {
	// GracePeriodDays is the window after a failed payment during which a
	// past_due subscription still grants access.
	GracePeriodDays int `yaml:"grace_period_days"`

	// TrialBannerDays is how many days before trial end the countdown banner
	// starts showing.
	TrialBannerDays int `yaml:"trial_banner_days"`

	// TrialRedirectPath is where the gate routes tenants that never checked out.
	TrialRedirectPath string `yaml:"trial_redirect_path"`

	// BillingRedirectPath is where the gate routes denied tenants.
	BillingRedirectPath string `yaml:"billing_redirect_path"`
}

// StorageConfig selects the persistence backend shared by the subscription
// repository, the processed-event ledger, the tenant directory, and the
// content store.
type StorageConfig struct {
	Backend         string             `yaml:"backend"` // memory | postgres | mongodb
	PostgresURL     string             `yaml:"postgres_url"`
	MongoDBURL      string             `yaml:"mongodb_url"`
	MongoDBDatabase string             `yaml:"mongodb_database"`
	PostgresPool    PostgresPoolConfig `yaml:"postgres_pool"`
}

// PostgresPoolConfig tunes the shared sql.DB pool.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`
}

// RateLimitConfig holds per-IP rate limiting for the API surface. The webhook
// route is never rate limited; Stripe controls its own delivery pacing.
type RateLimitConfig struct {
	Enabled bool     `yaml:"enabled"`
	Limit   int      `yaml:"limit"`
	Window  Duration `yaml:"window"`
}

// CircuitBreakerConfig configures the breaker around the Stripe API.
type CircuitBreakerConfig struct {
	Enabled             bool     `yaml:"enabled"`
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
}
