package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use the REELBRIEF_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "REELBRIEF_SERVER_ADDRESS")
	if origins := os.Getenv("REELBRIEF_CORS_ALLOWED_ORIGINS"); origins != "" {
		c.Server.CORSAllowedOrigins = splitAndTrim(origins)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "REELBRIEF_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "REELBRIEF_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "REELBRIEF_ENVIRONMENT")

	// Stripe config
	setIfEnv(&c.Stripe.SecretKey, "REELBRIEF_STRIPE_SECRET_KEY")
	setIfEnv(&c.Stripe.WebhookSecret, "REELBRIEF_STRIPE_WEBHOOK_SECRET")
	setIfEnv(&c.Stripe.Mode, "REELBRIEF_STRIPE_MODE")
	setDurationIfEnv(&c.Stripe.FetchTimeout, "REELBRIEF_STRIPE_FETCH_TIMEOUT")

	// Billing config
	setIntIfEnv(&c.Billing.GracePeriodDays, "REELBRIEF_BILLING_GRACE_PERIOD_DAYS")
	setIntIfEnv(&c.Billing.TrialBannerDays, "REELBRIEF_BILLING_TRIAL_BANNER_DAYS")
	setIfEnv(&c.Billing.TrialRedirectPath, "REELBRIEF_BILLING_TRIAL_REDIRECT_PATH")
	setIfEnv(&c.Billing.BillingRedirectPath, "REELBRIEF_BILLING_REDIRECT_PATH")

	// Storage config
	setIfEnv(&c.Storage.Backend, "REELBRIEF_STORAGE_BACKEND")
	setIfEnv(&c.Storage.PostgresURL, "REELBRIEF_STORAGE_POSTGRES_URL")
	setIfEnv(&c.Storage.MongoDBURL, "REELBRIEF_STORAGE_MONGODB_URL")
	setIfEnv(&c.Storage.MongoDBDatabase, "REELBRIEF_STORAGE_MONGODB_DATABASE")

	// Rate limiting
	setBoolIfEnv(&c.RateLimit.Enabled, "REELBRIEF_RATE_LIMIT_ENABLED")
	setIntIfEnv(&c.RateLimit.Limit, "REELBRIEF_RATE_LIMIT_LIMIT")
	setDurationIfEnv(&c.RateLimit.Window, "REELBRIEF_RATE_LIMIT_WINDOW")

	// Circuit breaker
	setBoolIfEnv(&c.CircuitBreaker.Enabled, "REELBRIEF_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets the target string if the environment variable is non-empty.
func setIfEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

// setBoolIfEnv sets the target bool if the environment variable parses as a boolean.
func setBoolIfEnv(target *bool, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

// setIntIfEnv sets the target int if the environment variable parses as an integer.
func setIntIfEnv(target *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

// setDurationIfEnv sets the target duration if the environment variable parses
// as a Go duration string.
func setDurationIfEnv(target *Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			target.Duration = parsed
		}
	}
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
