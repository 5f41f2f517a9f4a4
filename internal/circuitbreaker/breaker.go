// Package circuitbreaker wraps outbound Stripe API calls in a circuit
// breaker so a provider outage fails webhook handlers fast instead of tying
// up request workers until the fetch timeout.
package circuitbreaker

import (
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/reelbrief/server/internal/config"
)

// Breaker guards calls to the Stripe API. When disabled it passes calls
// through untouched.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	enabled bool
}

// NewFromConfig creates a breaker from application config.
func NewFromConfig(cfg config.CircuitBreakerConfig) *Breaker {
	if !cfg.Enabled {
		return &Breaker{}
	}

	settings := gobreaker.Settings{
		Name:        "stripe_api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval.Duration,
		Timeout:     cfg.Timeout.Duration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.ConsecutiveFailures > 0 &&
				counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Breaker{
		cb:      gobreaker.NewCircuitBreaker(settings),
		enabled: true,
	}
}

// Execute runs fn under the breaker. ErrOpenState and ErrTooManyRequests
// from gobreaker surface to the caller as ordinary errors.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	if !b.enabled {
		return fn()
	}
	return b.cb.Execute(fn)
}

// State reports the breaker state for health reporting.
func (b *Breaker) State() string {
	if !b.enabled {
		return "disabled"
	}
	return b.cb.State().String()
}
