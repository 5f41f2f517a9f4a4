// Package stripe integrates with the payment provider: it verifies webhook
// payloads, fetches full subscription detail, and reconciles provider events
// into the local subscription record.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v72"
	stripesub "github.com/stripe/stripe-go/v72/sub"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/reelbrief/server/internal/circuitbreaker"
	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/metrics"
)

// Provider is the outbound surface the reconciler needs, kept narrow so
// tests can fake it.
type Provider interface {
	// ParseEvent verifies the signature over the exact raw bytes received
	// and returns the decoded event.
	ParseEvent(payload []byte, signature string) (stripeapi.Event, error)

	// FetchSubscription loads the full subscription object by provider ID.
	FetchSubscription(ctx context.Context, subscriptionID string) (*stripeapi.Subscription, error)
}

// Client wraps stripe-go operations used by the server.
type Client struct {
	cfg     config.StripeConfig
	breaker *circuitbreaker.Breaker
	metrics *metrics.Metrics
}

// NewClient sets up stripe-go with the provided credentials.
func NewClient(cfg config.StripeConfig, breaker *circuitbreaker.Breaker, metricsCollector *metrics.Metrics) *Client {
	stripeapi.Key = cfg.SecretKey
	if breaker == nil {
		breaker = circuitbreaker.NewFromConfig(config.CircuitBreakerConfig{})
	}
	return &Client{
		cfg:     cfg,
		breaker: breaker,
		metrics: metricsCollector,
	}
}

// ParseEvent validates the event signature against the raw request body.
func (c *Client) ParseEvent(payload []byte, signature string) (stripeapi.Event, error) {
	if c.cfg.WebhookSecret == "" {
		return stripeapi.Event{}, errors.New("stripe: webhook secret not configured")
	}
	event, err := webhook.ConstructEvent(payload, signature, c.cfg.WebhookSecret)
	if err != nil {
		return stripeapi.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// FetchSubscription loads the full subscription object from Stripe, bounded
// by the configured fetch timeout and guarded by the circuit breaker. A
// timeout fails the call; the reconciler never proceeds with partial data.
func (c *Client) FetchSubscription(ctx context.Context, subscriptionID string) (*stripeapi.Subscription, error) {
	if timeout := c.cfg.FetchTimeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		params := &stripeapi.SubscriptionParams{}
		params.Context = ctx
		return stripesub.Get(subscriptionID, params)
	})
	if err != nil {
		c.metrics.ObserveProviderFetch("error", time.Since(start))
		return nil, fmt.Errorf("%w: subscription %s: %v", ErrProviderUnavailable, subscriptionID, err)
	}
	c.metrics.ObserveProviderFetch("success", time.Since(start))

	return result.(*stripeapi.Subscription), nil
}
