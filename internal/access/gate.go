package access

import (
	"context"
	"errors"
	"time"

	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/logger"
	"github.com/reelbrief/server/internal/metrics"
	"github.com/reelbrief/server/internal/subscriptions"
)

// Result is what the routing layer consumes: whether to let the request
// through and, when not, where to send the user instead.
type Result struct {
	Allow        bool     `json:"allow"`
	RedirectPath string   `json:"redirectPath,omitempty"`
	Decision     Decision `json:"decision"`
}

// Gate decides per request whether a tenant may use protected product
// surfaces. Lookup faults fail OPEN: a storage outage must degrade to "paying
// customers keep working", never to a sitewide lockout. Every fail-open pass
// is logged and counted so an outage cannot hide behind the degraded mode.
type Gate struct {
	repo            subscriptions.Repository
	evaluator       *Evaluator
	trialRedirect   string
	billingRedirect string
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewGate creates a request gate over the given repository and policy.
func NewGate(repo subscriptions.Repository, evaluator *Evaluator, cfg config.BillingConfig, m *metrics.Metrics) *Gate {
	return &Gate{
		repo:            repo,
		evaluator:       evaluator,
		trialRedirect:   cfg.TrialRedirectPath,
		billingRedirect: cfg.BillingRedirectPath,
		metrics:         m,
		now:             time.Now,
	}
}

// Check evaluates access for one business.
func (g *Gate) Check(ctx context.Context, businessID string) Result {
	now := g.now()

	rec, err := g.repo.GetByBusinessID(ctx, businessID)
	switch {
	case err == nil:
		// fall through to evaluation

	case errors.Is(err, subscriptions.ErrNotFound):
		decision := g.evaluator.Evaluate(nil, now)
		g.metrics.ObserveAccessCheck("no_subscription")
		return Result{
			Allow:        false,
			RedirectPath: g.trialRedirect,
			Decision:     decision,
		}

	default:
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("business_id", businessID).
			Msg("subscription lookup failed; allowing request (fail-open)")
		g.metrics.ObserveGateFailOpen()
		g.metrics.ObserveAccessCheck("fail_open")
		return Result{
			Allow:    true,
			Decision: Decision{HasAccess: true},
		}
	}

	decision := g.evaluator.Evaluate(&rec, now)
	if !decision.HasAccess {
		g.metrics.ObserveAccessCheck("denied")
		return Result{
			Allow:        false,
			RedirectPath: g.billingRedirect,
			Decision:     decision,
		}
	}

	g.metrics.ObserveAccessCheck("allowed")
	return Result{Allow: true, Decision: decision}
}

// Evaluate exposes the underlying evaluator for callers that already hold a
// record, such as the billing status endpoint.
func (g *Gate) Evaluate(rec *subscriptions.Record, now time.Time) Decision {
	return g.evaluator.Evaluate(rec, now)
}
