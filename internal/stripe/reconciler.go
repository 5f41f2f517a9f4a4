package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	stripeapi "github.com/stripe/stripe-go/v72"

	"github.com/reelbrief/server/internal/ledger"
	"github.com/reelbrief/server/internal/logger"
	"github.com/reelbrief/server/internal/metrics"
	"github.com/reelbrief/server/internal/subscriptions"
	"github.com/reelbrief/server/internal/tenants"
)

// Handled event types. Everything else is acknowledged and ignored so future
// provider event types cannot cause delivery failures.
const (
	eventCheckoutCompleted    = "checkout.session.completed"
	eventInvoicePaid          = "invoice.paid"
	eventInvoicePaymentFailed = "invoice.payment_failed"
	eventSubscriptionUpdated  = "customer.subscription.updated"
	eventSubscriptionDeleted  = "customer.subscription.deleted"
)

// metadataBusinessID is the checkout metadata key carrying the tenant.
const metadataBusinessID = "business_id"

// Reconciler converts the provider's event stream into mutations of the
// local subscription record. Processing order per event: verify signature,
// check the ledger, dispatch the mutation, then append to the ledger. A
// handler failure aborts before the append so redelivery reattempts the
// mutation; every handler is a keyed insert or single-statement update, so
// re-running one is safe.
type Reconciler struct {
	provider Provider
	repo     subscriptions.Repository
	ledger   ledger.Store
	tenants  tenants.Directory
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewReconciler wires the reconciler to its collaborators.
func NewReconciler(provider Provider, repo subscriptions.Repository, ledgerStore ledger.Store, directory tenants.Directory, metricsCollector *metrics.Metrics) *Reconciler {
	return &Reconciler{
		provider: provider,
		repo:     repo,
		ledger:   ledgerStore,
		tenants:  directory,
		metrics:  metricsCollector,
		now:      time.Now,
	}
}

// Process handles one webhook delivery. payload must be the exact raw bytes
// received. A nil return means Stripe should get a 2xx; that includes
// duplicates and event types this system does not handle.
func (r *Reconciler) Process(ctx context.Context, payload []byte, signature string) error {
	start := r.now()

	event, err := r.provider.ParseEvent(payload, signature)
	if err != nil {
		r.metrics.ObserveWebhook("unknown", "rejected", time.Since(start))
		return err
	}

	log := logger.FromContext(ctx).With().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Logger()

	exists, err := r.ledger.Exists(ctx, event.ID)
	if err != nil {
		r.metrics.ObserveWebhook(string(event.Type), "error", time.Since(start))
		return fmt.Errorf("ledger lookup: %w", err)
	}
	if exists {
		log.Info().Msg("duplicate event, already processed")
		r.metrics.ObserveDuplicate(string(event.Type))
		r.metrics.ObserveWebhook(string(event.Type), "duplicate", time.Since(start))
		return nil
	}

	if err := r.dispatch(ctx, log, event); err != nil {
		log.Error().Err(err).Msg("event handler failed")
		r.metrics.ObserveWebhook(string(event.Type), "failed", time.Since(start))
		return err
	}

	err = r.ledger.Append(ctx, ledger.Event{
		ID:         event.ID,
		Type:       string(event.Type),
		Payload:    payload,
		ReceivedAt: r.now(),
	})
	if err != nil && !errors.Is(err, ledger.ErrDuplicateEvent) {
		// The mutation landed but the ledger write did not. Redelivery will
		// re-run the handler, which is repeatable, so fail the delivery.
		r.metrics.ObserveWebhook(string(event.Type), "error", time.Since(start))
		return fmt.Errorf("ledger append: %w", err)
	}

	log.Info().Msg("event processed")
	r.metrics.ObserveWebhook(string(event.Type), "processed", time.Since(start))
	return nil
}

func (r *Reconciler) dispatch(ctx context.Context, log zerolog.Logger, event stripeapi.Event) error {
	switch string(event.Type) {
	case eventCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, log, event)
	case eventInvoicePaid:
		return r.handleInvoicePaid(ctx, log, event)
	case eventInvoicePaymentFailed:
		return r.handleInvoicePaymentFailed(ctx, log, event)
	case eventSubscriptionUpdated:
		return r.handleSubscriptionUpdated(ctx, log, event)
	case eventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, log, event)
	default:
		log.Debug().Msg("unhandled event type, acknowledging")
		r.metrics.ObserveUnhandled(string(event.Type))
		return nil
	}
}

// handleCheckoutCompleted inserts the tenant's subscription record. The
// session must carry a subscription reference, a customer reference, and the
// tenant in its metadata; a missing one is an integration bug, not a
// transient fault. The insert is strict: a second checkout for an
// already-subscribed tenant surfaces as an error instead of overwriting.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, log zerolog.Logger, event stripeapi.Event) error {
	var sess stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: decode checkout session: %v", ErrValidation, err)
	}

	if sess.Subscription == nil || sess.Subscription.ID == "" {
		return fmt.Errorf("%w: checkout session %s has no subscription reference", ErrValidation, sess.ID)
	}
	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("%w: checkout session %s has no customer reference", ErrValidation, sess.ID)
	}
	businessID := ""
	if sess.Metadata != nil {
		businessID = sess.Metadata[metadataBusinessID]
	}
	if businessID == "" {
		return fmt.Errorf("%w: checkout session %s missing %s metadata", ErrValidation, sess.ID, metadataBusinessID)
	}

	ok, err := r.tenants.Exists(ctx, businessID)
	if err != nil {
		return fmt.Errorf("tenant lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: business %s", ErrTenantNotFound, businessID)
	}

	sub, err := r.provider.FetchSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return err
	}

	rec := recordFromSubscription(businessID, sub)
	rec.ID = uuid.NewString()
	if rec.StripeCustomerID == "" {
		rec.StripeCustomerID = sess.Customer.ID
	}

	if err := r.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, subscriptions.ErrAlreadyExists) {
			return fmt.Errorf("%w: business %s already has a subscription", ErrValidation, businessID)
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	log.Info().
		Str("business_id", businessID).
		Str("subscription_id", sub.ID).
		Str("status", string(rec.Status)).
		Msg("subscription created from checkout")
	return nil
}

// handleInvoicePaid refreshes the status, period, and trial fields from the
// provider's view of the subscription. An invoice without a subscription
// (a one-off charge) or one for a subscription this system does not track
// is acknowledged without a mutation.
func (r *Reconciler) handleInvoicePaid(ctx context.Context, log zerolog.Logger, event stripeapi.Event) error {
	var inv stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("%w: decode invoice: %v", ErrValidation, err)
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		log.Debug().Msg("invoice has no subscription, acknowledging")
		return nil
	}

	sub, err := r.provider.FetchSubscription(ctx, inv.Subscription.ID)
	if err != nil {
		return err
	}

	err = r.repo.UpdateByStripeSubscriptionID(ctx, sub.ID, billingPatch(sub))
	if errors.Is(err, subscriptions.ErrNotFound) {
		log.Warn().Str("subscription_id", sub.ID).Msg("invoice.paid for unknown subscription")
		return nil
	}
	return err
}

// handleInvoicePaymentFailed moves the subscription to past_due. Only the
// status changes; the period boundaries stay where the last successful
// payment left them so the grace window anchors correctly.
func (r *Reconciler) handleInvoicePaymentFailed(ctx context.Context, log zerolog.Logger, event stripeapi.Event) error {
	var inv stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("%w: decode invoice: %v", ErrValidation, err)
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		log.Debug().Msg("invoice has no subscription, acknowledging")
		return nil
	}

	status := subscriptions.StatusPastDue
	err := r.repo.UpdateByStripeSubscriptionID(ctx, inv.Subscription.ID, subscriptions.Patch{
		Status: &status,
	})
	if errors.Is(err, subscriptions.ErrNotFound) {
		log.Warn().Str("subscription_id", inv.Subscription.ID).Msg("invoice.payment_failed for unknown subscription")
		return nil
	}
	return err
}

// handleSubscriptionUpdated applies a full-field update from the event's own
// subscription object. No provider fetch: the payload carries the complete
// new state, including plan changes and the cancel-at-period-end flag.
func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, log zerolog.Logger, event stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%w: decode subscription: %v", ErrValidation, err)
	}
	if sub.ID == "" {
		return fmt.Errorf("%w: subscription event has no subscription ID", ErrValidation)
	}

	err := r.repo.UpdateByStripeSubscriptionID(ctx, sub.ID, fullPatch(&sub))
	if errors.Is(err, subscriptions.ErrNotFound) {
		log.Warn().Str("subscription_id", sub.ID).Msg("subscription.updated for unknown subscription")
		return nil
	}
	return err
}

// handleSubscriptionDeleted records finalized termination: status becomes
// canceled and canceled_at is taken from the event. Distinct from
// cancel_at_period_end, which only queues a future cancellation.
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, log zerolog.Logger, event stripeapi.Event) error {
	var sub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%w: decode subscription: %v", ErrValidation, err)
	}
	if sub.ID == "" {
		return fmt.Errorf("%w: subscription event has no subscription ID", ErrValidation)
	}

	canceledAt := r.now().UTC()
	if sub.CanceledAt > 0 {
		canceledAt = time.Unix(sub.CanceledAt, 0).UTC()
	} else if event.Created > 0 {
		canceledAt = time.Unix(event.Created, 0).UTC()
	}

	status := subscriptions.StatusCanceled
	err := r.repo.UpdateByStripeSubscriptionID(ctx, sub.ID, subscriptions.Patch{
		Status:     &status,
		CanceledAt: &canceledAt,
	})
	if errors.Is(err, subscriptions.ErrNotFound) {
		log.Warn().Str("subscription_id", sub.ID).Msg("subscription.deleted for unknown subscription")
		return nil
	}
	return err
}
