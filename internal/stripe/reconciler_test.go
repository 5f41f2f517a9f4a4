package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v72"

	"github.com/reelbrief/server/internal/ledger"
	"github.com/reelbrief/server/internal/subscriptions"
	"github.com/reelbrief/server/internal/tenants"
)

// fakeProvider returns canned events and subscription objects. ParseEvent
// skips real signature verification; that path is covered by the HTTP tests.
type fakeProvider struct {
	event      stripeapi.Event
	parseErr   error
	sub        *stripeapi.Subscription
	fetchErr   error
	fetchCalls int
}

func (f *fakeProvider) ParseEvent(payload []byte, signature string) (stripeapi.Event, error) {
	if f.parseErr != nil {
		return stripeapi.Event{}, f.parseErr
	}
	return f.event, nil
}

func (f *fakeProvider) FetchSubscription(ctx context.Context, subscriptionID string) (*stripeapi.Subscription, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.sub, nil
}

func makeEvent(id, eventType string, raw string) stripeapi.Event {
	return stripeapi.Event{
		ID:      id,
		Type:    eventType,
		Created: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).Unix(),
		Data:    &stripeapi.EventData{Raw: json.RawMessage(raw)},
	}
}

func checkoutEvent(id string) stripeapi.Event {
	return makeEvent(id, "checkout.session.completed", `{
		"id": "cs_1",
		"subscription": "sub_1",
		"customer": "cus_1",
		"metadata": {"business_id": "biz_1"}
	}`)
}

func providerSubscription(status stripeapi.SubscriptionStatus, trialEnd int64) *stripeapi.Subscription {
	periodStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return &stripeapi.Subscription{
		ID:                 "sub_1",
		Status:             status,
		Customer:           &stripeapi.Customer{ID: "cus_1"},
		CurrentPeriodStart: periodStart.Unix(),
		CurrentPeriodEnd:   periodStart.Add(30 * 24 * time.Hour).Unix(),
		TrialEnd:           trialEnd,
		Items: &stripeapi.SubscriptionItemList{
			Data: []*stripeapi.SubscriptionItem{
				{Price: &stripeapi.Price{ID: "price_monthly"}},
			},
		},
	}
}

type fixture struct {
	provider *fakeProvider
	repo     *subscriptions.MemoryRepository
	ledger   ledger.Store
	rec      *Reconciler
}

func newFixture(provider *fakeProvider) *fixture {
	repo := subscriptions.NewMemoryRepository()
	ledgerStore := ledger.NewMemoryStore()
	directory := tenants.NewMemoryDirectory()
	directory.Add("biz_1")

	return &fixture{
		provider: provider,
		repo:     repo,
		ledger:   ledgerStore,
		rec:      NewReconciler(provider, repo, ledgerStore, directory, nil),
	}
}

func (f *fixture) seedSubscription(t *testing.T) {
	t.Helper()
	trialEnd := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	err := f.repo.Create(context.Background(), subscriptions.Record{
		ID:                   "rec_1",
		BusinessID:           "biz_1",
		StripeSubscriptionID: "sub_1",
		StripeCustomerID:     "cus_1",
		Status:               subscriptions.StatusTrialing,
		PriceID:              "price_monthly",
		CurrentPeriodStart:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:     time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
		TrialEnd:             &trialEnd,
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestCheckoutCompletedCreatesTrialingRecord(t *testing.T) {
	trialEnd := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		event: checkoutEvent("evt_1"),
		sub:   providerSubscription(stripeapi.SubscriptionStatusTrialing, trialEnd.Unix()),
	}
	f := newFixture(provider)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	rec, err := f.repo.GetByBusinessID(context.Background(), "biz_1")
	if err != nil {
		t.Fatalf("GetByBusinessID: %v", err)
	}
	if rec.Status != subscriptions.StatusTrialing {
		t.Fatalf("status = %q, want trialing", rec.Status)
	}
	if rec.StripeSubscriptionID != "sub_1" || rec.StripeCustomerID != "cus_1" {
		t.Fatalf("provider refs = %q/%q", rec.StripeSubscriptionID, rec.StripeCustomerID)
	}
	if rec.PriceID != "price_monthly" {
		t.Fatalf("price = %q, want price_monthly", rec.PriceID)
	}
	if rec.TrialEnd == nil || !rec.TrialEnd.Equal(trialEnd) {
		t.Fatalf("trial end = %v, want %v", rec.TrialEnd, trialEnd)
	}

	exists, err := f.ledger.Exists(context.Background(), "evt_1")
	if err != nil || !exists {
		t.Fatalf("event not recorded in ledger: exists=%v err=%v", exists, err)
	}
}

func TestDuplicateEventIsNoOp(t *testing.T) {
	provider := &fakeProvider{
		event: checkoutEvent("evt_1"),
		sub:   providerSubscription(stripeapi.SubscriptionStatusTrialing, 0),
	}
	f := newFixture(provider)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("redelivery must succeed: %v", err)
	}

	if provider.fetchCalls != 1 {
		t.Fatalf("fetch calls = %d, want 1 (redelivery must not reapply)", provider.fetchCalls)
	}
}

func TestCheckoutValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing subscription reference",
			raw:  `{"id":"cs_1","customer":"cus_1","metadata":{"business_id":"biz_1"}}`,
		},
		{
			name: "missing customer reference",
			raw:  `{"id":"cs_1","subscription":"sub_1","metadata":{"business_id":"biz_1"}}`,
		},
		{
			name: "missing business metadata",
			raw:  `{"id":"cs_1","subscription":"sub_1","customer":"cus_1"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{
				event: makeEvent("evt_v", "checkout.session.completed", tc.raw),
				sub:   providerSubscription(stripeapi.SubscriptionStatusTrialing, 0),
			}
			f := newFixture(provider)

			err := f.rec.Process(context.Background(), []byte("{}"), "sig")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}

			// Failed events stay out of the ledger so a corrected redelivery
			// can still apply.
			exists, _ := f.ledger.Exists(context.Background(), "evt_v")
			if exists {
				t.Fatal("failed event must not be recorded")
			}
		})
	}
}

func TestCheckoutUnknownTenant(t *testing.T) {
	provider := &fakeProvider{
		event: makeEvent("evt_t", "checkout.session.completed",
			`{"id":"cs_1","subscription":"sub_1","customer":"cus_1","metadata":{"business_id":"biz_unknown"}}`),
		sub: providerSubscription(stripeapi.SubscriptionStatusTrialing, 0),
	}
	f := newFixture(provider)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("err = %v, want ErrTenantNotFound", err)
	}
}

func TestSecondCheckoutSurfacesAsError(t *testing.T) {
	provider := &fakeProvider{
		event: checkoutEvent("evt_2"),
		sub:   providerSubscription(stripeapi.SubscriptionStatusActive, 0),
	}
	f := newFixture(provider)
	f.seedSubscription(t)

	err := f.rec.Process(context.Background(), []byte("{}"), "sig")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for duplicate checkout", err)
	}
}

func TestInvoicePaidRefreshesBillingFields(t *testing.T) {
	newPeriodStart := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	sub := providerSubscription(stripeapi.SubscriptionStatusActive, 0)
	sub.CurrentPeriodStart = newPeriodStart.Unix()
	sub.CurrentPeriodEnd = newPeriodStart.Add(30 * 24 * time.Hour).Unix()

	provider := &fakeProvider{
		event: makeEvent("evt_3", "invoice.paid", `{"id":"in_1","subscription":"sub_1"}`),
		sub:   sub,
	}
	f := newFixture(provider)
	f.seedSubscription(t)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	rec, _ := f.repo.GetByStripeSubscriptionID(context.Background(), "sub_1")
	if rec.Status != subscriptions.StatusActive {
		t.Fatalf("status = %q, want active", rec.Status)
	}
	if !rec.CurrentPeriodStart.Equal(newPeriodStart) {
		t.Fatalf("period start = %v, want %v", rec.CurrentPeriodStart, newPeriodStart)
	}
	if rec.TrialEnd != nil {
		t.Fatal("trial end must clear once the provider reports none")
	}
}

func TestInvoicePaidUnknownSubscriptionAcks(t *testing.T) {
	provider := &fakeProvider{
		event: makeEvent("evt_4", "invoice.paid", `{"id":"in_1","subscription":"sub_missing"}`),
		sub: &stripeapi.Subscription{
			ID:     "sub_missing",
			Status: stripeapi.SubscriptionStatusActive,
		},
	}
	f := newFixture(provider)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unknown subscription must ack, got %v", err)
	}
}

func TestInvoicePaymentFailedOnlyTouchesStatus(t *testing.T) {
	provider := &fakeProvider{
		event: makeEvent("evt_5", "invoice.payment_failed", `{"id":"in_2","subscription":"sub_1"}`),
	}
	f := newFixture(provider)
	f.seedSubscription(t)

	before, _ := f.repo.GetByStripeSubscriptionID(context.Background(), "sub_1")

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if provider.fetchCalls != 0 {
		t.Fatalf("payment_failed must not fetch, got %d calls", provider.fetchCalls)
	}

	after, _ := f.repo.GetByStripeSubscriptionID(context.Background(), "sub_1")
	if after.Status != subscriptions.StatusPastDue {
		t.Fatalf("status = %q, want past_due", after.Status)
	}
	if !after.CurrentPeriodEnd.Equal(before.CurrentPeriodEnd) {
		t.Fatal("period end must stay where the last successful payment left it")
	}
}

func TestSubscriptionUpdatedAppliesFullPatch(t *testing.T) {
	raw := fmt.Sprintf(`{
		"id": "sub_1",
		"status": "active",
		"cancel_at_period_end": true,
		"current_period_start": %d,
		"current_period_end": %d,
		"items": {"data": [{"price": {"id": "price_yearly"}}]}
	}`,
		time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC).Unix(),
		time.Date(2027, 4, 9, 0, 0, 0, 0, time.UTC).Unix(),
	)

	provider := &fakeProvider{event: makeEvent("evt_6", "customer.subscription.updated", raw)}
	f := newFixture(provider)
	f.seedSubscription(t)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if provider.fetchCalls != 0 {
		t.Fatal("subscription.updated carries full state, no fetch expected")
	}

	rec, _ := f.repo.GetByStripeSubscriptionID(context.Background(), "sub_1")
	if rec.Status != subscriptions.StatusActive {
		t.Fatalf("status = %q, want active", rec.Status)
	}
	if !rec.CancelAtPeriodEnd {
		t.Fatal("cancel_at_period_end must carry over")
	}
	if rec.PriceID != "price_yearly" {
		t.Fatalf("price = %q, want price_yearly", rec.PriceID)
	}
}

func TestSubscriptionDeletedFinalizesCancellation(t *testing.T) {
	canceledAt := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	raw := fmt.Sprintf(`{"id": "sub_1", "status": "canceled", "canceled_at": %d}`, canceledAt.Unix())

	provider := &fakeProvider{event: makeEvent("evt_7", "customer.subscription.deleted", raw)}
	f := newFixture(provider)
	f.seedSubscription(t)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	rec, _ := f.repo.GetByStripeSubscriptionID(context.Background(), "sub_1")
	if rec.Status != subscriptions.StatusCanceled {
		t.Fatalf("status = %q, want canceled", rec.Status)
	}
	if rec.CanceledAt == nil || !rec.CanceledAt.Equal(canceledAt) {
		t.Fatalf("canceled_at = %v, want %v", rec.CanceledAt, canceledAt)
	}
}

func TestUnknownEventTypeIsAcknowledged(t *testing.T) {
	provider := &fakeProvider{
		event: makeEvent("evt_8", "customer.created", `{"id":"cus_1"}`),
	}
	f := newFixture(provider)

	if err := f.rec.Process(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unknown event types must ack, got %v", err)
	}

	// Acknowledged events still land in the ledger so replays short-circuit.
	exists, _ := f.ledger.Exists(context.Background(), "evt_8")
	if !exists {
		t.Fatal("acknowledged event must be recorded")
	}
}

func TestProviderFetchFailureAbortsBeforeLedger(t *testing.T) {
	provider := &fakeProvider{
		event:    checkoutEvent("evt_9"),
		fetchErr: fmt.Errorf("%w: boom", ErrProviderUnavailable),
	}
	f := newFixture(provider)

	err := f.rec.Process(context.Background(), []byte("{}"), "sig")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}

	exists, _ := f.ledger.Exists(context.Background(), "evt_9")
	if exists {
		t.Fatal("failed fetch must leave the event unrecorded for retry")
	}
}

func TestInvalidSignatureTouchesNothing(t *testing.T) {
	provider := &fakeProvider{parseErr: fmt.Errorf("%w: bad sig", ErrInvalidSignature)}
	f := newFixture(provider)

	err := f.rec.Process(context.Background(), []byte("{}"), "t=bad")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}
