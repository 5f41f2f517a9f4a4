package stripe

import (
	"time"

	stripeapi "github.com/stripe/stripe-go/v72"

	"github.com/reelbrief/server/internal/subscriptions"
)

// mapStatus converts a provider status into the local enum. The vocabularies
// match one to one; unrecognized values pass through unchanged and evaluate
// to denied access downstream.
func mapStatus(s stripeapi.SubscriptionStatus) subscriptions.Status {
	return subscriptions.Status(s)
}

// recordFromSubscription builds a new local record from a full provider
// subscription object, for the initial insert after checkout.
func recordFromSubscription(businessID string, sub *stripeapi.Subscription) subscriptions.Record {
	rec := subscriptions.Record{
		BusinessID:           businessID,
		StripeSubscriptionID: sub.ID,
		Status:               mapStatus(sub.Status),
		CurrentPeriodStart:   time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		rec.StripeCustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		rec.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		rec.TrialEnd = &t
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		rec.CanceledAt = &t
	}
	return rec
}

// billingPatch extracts the status, period, and trial fields from a provider
// subscription. Used by the invoice.paid handler, which must not touch the
// plan or cancellation fields.
func billingPatch(sub *stripeapi.Subscription) subscriptions.Patch {
	status := mapStatus(sub.Status)
	periodStart := time.Unix(sub.CurrentPeriodStart, 0).UTC()
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	patch := subscriptions.Patch{
		Status:             &status,
		CurrentPeriodStart: &periodStart,
		CurrentPeriodEnd:   &periodEnd,
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		patch.TrialEnd = &t
	} else {
		patch.ClearTrialEnd = true
	}
	return patch
}

// fullPatch extracts every mutable field from a provider subscription. Used
// by the customer.subscription.updated handler.
func fullPatch(sub *stripeapi.Subscription) subscriptions.Patch {
	patch := billingPatch(sub)

	cancelAtPeriodEnd := sub.CancelAtPeriodEnd
	patch.CancelAtPeriodEnd = &cancelAtPeriodEnd

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID := sub.Items.Data[0].Price.ID
		patch.PriceID = &priceID
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		patch.CanceledAt = &t
	}
	return patch
}
