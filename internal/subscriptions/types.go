package subscriptions

import (
	"time"
)

// Status represents the current state of a subscription, mirroring the
// provider's own status vocabulary so webhook payloads map one to one.
type Status string

const (
	// StatusTrialing indicates the subscription is in a free trial period.
	StatusTrialing Status = "trialing"

	// StatusActive indicates the subscription is paid up and grants access.
	StatusActive Status = "active"

	// StatusPastDue indicates a payment failed but the subscription has not
	// been terminated yet. Access continues through the grace window.
	StatusPastDue Status = "past_due"

	// StatusCanceled indicates the provider finalized termination. Access
	// continues until the paid-through period end.
	StatusCanceled Status = "canceled"

	// StatusIncomplete indicates the first payment never completed.
	StatusIncomplete Status = "incomplete"

	// StatusIncompleteExpired indicates the incomplete window lapsed.
	StatusIncompleteExpired Status = "incomplete_expired"

	// StatusUnpaid indicates the provider gave up retrying payment.
	StatusUnpaid Status = "unpaid"
)

// Known reports whether the status is one of the recognized variants.
// Unknown values are preserved as-is in storage but always evaluate to
// denied access.
func (s Status) Known() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled,
		StatusIncomplete, StatusIncompleteExpired, StatusUnpaid:
		return true
	default:
		return false
	}
}

// Record is the single authoritative subscription row for a tenant business.
// It is written only by the webhook reconciler and read by the request gate.
// Cancellation is a status/flag change, never a row deletion.
type Record struct {
	ID         string `json:"id"`
	BusinessID string `json:"businessId"`

	// External identifiers, immutable once set.
	StripeSubscriptionID string `json:"stripeSubscriptionId"`
	StripeCustomerID     string `json:"stripeCustomerId"`

	Status  Status `json:"status"`
	PriceID string `json:"priceId"`

	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `json:"currentPeriodEnd"`
	TrialEnd           *time.Time `json:"trialEnd,omitempty"`

	// CancelAtPeriodEnd is orthogonal to Status: a trialing or active
	// subscription can simultaneously be flagged to cancel when the period
	// ends. Folding it into Status loses the distinction and breaks the
	// banner copy.
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	CanceledAt        *time.Time `json:"canceledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch is a partial update applied atomically by StripeSubscriptionID.
// Nil fields are left untouched. Stores must apply the whole patch as a
// single conditional statement so two concurrent webhook deliveries cannot
// interleave a read-modify-write into a lost update.
type Patch struct {
	Status             *Status
	PriceID            *string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialEnd           *time.Time
	ClearTrialEnd      bool
	CancelAtPeriodEnd  *bool
	CanceledAt         *time.Time
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil &&
		p.PriceID == nil &&
		p.CurrentPeriodStart == nil &&
		p.CurrentPeriodEnd == nil &&
		p.TrialEnd == nil &&
		!p.ClearTrialEnd &&
		p.CancelAtPeriodEnd == nil &&
		p.CanceledAt == nil
}

// apply merges the patch into a record. Used by the in-memory store; the SQL
// and Mongo stores express the same merge in a single statement.
func (p Patch) apply(rec *Record, now time.Time) {
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.PriceID != nil {
		rec.PriceID = *p.PriceID
	}
	if p.CurrentPeriodStart != nil {
		rec.CurrentPeriodStart = *p.CurrentPeriodStart
	}
	if p.CurrentPeriodEnd != nil {
		rec.CurrentPeriodEnd = *p.CurrentPeriodEnd
	}
	if p.ClearTrialEnd {
		rec.TrialEnd = nil
	} else if p.TrialEnd != nil {
		t := *p.TrialEnd
		rec.TrialEnd = &t
	}
	if p.CancelAtPeriodEnd != nil {
		rec.CancelAtPeriodEnd = *p.CancelAtPeriodEnd
	}
	if p.CanceledAt != nil {
		t := *p.CanceledAt
		rec.CanceledAt = &t
	}
	rec.UpdatedAt = now
}
