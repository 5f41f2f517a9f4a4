// Package access derives the authoritative "can this tenant use the product
// right now" decision from the locally persisted subscription record. Nothing
// in this package performs I/O with the payment provider; webhooks keep the
// record fresh and every protected request re-derives access from it.
package access

import (
	"fmt"
	"time"

	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/subscriptions"
)

// DecisionStatus is the status surfaced to the banner UI. It echoes the
// subscription status when a record exists and the decision follows from it
// directly, or one of the two derived markers below.
type DecisionStatus string

const (
	// StatusNoSubscription means the tenant has never completed checkout.
	StatusNoSubscription DecisionStatus = "no_subscription"

	// StatusAccessDenied means a record exists but no longer grants access.
	StatusAccessDenied DecisionStatus = "access_denied"
)

// BannerType selects the dashboard banner variant.
type BannerType string

const (
	BannerTrial       BannerType = "trial"
	BannerGracePeriod BannerType = "grace_period"
	BannerExpired     BannerType = "expired"
)

// Decision is the derived access result. It is never persisted.
type Decision struct {
	HasAccess  bool           `json:"hasAccess"`
	Status     DecisionStatus `json:"status"`
	DaysLeft   *int           `json:"daysLeft,omitempty"`
	Message    string         `json:"message,omitempty"`
	ShowBanner bool           `json:"showBanner"`
	BannerType BannerType     `json:"bannerType,omitempty"`
}

// Evaluator maps a subscription record and a point in time to a Decision.
// It is pure and total: every status variant, the absent-record case, and
// unrecognized status values all produce a decision without panicking.
type Evaluator struct {
	gracePeriod     time.Duration
	trialBannerDays int
}

// NewEvaluator creates an evaluator from billing policy config.
func NewEvaluator(cfg config.BillingConfig) *Evaluator {
	return &Evaluator{
		gracePeriod:     time.Duration(cfg.GracePeriodDays) * 24 * time.Hour,
		trialBannerDays: cfg.TrialBannerDays,
	}
}

// Evaluate derives the access decision for a record at the given time.
// A nil record means the tenant never checked out.
func (e *Evaluator) Evaluate(rec *subscriptions.Record, now time.Time) Decision {
	if rec == nil {
		return Decision{
			HasAccess: false,
			Status:    StatusNoSubscription,
			Message:   "No active subscription.",
		}
	}

	switch rec.Status {
	case subscriptions.StatusTrialing:
		return e.evaluateTrialing(rec, now)

	case subscriptions.StatusActive:
		return Decision{
			HasAccess: true,
			Status:    DecisionStatus(rec.Status),
		}

	case subscriptions.StatusPastDue:
		return e.evaluatePastDue(rec, now)

	case subscriptions.StatusCanceled:
		return e.evaluateCanceled(rec, now)

	case subscriptions.StatusIncomplete,
		subscriptions.StatusIncompleteExpired,
		subscriptions.StatusUnpaid:
		return denied("Your subscription is not active. Please update your billing details.")

	default:
		// Unknown status values fail closed. This is the opposite posture
		// from the request gate, which fails open on internal faults; an
		// unrecognized status is provider input, not an internal fault.
		return denied("Your subscription is not active. Please contact support.")
	}
}

func (e *Evaluator) evaluateTrialing(rec *subscriptions.Record, now time.Time) Decision {
	// Cancellation queued during the trial takes precedence over the trial
	// countdown: the banner must read as a cancellation notice, not as a
	// renewed trial countdown.
	if rec.CancelAtPeriodEnd {
		until := rec.CurrentPeriodEnd
		if rec.TrialEnd != nil {
			until = *rec.TrialEnd
		}
		days := daysUntil(now, until)
		return Decision{
			HasAccess:  true,
			Status:     DecisionStatus(rec.Status),
			DaysLeft:   &days,
			Message:    fmt.Sprintf("Your subscription is set to cancel. Access ends in %s.", dayPhrase(days)),
			ShowBanner: true,
			BannerType: BannerExpired,
		}
	}

	if rec.TrialEnd == nil {
		return Decision{
			HasAccess: true,
			Status:    DecisionStatus(rec.Status),
		}
	}

	days := daysUntil(now, *rec.TrialEnd)
	d := Decision{
		HasAccess: true,
		Status:    DecisionStatus(rec.Status),
		DaysLeft:  &days,
	}

	switch {
	case days == 0:
		// Final day: always show, with the trial-ended copy.
		d.ShowBanner = true
		d.BannerType = BannerTrial
		d.Message = "Your trial has ended. Add a payment method to keep access."
	case days <= e.trialBannerDays:
		d.ShowBanner = true
		d.BannerType = BannerTrial
		d.Message = fmt.Sprintf("Your trial ends in %s.", dayPhrase(days))
	}
	return d
}

func (e *Evaluator) evaluatePastDue(rec *subscriptions.Record, now time.Time) Decision {
	graceEnd := rec.CurrentPeriodEnd.Add(e.gracePeriod)
	if !now.Before(graceEnd) {
		return denied("Your payment is overdue and the grace period has ended.")
	}

	days := daysUntil(now, graceEnd)
	return Decision{
		HasAccess:  true,
		Status:     DecisionStatus(rec.Status),
		DaysLeft:   &days,
		Message:    fmt.Sprintf("Payment failed. Update your payment method within %s to keep access.", dayPhrase(days)),
		ShowBanner: true,
		BannerType: BannerGracePeriod,
	}
}

func (e *Evaluator) evaluateCanceled(rec *subscriptions.Record, now time.Time) Decision {
	if !now.Before(rec.CurrentPeriodEnd) {
		return denied("Your subscription has been canceled.")
	}

	days := daysUntil(now, rec.CurrentPeriodEnd)
	return Decision{
		HasAccess:  true,
		Status:     DecisionStatus(rec.Status),
		DaysLeft:   &days,
		Message:    fmt.Sprintf("Your subscription is canceled. Access ends in %s.", dayPhrase(days)),
		ShowBanner: true,
		BannerType: BannerExpired,
	}
}

func denied(message string) Decision {
	return Decision{
		HasAccess: false,
		Status:    StatusAccessDenied,
		Message:   message,
	}
}

// daysUntil is the ceiling of the remaining time in whole days, clamped to
// zero. A negative day count must never reach the user.
func daysUntil(now, t time.Time) int {
	remaining := t.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func dayPhrase(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
