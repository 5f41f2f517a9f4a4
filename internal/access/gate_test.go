package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/subscriptions"
)

type stubRepo struct {
	rec subscriptions.Record
	err error
}

func (s *stubRepo) Create(ctx context.Context, rec subscriptions.Record) error { return nil }
func (s *stubRepo) GetByBusinessID(ctx context.Context, businessID string) (subscriptions.Record, error) {
	return s.rec, s.err
}
func (s *stubRepo) GetByStripeSubscriptionID(ctx context.Context, id string) (subscriptions.Record, error) {
	return s.rec, s.err
}
func (s *stubRepo) UpdateByStripeSubscriptionID(ctx context.Context, id string, patch subscriptions.Patch) error {
	return nil
}
func (s *stubRepo) Close() error { return nil }

func testGate(repo subscriptions.Repository) *Gate {
	cfg := config.BillingConfig{
		GracePeriodDays:     7,
		TrialBannerDays:     3,
		TrialRedirectPath:   "/billing/start-trial",
		BillingRedirectPath: "/billing",
	}
	return NewGate(repo, NewEvaluator(cfg), cfg, nil)
}

func TestGateAllowsActiveSubscription(t *testing.T) {
	gate := testGate(&stubRepo{rec: subscriptions.Record{
		Status:           subscriptions.StatusActive,
		CurrentPeriodEnd: time.Now().Add(10 * 24 * time.Hour),
	}})

	result := gate.Check(context.Background(), "biz_1")
	if !result.Allow {
		t.Fatal("active subscription must pass the gate")
	}
	if result.RedirectPath != "" {
		t.Fatalf("unexpected redirect %q", result.RedirectPath)
	}
}

func TestGateRoutesMissingSubscriptionToTrialStart(t *testing.T) {
	gate := testGate(&stubRepo{err: subscriptions.ErrNotFound})

	result := gate.Check(context.Background(), "biz_1")
	if result.Allow {
		t.Fatal("missing subscription must not pass the gate")
	}
	if result.RedirectPath != "/billing/start-trial" {
		t.Fatalf("redirect = %q, want /billing/start-trial", result.RedirectPath)
	}
	if result.Decision.Status != StatusNoSubscription {
		t.Fatalf("decision status = %q, want %q", result.Decision.Status, StatusNoSubscription)
	}
}

func TestGateRoutesDeniedToBilling(t *testing.T) {
	gate := testGate(&stubRepo{rec: subscriptions.Record{
		Status:           subscriptions.StatusUnpaid,
		CurrentPeriodEnd: time.Now().Add(24 * time.Hour),
	}})

	result := gate.Check(context.Background(), "biz_1")
	if result.Allow {
		t.Fatal("unpaid subscription must not pass the gate")
	}
	if result.RedirectPath != "/billing" {
		t.Fatalf("redirect = %q, want /billing", result.RedirectPath)
	}
}

func TestGateFailsOpenOnLookupError(t *testing.T) {
	gate := testGate(&stubRepo{err: errors.New("connection refused")})

	result := gate.Check(context.Background(), "biz_1")
	if !result.Allow {
		t.Fatal("storage fault must fail open, not lock out the tenant")
	}
	if result.RedirectPath != "" {
		t.Fatalf("fail-open must not redirect, got %q", result.RedirectPath)
	}
}
