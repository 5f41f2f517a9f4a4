package access

import (
	"testing"
	"time"

	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/subscriptions"
)

func testEvaluator() *Evaluator {
	return NewEvaluator(config.BillingConfig{
		GracePeriodDays: 7,
		TrialBannerDays: 3,
	})
}

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluateAbsentRecord(t *testing.T) {
	d := testEvaluator().Evaluate(nil, time.Now())

	if d.HasAccess {
		t.Fatal("absent record must not grant access")
	}
	if d.Status != StatusNoSubscription {
		t.Fatalf("status = %q, want %q", d.Status, StatusNoSubscription)
	}
	if d.ShowBanner {
		t.Fatal("absent record must not show a banner")
	}
}

func TestEvaluateActiveAlwaysAllowsWithoutBanner(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := &subscriptions.Record{
		Status:             subscriptions.StatusActive,
		CurrentPeriodStart: now.Add(-20 * 24 * time.Hour),
		CurrentPeriodEnd:   now.Add(10 * 24 * time.Hour),
	}

	d := testEvaluator().Evaluate(rec, now)
	if !d.HasAccess {
		t.Fatal("active subscription must grant access")
	}
	if d.ShowBanner {
		t.Fatal("active subscription must not show a banner")
	}
	if d.Status != "active" {
		t.Fatalf("status = %q, want active", d.Status)
	}
}

func TestEvaluateTrialing(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		trialEnd       *time.Time
		cancelAtEnd    bool
		wantAccess     bool
		wantBanner     bool
		wantBannerType BannerType
		wantDaysLeft   int
		checkDays      bool
	}{
		{
			name:           "two days left shows countdown banner",
			trialEnd:       timePtr(now.Add(2 * 24 * time.Hour)),
			wantAccess:     true,
			wantBanner:     true,
			wantBannerType: BannerTrial,
			wantDaysLeft:   2,
			checkDays:      true,
		},
		{
			name:         "ten days left shows no banner",
			trialEnd:     timePtr(now.Add(10 * 24 * time.Hour)),
			wantAccess:   true,
			wantBanner:   false,
			wantDaysLeft: 10,
			checkDays:    true,
		},
		{
			name:           "final day shows trial-ended banner",
			trialEnd:       timePtr(now.Add(-time.Hour)),
			wantAccess:     true,
			wantBanner:     true,
			wantBannerType: BannerTrial,
			wantDaysLeft:   0,
			checkDays:      true,
		},
		{
			name:           "partial day rounds up",
			trialEnd:       timePtr(now.Add(25 * time.Hour)),
			wantAccess:     true,
			wantBanner:     true,
			wantBannerType: BannerTrial,
			wantDaysLeft:   2,
			checkDays:      true,
		},
		{
			name:           "cancellation queued reads as cancellation notice",
			trialEnd:       timePtr(now.Add(2 * 24 * time.Hour)),
			cancelAtEnd:    true,
			wantAccess:     true,
			wantBanner:     true,
			wantBannerType: BannerExpired,
			wantDaysLeft:   2,
			checkDays:      true,
		},
		{
			name:       "no trial end and no cancellation shows nothing",
			trialEnd:   nil,
			wantAccess: true,
			wantBanner: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &subscriptions.Record{
				Status:            subscriptions.StatusTrialing,
				CurrentPeriodEnd:  now.Add(14 * 24 * time.Hour),
				TrialEnd:          tc.trialEnd,
				CancelAtPeriodEnd: tc.cancelAtEnd,
			}

			d := testEvaluator().Evaluate(rec, now)
			if d.HasAccess != tc.wantAccess {
				t.Fatalf("HasAccess = %v, want %v", d.HasAccess, tc.wantAccess)
			}
			if d.ShowBanner != tc.wantBanner {
				t.Fatalf("ShowBanner = %v, want %v", d.ShowBanner, tc.wantBanner)
			}
			if tc.wantBanner && d.BannerType != tc.wantBannerType {
				t.Fatalf("BannerType = %q, want %q", d.BannerType, tc.wantBannerType)
			}
			if tc.checkDays {
				if d.DaysLeft == nil {
					t.Fatal("DaysLeft missing")
				}
				if *d.DaysLeft != tc.wantDaysLeft {
					t.Fatalf("DaysLeft = %d, want %d", *d.DaysLeft, tc.wantDaysLeft)
				}
			}
		})
	}
}

func TestEvaluatePastDueGraceWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		periodEnd    time.Time
		wantAccess   bool
		wantDaysLeft int
	}{
		{
			name:         "three days past due keeps access with four grace days",
			periodEnd:    now.Add(-3 * 24 * time.Hour),
			wantAccess:   true,
			wantDaysLeft: 4,
		},
		{
			name:       "eight days past due is denied",
			periodEnd:  now.Add(-8 * 24 * time.Hour),
			wantAccess: false,
		},
		{
			name:       "exactly at grace boundary is denied",
			periodEnd:  now.Add(-7 * 24 * time.Hour),
			wantAccess: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &subscriptions.Record{
				Status:           subscriptions.StatusPastDue,
				CurrentPeriodEnd: tc.periodEnd,
			}

			d := testEvaluator().Evaluate(rec, now)
			if d.HasAccess != tc.wantAccess {
				t.Fatalf("HasAccess = %v, want %v", d.HasAccess, tc.wantAccess)
			}
			if !tc.wantAccess {
				if d.Status != StatusAccessDenied {
					t.Fatalf("status = %q, want %q", d.Status, StatusAccessDenied)
				}
				return
			}
			if d.BannerType != BannerGracePeriod {
				t.Fatalf("BannerType = %q, want %q", d.BannerType, BannerGracePeriod)
			}
			if d.DaysLeft == nil || *d.DaysLeft != tc.wantDaysLeft {
				t.Fatalf("DaysLeft = %v, want %d", d.DaysLeft, tc.wantDaysLeft)
			}
		})
	}
}

func TestEvaluateCanceled(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rec := &subscriptions.Record{
		Status:           subscriptions.StatusCanceled,
		CurrentPeriodEnd: now.Add(5 * 24 * time.Hour),
	}
	d := testEvaluator().Evaluate(rec, now)
	if !d.HasAccess {
		t.Fatal("canceled subscription keeps access until period end")
	}
	if d.BannerType != BannerExpired {
		t.Fatalf("BannerType = %q, want %q", d.BannerType, BannerExpired)
	}
	if d.DaysLeft == nil || *d.DaysLeft != 5 {
		t.Fatalf("DaysLeft = %v, want 5", d.DaysLeft)
	}

	rec.CurrentPeriodEnd = now.Add(-time.Hour)
	d = testEvaluator().Evaluate(rec, now)
	if d.HasAccess {
		t.Fatal("canceled subscription past period end must be denied")
	}
}

func TestEvaluateDeniedStatuses(t *testing.T) {
	now := time.Now()
	for _, status := range []subscriptions.Status{
		subscriptions.StatusIncomplete,
		subscriptions.StatusIncompleteExpired,
		subscriptions.StatusUnpaid,
		subscriptions.Status("some_future_status"),
	} {
		d := testEvaluator().Evaluate(&subscriptions.Record{
			Status:           status,
			CurrentPeriodEnd: now.Add(24 * time.Hour),
		}, now)
		if d.HasAccess {
			t.Fatalf("status %q must not grant access", status)
		}
		if d.Status != StatusAccessDenied {
			t.Fatalf("status %q: decision status = %q, want %q", status, d.Status, StatusAccessDenied)
		}
	}
}

func TestDaysUntilNeverNegative(t *testing.T) {
	now := time.Now()
	if got := daysUntil(now, now.Add(-100*24*time.Hour)); got != 0 {
		t.Fatalf("daysUntil clamped = %d, want 0", got)
	}
	if got := daysUntil(now, now); got != 0 {
		t.Fatalf("daysUntil at boundary = %d, want 0", got)
	}
	if got := daysUntil(now, now.Add(24*time.Hour)); got != 1 {
		t.Fatalf("daysUntil one day = %d, want 1", got)
	}
}
