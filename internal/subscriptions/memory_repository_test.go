package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRecord() Record {
	return Record{
		ID:                   "rec_1",
		BusinessID:           "biz_1",
		StripeSubscriptionID: "sub_1",
		StripeCustomerID:     "cus_1",
		Status:               StatusTrialing,
		CurrentPeriodStart:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:     time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Create(ctx, testRecord()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	dup := testRecord()
	dup.ID = "rec_2"
	dup.StripeSubscriptionID = "sub_2"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate business: err = %v, want ErrAlreadyExists", err)
	}

	dup = testRecord()
	dup.ID = "rec_3"
	dup.BusinessID = "biz_2"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate stripe subscription: err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateRejectsMissingKeys(t *testing.T) {
	repo := NewMemoryRepository()
	rec := testRecord()
	rec.BusinessID = ""
	if err := repo.Create(context.Background(), rec); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
}

func TestGetByBusinessIDNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.GetByBusinessID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAppliesOnlySetFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	if err := repo.Create(ctx, testRecord()); err != nil {
		t.Fatalf("create: %v", err)
	}

	status := StatusActive
	if err := repo.UpdateByStripeSubscriptionID(ctx, "sub_1", Patch{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, err := repo.GetByStripeSubscriptionID(ctx, "sub_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != StatusActive {
		t.Fatalf("status = %q, want active", rec.Status)
	}
	if rec.PriceID != testRecord().PriceID {
		t.Fatal("unset patch fields must not change")
	}
	if !rec.CurrentPeriodEnd.Equal(testRecord().CurrentPeriodEnd) {
		t.Fatal("period end must not change")
	}
}

func TestUpdateClearTrialEnd(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	rec := testRecord()
	trialEnd := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	rec.TrialEnd = &trialEnd
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateByStripeSubscriptionID(ctx, "sub_1", Patch{ClearTrialEnd: true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := repo.GetByStripeSubscriptionID(ctx, "sub_1")
	if got.TrialEnd != nil {
		t.Fatalf("trial end = %v, want cleared", got.TrialEnd)
	}
}

func TestUpdateUnknownSubscription(t *testing.T) {
	repo := NewMemoryRepository()
	status := StatusCanceled
	err := repo.UpdateByStripeSubscriptionID(context.Background(), "missing", Patch{Status: &status})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPatchIsEmpty(t *testing.T) {
	if !(Patch{}).IsEmpty() {
		t.Fatal("zero patch must be empty")
	}
	status := StatusActive
	if (Patch{Status: &status}).IsEmpty() {
		t.Fatal("patch with a status must not be empty")
	}
	if (Patch{ClearTrialEnd: true}).IsEmpty() {
		t.Fatal("clear-trial patch must not be empty")
	}
}
