package ledger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppendAndExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	exists, err := store.Exists(ctx, "evt_1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("empty ledger must not report events")
	}

	err = store.Append(ctx, Event{
		ID:         "evt_1",
		Type:       "invoice.paid",
		Payload:    []byte(`{"id":"evt_1"}`),
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	exists, err = store.Exists(ctx, "evt_1")
	if err != nil || !exists {
		t.Fatalf("recorded event missing: exists=%v err=%v", exists, err)
	}
}

func TestAppendIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	event := Event{ID: "evt_1", Type: "invoice.paid", ReceivedAt: time.Now()}
	if err := store.Append(ctx, event); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.Append(ctx, event); !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("err = %v, want ErrDuplicateEvent", err)
	}
}
