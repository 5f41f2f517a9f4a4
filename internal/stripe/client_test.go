package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/reelbrief/server/internal/config"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe computes it:
// HMAC-SHA256 over "<timestamp>.<payload>".
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func testClient() *Client {
	return NewClient(config.StripeConfig{
		SecretKey:     "sk_test_x",
		WebhookSecret: testWebhookSecret,
	}, nil, nil)
}

func TestParseEventAcceptsValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	signature := signPayload(payload, testWebhookSecret, time.Now())

	event, err := testClient().ParseEvent(payload, signature)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.ID != "evt_1" {
		t.Fatalf("event ID = %q, want evt_1", event.ID)
	}
	if event.Type != "invoice.paid" {
		t.Fatalf("event type = %q, want invoice.paid", event.Type)
	}
}

func TestParseEventRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	signature := signPayload(payload, "whsec_other", time.Now())

	if _, err := testClient().ParseEvent(payload, signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestParseEventRejectsTamperedBody(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	signature := signPayload(payload, testWebhookSecret, time.Now())

	tampered := []byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{}}}`)
	if _, err := testClient().ParseEvent(tampered, signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestParseEventRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	signature := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	if _, err := testClient().ParseEvent(payload, signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestParseEventRequiresConfiguredSecret(t *testing.T) {
	client := NewClient(config.StripeConfig{}, nil, nil)
	if _, err := client.ParseEvent([]byte("{}"), "t=0,v1=x"); err == nil {
		t.Fatal("missing webhook secret must fail")
	}
}
