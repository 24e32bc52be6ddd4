package billing

import (
	"strconv"
	"testing"
	"time"
)

func TestParseStripeEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_123"}}
	}`)

	event, err := ParseStripeEvent(payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.ID != "evt_123" || event.Type != "customer.subscription.updated" {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	if len(event.Data.Object) == 0 {
		t.Fatal("event data object not captured")
	}

	if _, err := ParseStripeEvent([]byte(`{"id":"evt_1"}`)); err == nil {
		t.Fatal("event without type should be rejected")
	}
}

func TestParseSubscriptionObject(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	payload := []byte(`{
		"id": "sub_123",
		"customer": "cus_456",
		"status": "past_due",
		"cancel_at_period_end": true,
		"current_period_start": ` + strconv.FormatInt(start.Unix(), 10) + `,
		"current_period_end": ` + strconv.FormatInt(end.Unix(), 10) + `,
		"items": {"data": [{"price": {"id": "price_standard_month", "recurring": {"interval": "month"}}}]}
	}`)

	sub, err := ParseSubscriptionObject(payload)
	if err != nil {
		t.Fatalf("parse subscription: %v", err)
	}
	if sub.ID != "sub_123" || sub.CustomerID != "cus_456" {
		t.Fatalf("unexpected identity: %+v", sub)
	}
	if sub.Status != "past_due" || !sub.CancelAtPeriodEnd {
		t.Fatalf("unexpected status fields: %+v", sub)
	}
	if sub.PriceID != "price_standard_month" || sub.Interval != "month" {
		t.Fatalf("unexpected price fields: %+v", sub)
	}
	if sub.CurrentPeriodStart == nil || !sub.CurrentPeriodStart.Equal(start) {
		t.Fatalf("period start = %v, want %v", sub.CurrentPeriodStart, start)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("period end = %v, want %v", sub.CurrentPeriodEnd, end)
	}

	if _, err := ParseSubscriptionObject([]byte(`{"status":"active"}`)); err == nil {
		t.Fatal("subscription without id should be rejected")
	}
}

func TestParseCheckoutSessionObject(t *testing.T) {
	payload := []byte(`{
		"id": "cs_123",
		"mode": "payment",
		"customer": "cus_456",
		"client_reference_id": "42",
		"payment_intent": "pi_789",
		"amount_total": 1499,
		"metadata": {"price_id": "price_tokens_5"}
	}`)

	sess, err := ParseCheckoutSessionObject(payload)
	if err != nil {
		t.Fatalf("parse checkout session: %v", err)
	}
	if sess.ID != "cs_123" || sess.Mode != "payment" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.PaymentIntentID != "pi_789" || sess.AmountTotal != 1499 {
		t.Fatalf("unexpected payment fields: %+v", sess)
	}
	if sess.Metadata["price_id"] != "price_tokens_5" {
		t.Fatalf("metadata not captured: %+v", sess.Metadata)
	}
}

