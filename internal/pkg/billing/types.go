package billing

import "time"

// NormalizedSubscription is the flattened Stripe subscription shape used by
// the billing service when syncing webhook state into local tables.
type NormalizedSubscription struct {
	UserID               uint
	StripeSubscriptionID string
	StripePriceID        string
	Status               string
	BillingInterval      string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	RawPayloadJSON       string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	StripeEventID  string
	EventType      string
	PayloadJSON    string
	SignatureValid bool
}
