package models

import "time"

const (
	BillingIntervalMonth   = "month"
	BillingIntervalYear    = "year"
	BillingIntervalOnce    = "once"
	BillingIntervalUnknown = "unknown"
)

const (
	BillingStatusActive     = "active"
	BillingStatusTrialing   = "trialing"
	BillingStatusPastDue    = "past_due"
	BillingStatusCanceled   = "canceled"
	BillingStatusIncomplete = "incomplete"
	BillingStatusUnpaid     = "unpaid"
)

// BillingSubscription mirrors one Stripe subscription (or a one-time
// lifetime/couples purchase modeled as a non-renewing subscription) and the
// internal plan it entitles.
type BillingSubscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID        string     `gorm:"type:varchar(191);not null;index" json:"stripe_price_id"`
	InternalPlan         string     `gorm:"type:varchar(50);not null;default:'';index" json:"internal_plan"`
	BillingInterval      string     `gorm:"type:varchar(16);not null;default:'unknown'" json:"billing_interval"`
	Status               string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	IsCouplesBundle      bool       `gorm:"default:false" json:"is_couples_bundle"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	RawPayloadJSON       string     `gorm:"type:longtext" json:"-"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
