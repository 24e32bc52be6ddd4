package models

import "time"

// BillingPrice maps a Stripe price ID to the internal plan it grants. Couples
// prices grant the same plan to the purchaser and one invited partner; token
// prices fulfil export-token packs instead of a plan change.
type BillingPrice struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StripePriceID   string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_price_id"`
	InternalPlan    string    `gorm:"type:varchar(50);not null;default:''" json:"internal_plan"`
	BillingInterval string    `gorm:"type:varchar(16);not null;default:'unknown'" json:"billing_interval"`
	IsCouplesBundle bool      `gorm:"default:false" json:"is_couples_bundle"`
	IsTokenPack     bool      `gorm:"default:false" json:"is_token_pack"`
	TokensGranted   int       `gorm:"default:0" json:"tokens_granted"`
	AmountCents     int64     `gorm:"default:0" json:"amount_cents"`
	IsActive        bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
