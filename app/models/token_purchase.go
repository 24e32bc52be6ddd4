package models

import (
	"time"

	"gorm.io/gorm"
)

// TokenPurchaseTTL is how long a purchased token pack stays usable.
const TokenPurchaseTTL = 6 * 30 * 24 * time.Hour

// TokenPurchase is one paid pack of export tokens. TokensRemaining only ever
// moves down, one unit per consumed export, through a guarded UPDATE; expired
// packs contribute nothing to the available balance.
type TokenPurchase struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"user_id"`
	TokensPurchased       int        `gorm:"not null" json:"tokens_purchased"`
	TokensRemaining       int        `gorm:"not null" json:"tokens_remaining"`
	PurchaseAmountCents   int64      `gorm:"not null" json:"purchase_amount_cents"`
	StripePaymentIntentID string     `gorm:"type:varchar(191);default:'';index" json:"-"`
	PurchasedAt           time.Time  `gorm:"not null;index" json:"purchased_at"`
	ExpiresAt             *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	IsActive              bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewTokenPurchase builds a pack with the standard 6-month expiry.
func NewTokenPurchase(userID uint, tokens int, amountCents int64, paymentIntentID string) *TokenPurchase {
	now := time.Now()
	expires := now.Add(TokenPurchaseTTL)
	return &TokenPurchase{
		UserID:                userID,
		TokensPurchased:       tokens,
		TokensRemaining:       tokens,
		PurchaseAmountCents:   amountCents,
		StripePaymentIntentID: paymentIntentID,
		PurchasedAt:           now,
		ExpiresAt:             &expires,
		IsActive:              true,
	}
}

// SumRemainingTokens totals the usable balance across active, unexpired
// packs. A NULL expiry never expires.
func SumRemainingTokens(db *gorm.DB, userID uint, now time.Time) (int, error) {
	var total int64
	err := db.Model(&TokenPurchase{}).
		Where("user_id = ? AND is_active = ? AND tokens_remaining >= 1", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Select("COALESCE(SUM(tokens_remaining), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total < 0 {
		// A negative balance is a data bug; report empty rather than
		// propagating nonsense to the quota display.
		return 0, nil
	}
	return int(total), nil
}

// ListTokenPurchases returns a user's packs, newest first.
func ListTokenPurchases(db *gorm.DB, userID uint) ([]TokenPurchase, error) {
	var purchases []TokenPurchase
	err := db.Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&purchases).Error
	return purchases, err
}
