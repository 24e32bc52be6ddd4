package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// Couples invite lifecycle states.
const (
	CouplesInvitePending  = "pending"
	CouplesInviteAccepted = "accepted"
	CouplesInviteExpired  = "expired"
	CouplesInviteRevoked  = "revoked"
)

// CouplesInviteTTL is how long a partner has to accept an invite.
const CouplesInviteTTL = 30 * 24 * time.Hour

// CouplesInvite links a couples-bundle purchaser to the partner seat. The
// partner registers (or logs in) through the tokened invite URL and inherits
// the inviter's plan.
type CouplesInvite struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	InviterUserID uint           `gorm:"not null;index" json:"inviter_user_id"`
	PartnerEmail  string         `gorm:"type:varchar(200);not null;index" json:"partner_email"`
	PartnerUserID *uint          `gorm:"default:null" json:"partner_user_id,omitempty"`
	Plan          string         `gorm:"type:varchar(50);not null" json:"plan"`
	Token         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	Status        string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExpiresAt     time.Time      `gorm:"not null" json:"expires_at"`
	AcceptedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"accepted_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewCouplesInvite builds a pending invite with a fresh random token.
func NewCouplesInvite(inviterID uint, partnerEmail, plan string) (*CouplesInvite, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return &CouplesInvite{
		InviterUserID: inviterID,
		PartnerEmail:  partnerEmail,
		Plan:          plan,
		Token:         hex.EncodeToString(b),
		Status:        CouplesInvitePending,
		ExpiresAt:     time.Now().Add(CouplesInviteTTL),
	}, nil
}

// IsAcceptable reports whether the invite can still be redeemed.
func (ci *CouplesInvite) IsAcceptable(now time.Time) bool {
	return ci.Status == CouplesInvitePending && now.Before(ci.ExpiresAt)
}

// FindCouplesInviteByToken resolves an invite from its URL token.
func FindCouplesInviteByToken(db *gorm.DB, token string) (*CouplesInvite, error) {
	var invite CouplesInvite
	err := db.Where("token = ?", token).First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}
