package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user plan, subscription and trial state. This row
// is the persisted source of the entitlement snapshot; the plan is only ever
// written by billing reconciliation or an admin override, never inferred.
type UserSettings struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"uniqueIndex" json:"user_id"`
	Plan               string         `gorm:"type:varchar(50);default:''" json:"plan"`
	SubscriptionStatus string         `gorm:"type:varchar(32);default:'inactive'" json:"subscription_status"`
	GraceExpiresAt     *time.Time     `gorm:"type:timestamp;default:null" json:"grace_expires_at,omitempty"`
	TrialStartedAt     *time.Time     `gorm:"type:timestamp;default:null" json:"trial_started_at,omitempty"`
	TrialUpgradedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"trial_upgraded_at,omitempty"`
	StripeCustomerID   string         `gorm:"type:varchar(191);default:'';index" json:"-"`
	CouplesInviteID    *uint          `gorm:"default:null" json:"couples_invite_id,omitempty"`
	APIKeyHash         string         `gorm:"type:char(64);default:''" json:"-"`
	APIKeyPrefix       string         `gorm:"type:varchar(20);default:''" json:"api_key_prefix"`
	APIKeyCreatedAt    *time.Time     `json:"api_key_created_at"`
	APIKeyLastUsedAt   *time.Time     `json:"api_key_last_used_at"`
	APIKeyRevokedAt    *time.Time     `json:"api_key_revoked_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusInactive = "inactive"
)

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "gfl_"

// GetOrCreateUserSettings returns existing settings or creates defaults.
// Fresh rows start without a plan and with the subscription inactive, which
// the entitlement engine treats as trial-equivalent access.
func GetOrCreateUserSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var us UserSettings
	if err := db.Where("user_id = ?", userID).First(&us).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			us = UserSettings{UserID: userID, SubscriptionStatus: SubscriptionStatusInactive}
			if err := db.Create(&us).Error; err != nil {
				return nil, err
			}
			return &us, nil
		}
		return nil, err
	}
	return &us, nil
}

// StartTrial stamps the trial start exactly once per user. The guarded update
// makes a second call a no-op, so callers always read back the original
// timestamp afterwards.
func StartTrial(db *gorm.DB, userID uint) (*UserSettings, error) {
	us, err := GetOrCreateUserSettings(db, userID)
	if err != nil {
		return nil, err
	}
	if us.TrialStartedAt != nil || us.TrialUpgradedAt != nil {
		return us, nil
	}
	now := time.Now()
	res := db.Model(&UserSettings{}).
		Where("user_id = ? AND trial_started_at IS NULL AND trial_upgraded_at IS NULL", userID).
		Update("trial_started_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	// Re-read: a concurrent call may have won the update.
	return GetOrCreateUserSettings(db, userID)
}

// MarkTrialUpgraded records the terminal trial-to-paid transition.
func (us *UserSettings) MarkTrialUpgraded(db *gorm.DB) error {
	if us.TrialUpgradedAt != nil {
		return nil
	}
	now := time.Now()
	if err := db.Model(&UserSettings{}).
		Where("id = ? AND trial_upgraded_at IS NULL", us.ID).
		Update("trial_upgraded_at", now).Error; err != nil {
		return err
	}
	us.TrialUpgradedAt = &now
	return nil
}

// HasActiveAPIKey reports whether the user has an active API key configured
func (us *UserSettings) HasActiveAPIKey() bool {
	return us != nil && us.APIKeyHash != "" && us.APIKeyRevokedAt == nil
}

// IssueAPIKey generates a new API key, persists metadata on the struct, and returns the raw secret.
// Callers must persist the struct via the database after invoking this method.
func (us *UserSettings) IssueAPIKey() (string, error) {
	rawKey, prefix, hash, err := generateAPIKeyMaterial()
	if err != nil {
		return "", err
	}
	now := time.Now()
	us.APIKeyHash = hash
	us.APIKeyPrefix = prefix
	us.APIKeyCreatedAt = &now
	us.APIKeyRevokedAt = nil
	us.APIKeyLastUsedAt = nil
	return rawKey, nil
}

// RevokeAPIKey clears the stored key material and stamps the revocation.
func (us *UserSettings) RevokeAPIKey() {
	now := time.Now()
	us.APIKeyHash = ""
	us.APIKeyPrefix = ""
	us.APIKeyRevokedAt = &now
}

// HashAPIKey hashes a raw API key for storage and lookup.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func generateAPIKeyMaterial() (rawKey, prefix, hash string, err error) {
	buf := make([]byte, 20)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", err
	}
	secret := apiKeyEncoding.EncodeToString(buf)
	rawKey = fmt.Sprintf("%s%s", apiKeyPrefix, secret)
	if len(secret) >= 6 {
		prefix = apiKeyPrefix + secret[:6]
	} else {
		prefix = apiKeyPrefix + secret
	}
	hash = HashAPIKey(rawKey)
	return rawKey, prefix, hash, nil
}
