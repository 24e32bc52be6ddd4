package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Review states shared by name-change and support requests.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
)

// NameChangeRequest is a user's ask to change the legal name on their
// account. Name edits go through admin review because the name is printed on
// the exported binder.
type NameChangeRequest struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	CurrentFirstName string         `gorm:"type:varchar(100);not null" json:"current_first_name"`
	CurrentLastName  string         `gorm:"type:varchar(100);not null" json:"current_last_name"`
	NewFirstName     string         `gorm:"type:varchar(100);not null" json:"new_first_name" validate:"required,min=1,max=100"`
	NewLastName      string         `gorm:"type:varchar(100);not null" json:"new_last_name" validate:"required,min=1,max=100"`
	Reason           string         `gorm:"type:text" json:"reason" validate:"max=2000"`
	Status           string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNote        string         `gorm:"type:text" json:"admin_note"`
	ReviewedBy       *uint          `gorm:"default:null" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time     `gorm:"type:timestamp;default:null" json:"reviewed_at,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *NameChangeRequest) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// IsPending reports whether the request still awaits review.
func (r *NameChangeRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
