package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Support request states. Unlike name changes these are not approved or
// denied, just worked and closed.
const (
	SupportStatusOpen     = "open"
	SupportStatusResolved = "resolved"
	SupportStatusClosed   = "closed"
)

// SupportRequest is a message submitted through the in-app support form.
// Signed-in submissions carry the user ID; the contact page allows guests.
type SupportRequest struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"default:null;index" json:"user_id,omitempty"`
	Email      string         `gorm:"type:varchar(200);not null" json:"email" validate:"required,email"`
	Subject    string         `gorm:"type:varchar(255);not null" json:"subject" validate:"required,min=3,max=255"`
	Message    string         `gorm:"type:text;not null" json:"message" validate:"required,min=10,max=10000"`
	Category   string         `gorm:"type:varchar(50);default:'general'" json:"category" validate:"oneof=general billing technical feedback"`
	Status     string         `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	AdminNote  string         `gorm:"type:text" json:"admin_note"`
	ResolvedBy *uint          `gorm:"default:null" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time     `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *SupportRequest) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// IsOpen reports whether the request still needs attention.
func (r *SupportRequest) IsOpen() bool {
	return r.Status == SupportStatusOpen
}
