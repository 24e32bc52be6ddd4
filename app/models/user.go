package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	FirstName           string         `gorm:"type:varchar(100)" json:"first_name" validate:"required,min=1,max=100"`
	LastName            string         `gorm:"type:varchar(100)" json:"last_name" validate:"required,min=1,max=100"`
	Email               string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password            string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status              string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	ActivationToken     string         `gorm:"type:varchar(100);index" json:"-"`
	ActivationSentAt    *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	PasswordResetToken  string         `gorm:"type:varchar(100);default:null;index" json:"-"`
	PasswordResetSentAt *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt         *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(firstName, lastName, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  pw,
		Role:      ROLE_USER,
		Status:    STATUS_INACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// FullName renders the display name used in exports and emails.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// GenerateActivationToken creates a random token and sets ActivationSentAt
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	now := time.Now()
	u.ActivationSentAt = &now
	return nil
}

// GeneratePasswordResetToken creates a random token for the reset-password flow
func (u *User) GeneratePasswordResetToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.PasswordResetToken = hex.EncodeToString(b)
	now := time.Now()
	u.PasswordResetSentAt = &now
	return nil
}

// IsPasswordResetTokenValid checks the token and its 2 hour expiry window
func (u *User) IsPasswordResetTokenValid(token string) bool {
	if u.PasswordResetToken == "" || u.PasswordResetSentAt == nil {
		return false
	}
	if u.PasswordResetToken != token {
		return false
	}
	return time.Since(*u.PasswordResetSentAt) < 2*time.Hour
}

// ClearPasswordResetRequest clears the pending reset token after use
func (u *User) ClearPasswordResetRequest() {
	u.PasswordResetToken = ""
	u.PasswordResetSentAt = nil
}
