package repository

import (
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByPasswordResetToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithProgress(offset, limit int) ([]UserWithProgress, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// AnswerRepository defines the interface for section answer operations
type AnswerRepository interface {
	Upsert(answer *models.SectionAnswer) error
	GetByUserAndSection(userID uint, sectionID int) (*models.SectionAnswer, error)
	ListByUser(userID uint) ([]models.SectionAnswer, error)
	CountByUser(userID uint) (int64, error)
	DeleteByUserAndSection(userID uint, sectionID int) error
}

// AttachmentRepository defines the interface for file attachment operations
type AttachmentRepository interface {
	Create(attachment *models.FileAttachment) error
	GetByUUID(uuid string) (*models.FileAttachment, error)
	ListByUser(userID uint) ([]models.FileAttachment, error)
	ListByUserAndSection(userID uint, sectionID int) ([]models.FileAttachment, error)
	CountByUserAndSection(userID uint, sectionID int) (int64, error)
	SumSizeByUser(userID uint) (int64, error)
	Delete(id uint) error
}

// RequestRepository defines the interface for support and name change requests
type RequestRepository interface {
	CreateNameChange(request *models.NameChangeRequest) error
	GetNameChangeByID(id uint) (*models.NameChangeRequest, error)
	GetPendingNameChangeForUser(userID uint) (*models.NameChangeRequest, error)
	ListNameChanges(status string, offset, limit int) ([]models.NameChangeRequest, error)
	CountNameChanges(status string) (int64, error)
	UpdateNameChange(request *models.NameChangeRequest) error

	CreateSupport(request *models.SupportRequest) error
	GetSupportByID(id uint) (*models.SupportRequest, error)
	ListSupport(status string, offset, limit int) ([]models.SupportRequest, error)
	CountSupport(status string) (int64, error)
	UpdateSupport(request *models.SupportRequest) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// UserWithProgress represents a user with binder completion statistics
type UserWithProgress struct {
	User            models.User
	AnswerCount     int64
	AttachmentCount int64
	ExportCount     int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Answer     AnswerRepository
	Attachment AttachmentRepository
	Request    RequestRepository
	Setting    SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Answer:     NewAnswerRepository(db),
		Attachment: NewAttachmentRepository(db),
		Request:    NewRequestRepository(db),
		Setting:    NewSettingRepository(db),
	}
}
