package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByPasswordResetToken retrieves a user by their password reset token
func (r *userRepository) GetByPasswordResetToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("password_reset_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an active API key hash to its user and user settings.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, nil, gorm.ErrRecordNotFound
	}
	var settings models.UserSettings
	query := r.db.Where("api_key_hash = ? AND api_key_hash <> '' AND api_key_revoked_at IS NULL", trimmed)
	if err := query.First(&settings).Error; err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := r.db.First(&user, settings.UserID).Error; err != nil {
		return nil, nil, err
	}
	return &user, &settings, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search searches for users by name or email
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?",
		searchPattern, searchPattern, searchPattern).Find(&users).Error
	return users, err
}

// GetWithProgress retrieves users together with their binder completion counts
func (r *userRepository) GetWithProgress(offset, limit int) ([]UserWithProgress, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}

	var usersWithProgress []UserWithProgress
	for _, user := range users {
		progress, err := r.getUserProgress(user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get progress for user %d: %w", user.ID, err)
		}

		usersWithProgress = append(usersWithProgress, UserWithProgress{
			User:            user,
			AnswerCount:     progress.AnswerCount,
			AttachmentCount: progress.AttachmentCount,
			ExportCount:     progress.ExportCount,
		})
	}

	return usersWithProgress, nil
}

// userProgress represents internal user binder statistics
type userProgress struct {
	AnswerCount     int64
	AttachmentCount int64
	ExportCount     int64
}

// getUserProgress retrieves binder statistics for a specific user
func (r *userRepository) getUserProgress(userID uint) (*userProgress, error) {
	var progress userProgress

	err := r.db.Model(&models.SectionAnswer{}).Where("user_id = ?", userID).Count(&progress.AnswerCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	err = r.db.Model(&models.FileAttachment{}).Where("user_id = ?", userID).Count(&progress.AttachmentCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count attachments: %w", err)
	}

	err = r.db.Model(&models.PdfExport{}).Where("user_id = ?", userID).Count(&progress.ExportCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count exports: %w", err)
	}

	return &progress, nil
}

// GetDailyStats returns daily user registration statistics for a date range
func (r *userRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	// Use DATE_FORMAT for MySQL compatibility and proper date formatting
	err := r.db.Model(&models.User{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily user stats: %w", err)
	}

	stats := make([]models.DailyStats, 0, len(results))
	for _, row := range results {
		stats = append(stats, models.DailyStats{Date: row.Date, Count: int(row.Count)})
	}

	return stats, nil
}
