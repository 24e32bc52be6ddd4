package repository

import (
	"github.com/SkillBinder/GrandFinale/app/models"
	"gorm.io/gorm"
)

// attachmentRepository implements the AttachmentRepository interface
type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new attachment repository instance
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Create creates a new attachment record in the database
func (r *attachmentRepository) Create(attachment *models.FileAttachment) error {
	return r.db.Create(attachment).Error
}

// GetByUUID retrieves an attachment by its public UUID
func (r *attachmentRepository) GetByUUID(uuid string) (*models.FileAttachment, error) {
	return models.FindAttachmentByUUID(r.db, uuid)
}

// ListByUser retrieves all attachments for a user, newest first
func (r *attachmentRepository) ListByUser(userID uint) ([]models.FileAttachment, error) {
	var attachments []models.FileAttachment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&attachments).Error
	return attachments, err
}

// ListByUserAndSection retrieves a user's attachments for one section
func (r *attachmentRepository) ListByUserAndSection(userID uint, sectionID int) ([]models.FileAttachment, error) {
	return models.ListAttachments(r.db, userID, sectionID)
}

// CountByUserAndSection counts a user's attachments in one section
func (r *attachmentRepository) CountByUserAndSection(userID uint, sectionID int) (int64, error) {
	var count int64
	err := r.db.Model(&models.FileAttachment{}).
		Where("user_id = ? AND section_id = ?", userID, sectionID).Count(&count).Error
	return count, err
}

// SumSizeByUser returns the total stored bytes across a user's attachments
func (r *attachmentRepository) SumSizeByUser(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.FileAttachment{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(size_bytes), 0)").Row().Scan(&total)
	return total, err
}

// Delete removes an attachment record by its ID
func (r *attachmentRepository) Delete(id uint) error {
	return r.db.Delete(&models.FileAttachment{}, id).Error
}
