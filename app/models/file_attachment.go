package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment storage backends.
const (
	AttachmentStorageLocal = "local"
	AttachmentStorageS3    = "s3"
)

// FileAttachment is an uploaded file bound to one binder section (letters in
// section 12, multimedia in section 16). The entitlement engine gates who may
// create these; rows carry enough metadata to serve and later delete the blob.
type FileAttachment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID        uint           `gorm:"not null;index:idx_file_attachments_user_section,priority:1" json:"user_id"`
	SectionID     int            `gorm:"not null;index:idx_file_attachments_user_section,priority:2" json:"section_id"`
	FileName      string         `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType   string         `gorm:"type:varchar(100);default:''" json:"content_type"`
	SizeBytes     int64          `gorm:"default:0" json:"size_bytes"`
	Storage       string         `gorm:"type:varchar(20);not null;default:'local'" json:"storage"`
	DownloadCount int64          `gorm:"default:0" json:"download_count"`
	StorageKey    string         `gorm:"type:varchar(512);not null" json:"-"`
	ThumbnailKey  string         `gorm:"type:varchar(512);default:''" json:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// FindAttachmentByUUID resolves an attachment for serving or deletion.
func FindAttachmentByUUID(db *gorm.DB, uuid string) (*FileAttachment, error) {
	var att FileAttachment
	err := db.Where("uuid = ?", uuid).First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// ListAttachments returns a user's attachments for one section.
func ListAttachments(db *gorm.DB, userID uint, sectionID int) ([]FileAttachment, error) {
	var atts []FileAttachment
	err := db.Where("user_id = ? AND section_id = ?", userID, sectionID).
		Order("created_at DESC").
		Find(&atts).Error
	return atts, err
}
