package repository

import (
	"github.com/SkillBinder/GrandFinale/app/models"
	"gorm.io/gorm"
)

// requestRepository implements the RequestRepository interface
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new request repository instance
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// CreateNameChange creates a new name change request
func (r *requestRepository) CreateNameChange(request *models.NameChangeRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}
	return r.db.Create(request).Error
}

// GetNameChangeByID retrieves a name change request by its ID
func (r *requestRepository) GetNameChangeByID(id uint) (*models.NameChangeRequest, error) {
	var request models.NameChangeRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetPendingNameChangeForUser returns the user's open name change request, if any
func (r *requestRepository) GetPendingNameChangeForUser(userID uint) (*models.NameChangeRequest, error) {
	var request models.NameChangeRequest
	err := r.db.Where("user_id = ? AND status = ?", userID, models.RequestStatusPending).
		Order("created_at DESC").First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ListNameChanges retrieves name change requests, optionally filtered by status
func (r *requestRepository) ListNameChanges(status string, offset, limit int) ([]models.NameChangeRequest, error) {
	var requests []models.NameChangeRequest
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&requests).Error
	return requests, err
}

// CountNameChanges counts name change requests, optionally filtered by status
func (r *requestRepository) CountNameChanges(status string) (int64, error) {
	var count int64
	query := r.db.Model(&models.NameChangeRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

// UpdateNameChange updates an existing name change request
func (r *requestRepository) UpdateNameChange(request *models.NameChangeRequest) error {
	return r.db.Save(request).Error
}

// CreateSupport creates a new support request
func (r *requestRepository) CreateSupport(request *models.SupportRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}
	return r.db.Create(request).Error
}

// GetSupportByID retrieves a support request by its ID
func (r *requestRepository) GetSupportByID(id uint) (*models.SupportRequest, error) {
	var request models.SupportRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ListSupport retrieves support requests, optionally filtered by status
func (r *requestRepository) ListSupport(status string, offset, limit int) ([]models.SupportRequest, error) {
	var requests []models.SupportRequest
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&requests).Error
	return requests, err
}

// CountSupport counts support requests, optionally filtered by status
func (r *requestRepository) CountSupport(status string) (int64, error) {
	var count int64
	query := r.db.Model(&models.SupportRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

// UpdateSupport updates an existing support request
func (r *requestRepository) UpdateSupport(request *models.SupportRequest) error {
	return r.db.Save(request).Error
}
