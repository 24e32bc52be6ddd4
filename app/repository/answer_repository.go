package repository

import (
	"github.com/SkillBinder/GrandFinale/app/models"
	"gorm.io/gorm"
)

// answerRepository implements the AnswerRepository interface
type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository creates a new section answer repository instance
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Upsert writes a section answer, replacing any previous revision
func (r *answerRepository) Upsert(answer *models.SectionAnswer) error {
	saved, err := models.UpsertSectionAnswer(r.db, answer.UserID, answer.SectionID, answer.DataJSON)
	if err != nil {
		return err
	}
	*answer = *saved
	return nil
}

// GetByUserAndSection retrieves one user's answer document for one section
func (r *answerRepository) GetByUserAndSection(userID uint, sectionID int) (*models.SectionAnswer, error) {
	return models.FindSectionAnswer(r.db, userID, sectionID)
}

// ListByUser retrieves all section answers for a user ordered by section
func (r *answerRepository) ListByUser(userID uint) ([]models.SectionAnswer, error) {
	return models.ListSectionAnswers(r.db, userID)
}

// CountByUser returns how many sections a user has saved answers for
func (r *answerRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SectionAnswer{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteByUserAndSection removes a user's answer document for one section
func (r *answerRepository) DeleteByUserAndSection(userID uint, sectionID int) error {
	return r.db.Where("user_id = ? AND section_id = ?", userID, sectionID).
		Delete(&models.SectionAnswer{}).Error
}
