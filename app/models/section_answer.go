package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxAnswerJSONBytes caps a single section document. Large enough for every
// real form, small enough to keep longtext rows sane.
const MaxAnswerJSONBytes = 1 << 20

// SectionAnswer holds one user's answers for one binder section as a JSON
// document. The SPA saves whole sections at a time, so a single row per
// (user, section) with upsert semantics is enough.
type SectionAnswer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:ux_section_answers_user_section,unique,priority:1" json:"user_id"`
	SectionID int            `gorm:"not null;index:ux_section_answers_user_section,unique,priority:2" json:"section_id"`
	DataJSON  string         `gorm:"type:longtext;not null" json:"data_json"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UpsertSectionAnswer writes the section document for a user, replacing any
// previous revision.
func UpsertSectionAnswer(db *gorm.DB, userID uint, sectionID int, dataJSON string) (*SectionAnswer, error) {
	answer := &SectionAnswer{
		UserID:    userID,
		SectionID: sectionID,
		DataJSON:  dataJSON,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "section_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"data_json", "updated_at"}),
	}).Create(answer).Error; err != nil {
		return nil, err
	}
	return answer, db.Where("user_id = ? AND section_id = ?", userID, sectionID).First(answer).Error
}

// FindSectionAnswer returns the stored document for a (user, section) pair.
func FindSectionAnswer(db *gorm.DB, userID uint, sectionID int) (*SectionAnswer, error) {
	var answer SectionAnswer
	err := db.Where("user_id = ? AND section_id = ?", userID, sectionID).First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// ListSectionAnswers returns every stored section for a user in binder order.
func ListSectionAnswers(db *gorm.DB, userID uint) ([]SectionAnswer, error) {
	var answers []SectionAnswer
	err := db.Where("user_id = ?", userID).Order("section_id ASC").Find(&answers).Error
	return answers, err
}
