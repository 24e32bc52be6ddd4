package models

import (
	"time"

	"gorm.io/gorm"
)

// PdfExport is one logged binder export. Rows are append-only: the monthly
// quota is the count of rows sharing the current MonthYear key, so the
// "reset" at month boundary is implicit in the key.
type PdfExport struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         string    `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID       uint      `gorm:"not null;index:idx_pdf_exports_user_month,priority:1" json:"user_id"`
	MonthYear    string    `gorm:"type:char(7);not null;index:idx_pdf_exports_user_month,priority:2" json:"month_year"`
	HasWatermark bool      `gorm:"default:false" json:"has_watermark"`
	TokenFunded  bool      `gorm:"default:false" json:"token_funded"`
	SizeBytes    int64     `gorm:"default:0" json:"size_bytes"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// MonthYearKey renders the calendar-month key (YYYY-MM) used to bucket
// export counts.
func MonthYearKey(t time.Time) string {
	return t.Format("2006-01")
}

// CountExportsForMonth returns how many exports a user logged under a
// month key.
func CountExportsForMonth(db *gorm.DB, userID uint, monthYear string) (int64, error) {
	var count int64
	err := db.Model(&PdfExport{}).
		Where("user_id = ? AND month_year = ?", userID, monthYear).
		Count(&count).Error
	return count, err
}

// ListExportHistory returns a user's most recent exports.
func ListExportHistory(db *gorm.DB, userID uint, limit int) ([]PdfExport, error) {
	if limit <= 0 {
		limit = 50
	}
	var exports []PdfExport
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&exports).Error
	return exports, err
}
