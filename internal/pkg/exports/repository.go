package exports

import (
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the export quota service.
type Repository interface {
	CountExportsForMonth(userID uint, monthYear string) (int64, error)
	CreateExport(export *models.PdfExport) error
	SumRemainingTokens(userID uint, now time.Time) (int, error)
	ConsumeOldestToken(userID uint, now time.Time) (bool, error)
	CreateTokenPurchase(purchase *models.TokenPurchase) error
	ListExportHistory(userID uint, limit int) ([]models.PdfExport, error)
	ListTokenPurchases(userID uint) ([]models.TokenPurchase, error)
	WithUserLock(userID uint, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an exports repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CountExportsForMonth(userID uint, monthYear string) (int64, error) {
	return models.CountExportsForMonth(r.db, userID, monthYear)
}

func (r *gormRepository) CreateExport(export *models.PdfExport) error {
	return r.db.Create(export).Error
}

func (r *gormRepository) SumRemainingTokens(userID uint, now time.Time) (int, error) {
	return models.SumRemainingTokens(r.db, userID, now)
}

// ConsumeOldestToken decrements one unit from the oldest usable pack. The
// guarded WHERE clause makes the decrement a compare-and-swap: when the
// selected pack was drained by a concurrent attempt, RowsAffected is 0 and
// the caller must re-evaluate instead of assuming success.
func (r *gormRepository) ConsumeOldestToken(userID uint, now time.Time) (bool, error) {
	var pack models.TokenPurchase
	err := r.db.
		Where("user_id = ? AND is_active = ? AND tokens_remaining >= 1", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("purchased_at ASC").
		First(&pack).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}

	tx := r.db.Model(&models.TokenPurchase{}).
		Where("id = ? AND tokens_remaining >= 1", pack.ID).
		Update("tokens_remaining", gorm.Expr("tokens_remaining - 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateTokenPurchase(purchase *models.TokenPurchase) error {
	return r.db.Create(purchase).Error
}

func (r *gormRepository) ListExportHistory(userID uint, limit int) ([]models.PdfExport, error) {
	return models.ListExportHistory(r.db, userID, limit)
}

func (r *gormRepository) ListTokenPurchases(userID uint) ([]models.TokenPurchase, error) {
	return models.ListTokenPurchases(r.db, userID)
}

// WithUserLock runs fn inside a transaction that holds a row lock on the
// user's settings row, serializing concurrent export attempts for the same
// account. The settings row exists for every registered user, which makes it
// a natural per-user mutex.
func (r *gormRepository) WithUserLock(userID uint, fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var settings models.UserSettings
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&settings).Error; err != nil {
			return err
		}
		return fn(&gormRepository{db: tx})
	})
}
