package exports

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
)

// RefusalReason is the user-facing message attached to a refused export.
const RefusalReason = "export limit reached for this month"

// unavailableReason is returned when the backing store could not be read.
// Availability collapses to zero in that case rather than guessing.
const unavailableReason = "export availability is temporarily unavailable"

// Service decides whether an export may proceed and records the consumed
// capacity unit. Monthly allotment is spent before purchased tokens.
type Service struct {
	repo Repository
}

// NewService creates an export quota service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates an export quota service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Quota returns the capacity snapshot for a user without consuming anything.
// Store failures are logged and reported as zero availability.
func (s *Service) Quota(ctx context.Context, userID uint, plan entitlements.Plan, planKnown, isTrial bool) Quota {
	_ = ctx
	limit, watermark := entitlements.ExportLimit(plan, planKnown, isTrial)
	if limit == entitlements.UnlimitedExports {
		return Quota{Limit: limit, Unlimited: true, HasWatermark: watermark}
	}

	now := time.Now()
	used, err := s.repo.CountExportsForMonth(userID, models.MonthYearKey(now))
	if err != nil {
		log.Errorf("[Exports] monthly count lookup failed for user %d: %v", userID, err)
		return restrictedQuota(limit, watermark)
	}
	tokens, err := s.repo.SumRemainingTokens(userID, now)
	if err != nil {
		log.Errorf("[Exports] token balance lookup failed for user %d: %v", userID, err)
		return restrictedQuota(limit, watermark)
	}

	return buildQuota(limit, int(used), tokens, watermark)
}

// Consume runs one export attempt. The availability check and the capacity
// write happen under a per-user lock so two concurrent attempts cannot both
// take the last unit. When the store cannot be read or written the attempt
// is refused with zero availability instead of surfacing the raw error.
func (s *Service) Consume(ctx context.Context, userID uint, plan entitlements.Plan, planKnown, isTrial bool) Decision {
	_ = ctx
	limit, watermark := entitlements.ExportLimit(plan, planKnown, isTrial)
	now := time.Now()

	// Unlimited plans never touch counters. The export row is history only
	// and a failed history write does not block the export.
	if limit == entitlements.UnlimitedExports {
		export := newExportRecord(userID, now, false, false)
		if err := s.repo.CreateExport(export); err != nil {
			log.Errorf("[Exports] history write failed for user %d: %v", userID, err)
		}
		return Decision{
			Allowed: true,
			Quota:   Quota{Limit: limit, Unlimited: true},
		}
	}

	var decision Decision
	err := s.repo.WithUserLock(userID, func(repo Repository) error {
		used, err := repo.CountExportsForMonth(userID, models.MonthYearKey(now))
		if err != nil {
			return err
		}
		tokens, err := repo.SumRemainingTokens(userID, now)
		if err != nil {
			return err
		}

		quota := buildQuota(limit, int(used), tokens, watermark)

		// Monthly allotment first.
		if quota.Remaining > 0 {
			export := newExportRecord(userID, now, watermark, false)
			if err := repo.CreateExport(export); err != nil {
				return err
			}
			quota.Used++
			quota.Remaining--
			quota.TotalAvailable--
			decision = Decision{Allowed: true, HasWatermark: watermark, Quota: quota}
			return nil
		}

		// Token fallback, oldest pack first. A token-funded export is
		// always clean since the purchase itself was a paid action.
		if quota.PurchasedTokens > 0 {
			consumed, err := repo.ConsumeOldestToken(userID, now)
			if err != nil {
				return err
			}
			if consumed {
				export := newExportRecord(userID, now, false, true)
				if err := repo.CreateExport(export); err != nil {
					return err
				}
				quota.PurchasedTokens--
				quota.TotalAvailable--
				decision = Decision{Allowed: true, TokenFunded: true, Quota: quota}
				return nil
			}
		}

		decision = Decision{Allowed: false, HasWatermark: watermark, Reason: RefusalReason, Quota: quota}
		return nil
	})
	if err != nil {
		log.Errorf("[Exports] export attempt failed for user %d: %v", userID, err)
		return Decision{
			Allowed:      false,
			HasWatermark: watermark,
			Reason:       unavailableReason,
			Quota:        restrictedQuota(limit, watermark),
		}
	}
	return decision
}

// RecordTokenPurchase fulfils a paid token pack with the standard expiry.
func (s *Service) RecordTokenPurchase(ctx context.Context, userID uint, tokens int, amountCents int64, paymentIntentID string) (*models.TokenPurchase, error) {
	_ = ctx
	if userID == 0 || tokens <= 0 {
		return nil, errors.New("user_id and a positive token count are required")
	}
	purchase := models.NewTokenPurchase(userID, tokens, amountCents, paymentIntentID)
	if err := s.repo.CreateTokenPurchase(purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// History returns a user's most recent exports.
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]models.PdfExport, error) {
	_ = ctx
	return s.repo.ListExportHistory(userID, limit)
}

// TokenPurchases returns a user's token packs, newest first.
func (s *Service) TokenPurchases(ctx context.Context, userID uint) ([]models.TokenPurchase, error) {
	_ = ctx
	return s.repo.ListTokenPurchases(userID)
}

func newExportRecord(userID uint, now time.Time, watermark, tokenFunded bool) *models.PdfExport {
	return &models.PdfExport{
		UUID:         uuid.New().String(),
		UserID:       userID,
		MonthYear:    models.MonthYearKey(now),
		HasWatermark: watermark,
		TokenFunded:  tokenFunded,
	}
}

func buildQuota(limit, used, tokens int, watermark bool) Quota {
	if used < 0 || tokens < 0 {
		// Negative counters are a data bug. Report empty availability
		// instead of propagating nonsense.
		log.Errorf("[Exports] negative counter observed (used=%d tokens=%d)", used, tokens)
		return restrictedQuota(limit, watermark)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Quota{
		Limit:           limit,
		Used:            used,
		Remaining:       remaining,
		PurchasedTokens: tokens,
		TotalAvailable:  remaining + tokens,
		HasWatermark:    watermark,
	}
}

func restrictedQuota(limit int, watermark bool) Quota {
	return Quota{Limit: limit, Used: limit, HasWatermark: watermark}
}
