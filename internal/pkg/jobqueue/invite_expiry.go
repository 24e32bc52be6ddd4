package jobqueue

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
)

// expireInvitesOnce flips all overdue pending couples invites to expired.
func (m *Manager) expireInvitesOnce() error {
	db := database.GetDB()

	result := db.Model(&models.CouplesInvite{}).
		Where("status = ? AND expires_at < ?", models.CouplesInvitePending, time.Now()).
		Update("status", models.CouplesInviteExpired)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Infof("[JobQueue Manager] Expired %d couples invites", result.RowsAffected)
	}
	return nil
}
