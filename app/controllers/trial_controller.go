package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleStartTrial stamps the trial start for the caller. Calling it again
// is a no-op that reports the original timestamps.
func HandleStartTrial(c *fiber.Ctx) error {
	if !models.GetAppSettings().TrialEnabled {
		return jsonError(c, fiber.StatusServiceUnavailable, "trial_disabled", "Trials are currently disabled")
	}

	userID := usercontext.GetUserID(c)
	settings, err := models.StartTrial(database.GetDB(), userID)
	if err != nil {
		log.Errorf("trial start failed for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to start trial")
	}
	if settings.TrialUpgradedAt != nil {
		return jsonError(c, fiber.StatusConflict, "already_upgraded", "This account already upgraded from its trial")
	}

	return c.Status(fiber.StatusCreated).JSON(trialStatusMap(settings, time.Now()))
}

// HandleTrialStatus reports where the caller stands in the trial lifecycle.
func HandleTrialStatus(c *fiber.Ctx) error {
	settings, err := models.GetOrCreateUserSettings(database.GetDB(), usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load trial state")
	}
	return c.JSON(trialStatusMap(settings, time.Now()))
}

func trialStatusMap(settings *models.UserSettings, now time.Time) fiber.Map {
	snap := entitlements.Snapshot{
		LoggedIn:        true,
		Plan:            settings.Plan,
		Status:          settings.SubscriptionStatus,
		GraceExpiresAt:  settings.GraceExpiresAt,
		TrialStartedAt:  settings.TrialStartedAt,
		TrialUpgradedAt: settings.TrialUpgradedAt,
	}
	return fiber.Map{
		"active":     snap.IsTrial(),
		"started_at": formatTimePtr(settings.TrialStartedAt),
		"upgraded":   settings.TrialUpgradedAt != nil,
		"days_left":  snap.TrialDaysLeft(now),
		"expired":    snap.TrialExpired(now),
	}
}
