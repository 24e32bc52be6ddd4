package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/exports"
	"github.com/SkillBinder/GrandFinale/internal/pkg/session"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
	"github.com/SkillBinder/GrandFinale/internal/pkg/utils"
)

// HandleUserAccount returns the caller's profile, plan and export capacity.
func HandleUserAccount(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Account not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	snap := usercontext.GetSnapshot(c)
	now := time.Now()
	plan, planKnown := entitlements.ParsePlan(snap.Plan)
	quota := exports.NewServiceFromDB(database.GetDB()).Quota(c.Context(), userID, plan, planKnown, snap.IsTrial())

	answerCount, _ := repository.GetGlobalFactory().GetAnswerRepository().CountByUser(userID)
	storedBytes, _ := repository.GetGlobalFactory().GetAttachmentRepository().SumSizeByUser(userID)

	return c.JSON(fiber.Map{
		"id":           user.ID,
		"name":         user.FullName(),
		"email":        user.Email,
		"avatar_url":   utils.GetGravatarURL(user.Email, 200),
		"status":       user.Status,
		"is_admin":     user.Role == models.ROLE_ADMIN,
		"created_at":   user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login":   formatTimePtr(user.LastLoginAt),
		"plan":         settings.Plan,
		"subscription": settings.SubscriptionStatus,
		"trial": fiber.Map{
			"active":     snap.IsTrial(),
			"started_at": formatTimePtr(settings.TrialStartedAt),
			"days_left":  snap.TrialDaysLeft(now),
			"expired":    snap.TrialExpired(now),
		},
		"exports": quota,
		"stats": fiber.Map{
			"answered_sections": answerCount,
			"stored_bytes":      storedBytes,
		},
		"api_key": fiber.Map{
			"active":     settings.HasActiveAPIKey(),
			"prefix":     settings.APIKeyPrefix,
			"created_at": formatTimePtr(settings.APIKeyCreatedAt),
			"last_used":  formatTimePtr(settings.APIKeyLastUsedAt),
		},
	})
}

// HandleIssueAPIKey mints a fresh API key. The raw secret appears exactly
// once in this response; only its hash is stored.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to generate API key")
	}
	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store API key")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key":    rawKey,
		"prefix":     settings.APIKeyPrefix,
		"created_at": formatTimePtr(settings.APIKeyCreatedAt),
	})
}

// HandleRevokeAPIKey invalidates the stored key immediately.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	if !settings.HasActiveAPIKey() {
		return jsonError(c, fiber.StatusNotFound, "no_api_key", "No active API key to revoke")
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to revoke API key")
	}

	return c.JSON(fiber.Map{"revoked": true})
}

// HandleChangePassword verifies the current password before setting a new one.
func HandleChangePassword(c *fiber.Ctx) error {
	current := c.FormValue("current_password")
	newPassword := c.FormValue("new_password")
	if len(newPassword) < 8 {
		return jsonError(c, fiber.StatusBadRequest, "password_too_short", "Passwords must be at least 8 characters")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	if !user.CheckPassword(current) {
		return jsonError(c, fiber.StatusForbidden, "wrong_password", "Current password is incorrect")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update password")
	}
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update password")
	}

	return c.JSON(fiber.Map{"changed": true})
}

// HandleDeleteAccount soft-deletes the account and ends the session. Binder
// content rows stay behind the soft delete for the retention window.
func HandleDeleteAccount(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	if !user.CheckPassword(c.FormValue("password")) {
		return jsonError(c, fiber.StatusForbidden, "wrong_password", "Password confirmation failed")
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Delete(userID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete account")
	}
	log.Infof("account %d deleted on user request", userID)

	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}

	return c.JSON(fiber.Map{"deleted": true})
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
