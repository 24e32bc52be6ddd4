package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/statistics"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

const adminPageSize = 25

// HandleAdminDashboard summarizes the install: headline counters plus the
// signup curve of the past 30 days.
func HandleAdminDashboard(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()

	now := time.Now()
	daily, err := repository.GetGlobalFactory().GetUserRepository().
		GetDailyStats(now.AddDate(0, 0, -30), now)
	if err != nil {
		log.Errorf("daily stats lookup failed: %v", err)
		daily = []models.DailyStats{}
	}

	openSupport, _ := repository.GetGlobalFactory().GetRequestRepository().CountSupport(models.SupportStatusOpen)
	pendingNames, _ := repository.GetGlobalFactory().GetRequestRepository().CountNameChanges(models.RequestStatusPending)

	return c.JSON(fiber.Map{
		"total_users":          stats.TotalUsers,
		"month_exports":        stats.MonthExports,
		"active_trials":        stats.ActiveTrials,
		"open_support":         openSupport,
		"pending_name_changes": pendingNames,
		"daily_signups":        daily,
	})
}

// HandleAdminListUsers pages through accounts with binder progress numbers.
// A search query switches to plain matching without the progress join.
func HandleAdminListUsers(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	if query := strings.TrimSpace(c.Query("q")); query != "" {
		users, err := repo.Search(query)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Search failed")
		}
		items := make([]fiber.Map, 0, len(users))
		for i := range users {
			items = append(items, adminUserMap(&users[i], nil))
		}
		return c.JSON(fiber.Map{"users": items})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminPageSize

	rows, err := repo.GetWithProgress(offset, adminPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load users")
	}
	total, _ := repo.Count()

	items := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		items = append(items, adminUserMap(&rows[i].User, &rows[i]))
	}

	return c.JSON(fiber.Map{
		"users":     items,
		"page":      page,
		"page_size": adminPageSize,
		"total":     total,
	})
}

// HandleAdminGetUser returns one account with its settings row.
func HandleAdminGetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid user id")
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}
	settings, err := models.GetOrCreateUserSettings(database.GetDB(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	resp := adminUserMap(user, nil)
	resp["plan"] = settings.Plan
	resp["subscription"] = settings.SubscriptionStatus
	resp["trial_started_at"] = formatTimePtr(settings.TrialStartedAt)
	resp["trial_upgraded_at"] = formatTimePtr(settings.TrialUpgradedAt)
	return c.JSON(resp)
}

// HandleAdminSetUserPlan overrides an account's plan directly. This bypasses
// billing reconciliation, so it is logged with the acting admin.
func HandleAdminSetUserPlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid user id")
	}

	rawPlan := strings.TrimSpace(c.FormValue("plan"))
	if rawPlan != "" {
		if _, ok := entitlements.ParsePlan(rawPlan); !ok {
			return jsonError(c, fiber.StatusBadRequest, "unknown_plan", "Unknown plan tag")
		}
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	if rawPlan == "" {
		settings.Plan = ""
		settings.SubscriptionStatus = models.SubscriptionStatusInactive
	} else {
		applyPlanGrant(settings, rawPlan, time.Now())
	}
	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save plan")
	}

	log.Infof("admin %d set plan of user %d to %q", usercontext.GetUserID(c), id, rawPlan)
	return c.JSON(fiber.Map{"user_id": id, "plan": settings.Plan, "subscription": settings.SubscriptionStatus})
}

// HandleAdminSetUserStatus switches an account between active and disabled.
func HandleAdminSetUserStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid user id")
	}
	status := c.FormValue("status")
	if status != models.STATUS_ACTIVE && status != models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusBadRequest, "invalid_status", "Status must be active or disabled")
	}
	if uint(id) == usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusBadRequest, "self_change", "You cannot change your own status")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
	}
	user.Status = status
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save status")
	}

	log.Infof("admin %d set status of user %d to %s", usercontext.GetUserID(c), id, status)
	return c.JSON(fiber.Map{"user_id": id, "status": status})
}

// HandleAdminGetSettings returns the runtime application settings.
func HandleAdminGetSettings(c *fiber.Ctx) error {
	settings, err := repository.GetGlobalFactory().GetSettingRepository().Get()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load settings")
	}
	return c.JSON(settings)
}

// HandleAdminSaveSettings validates and persists runtime settings, then
// refreshes the in-memory copy.
func HandleAdminSaveSettings(c *fiber.Ctx) error {
	settings := models.GetAppSettings()
	updated := *settings

	updated.RegistrationEnabled = c.FormValue("registration_enabled") == "true"
	updated.TrialEnabled = c.FormValue("trial_enabled") == "true"
	updated.UploadEnabled = c.FormValue("upload_enabled") == "true"
	if v := c.FormValue("job_queue_workers"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			updated.JobQueueWorkers = workers
		}
	}

	if err := updated.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_settings", "Settings failed validation")
	}
	if err := repository.GetGlobalFactory().GetSettingRepository().Save(&updated); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save settings")
	}

	log.Infof("admin %d updated application settings", usercontext.GetUserID(c))
	return c.JSON(&updated)
}

func adminUserMap(user *models.User, progress *repository.UserWithProgress) fiber.Map {
	m := fiber.Map{
		"id":         user.ID,
		"name":       user.FullName(),
		"email":      user.Email,
		"role":       user.Role,
		"status":     user.Status,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login": formatTimePtr(user.LastLoginAt),
	}
	if progress != nil {
		m["answered_sections"] = progress.AnswerCount
		m["attachments"] = progress.AttachmentCount
		m["exports"] = progress.ExportCount
	}
	return m
}
