package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/exports"
	"github.com/SkillBinder/GrandFinale/internal/pkg/pdfgen"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleExportQuota reports the caller's remaining export capacity without
// consuming anything.
func HandleExportQuota(c *fiber.Ctx) error {
	snap := usercontext.GetSnapshot(c)
	if snap.Blocked(time.Now()) {
		return jsonError(c, fiber.StatusForbidden, "account_blocked", "Your subscription is inactive")
	}

	plan, planKnown := entitlements.ParsePlan(snap.Plan)
	quota := exports.NewServiceFromDB(database.GetDB()).
		Quota(c.Context(), usercontext.GetUserID(c), plan, planKnown, snap.IsTrial())
	return c.JSON(quota)
}

// HandleExportBinder consumes one export unit and streams the rendered PDF.
// A refusal carries the exact quota numbers so the client can show them.
func HandleExportBinder(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	snap := usercontext.GetSnapshot(c)
	now := time.Now()

	if snap.Blocked(now) {
		return jsonError(c, fiber.StatusForbidden, "account_blocked", "Your subscription is inactive")
	}

	plan, planKnown := entitlements.ParsePlan(snap.Plan)
	decision := exports.NewServiceFromDB(database.GetDB()).
		Consume(c.Context(), userID, plan, planKnown, snap.IsTrial())
	if !decision.Allowed {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "export_limit_reached",
			"message": decision.Reason,
			"quota":   decision.Quota,
		})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	answers, err := repository.GetGlobalFactory().GetAnswerRepository().ListByUser(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load binder content")
	}

	pdf, err := pdfgen.Render(
		pdfgen.Binder{OwnerName: user.FullName(), Answers: answers},
		pdfgen.Options{Watermark: decision.HasWatermark, GeneratedAt: now},
	)
	if err != nil {
		log.Errorf("binder render failed for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "render_failed", "Failed to render the binder")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("grand-finale-%s.pdf", now.Format("2006-01-02"))))
	return c.SendStream(bytes.NewReader(pdf), len(pdf))
}

// HandleExportHistory lists the caller's recent exports newest first.
func HandleExportHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	history, err := exports.NewServiceFromDB(database.GetDB()).
		History(c.Context(), usercontext.GetUserID(c), limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load export history")
	}

	items := make([]fiber.Map, 0, len(history))
	for _, e := range history {
		items = append(items, fiber.Map{
			"uuid":          e.UUID,
			"month":         e.MonthYear,
			"has_watermark": e.HasWatermark,
			"token_funded":  e.TokenFunded,
			"created_at":    e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"exports": items})
}
