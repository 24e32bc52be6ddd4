package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleListSections returns every binder section with the caller's access
// and upload flags, so the client can grey out locked sections.
func HandleListSections(c *fiber.Ctx) error {
	snap := usercontext.GetSnapshot(c)
	now := time.Now()

	answered := map[int]bool{}
	if snap.LoggedIn {
		answers, err := repository.GetGlobalFactory().GetAnswerRepository().ListByUser(usercontext.GetUserID(c))
		if err == nil {
			for _, a := range answers {
				answered[a.SectionID] = true
			}
		}
	}

	sections := make([]fiber.Map, 0, len(entitlements.AllSections()))
	for _, s := range entitlements.AllSections() {
		sections = append(sections, fiber.Map{
			"id":         int(s),
			"title":      s.Title(),
			"accessible": snap.CanAccessSection(now, s),
			"can_upload": snap.CanUploadInSection(now, s),
			"answered":   answered[int(s)],
		})
	}

	return c.JSON(fiber.Map{
		"sections":        sections,
		"trial":           snap.IsTrial(),
		"trial_days_left": snap.TrialDaysLeft(now),
	})
}

// HandleGetSectionAnswer returns the caller's saved answers for one section.
func HandleGetSectionAnswer(c *fiber.Ctx) error {
	section, ok := entitlements.ParseSectionID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_section", "Unknown section")
	}

	snap := usercontext.GetSnapshot(c)
	if !snap.CanAccessSection(time.Now(), section) {
		return jsonError(c, fiber.StatusForbidden, "section_locked", "Your plan does not include this section")
	}

	answer, err := repository.GetGlobalFactory().GetAnswerRepository().
		GetByUserAndSection(usercontext.GetUserID(c), int(section))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{
				"section_id": int(section),
				"title":      section.Title(),
				"data":       json.RawMessage("{}"),
			})
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load answers")
	}

	return c.JSON(fiber.Map{
		"section_id": answer.SectionID,
		"title":      section.Title(),
		"data":       json.RawMessage(answer.DataJSON),
		"updated_at": answer.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// HandleSaveSectionAnswer upserts the caller's answers for one section. The
// body is the raw answer document produced by the wizard form.
func HandleSaveSectionAnswer(c *fiber.Ctx) error {
	section, ok := entitlements.ParseSectionID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_section", "Unknown section")
	}

	snap := usercontext.GetSnapshot(c)
	if !snap.CanAccessSection(time.Now(), section) {
		return jsonError(c, fiber.StatusForbidden, "section_locked", "Your plan does not include this section")
	}

	body := c.Body()
	if !json.Valid(body) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_json", "Answer payload must be a JSON document")
	}
	if len(body) > models.MaxAnswerJSONBytes {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "payload_too_large", "Answer payload is too large")
	}

	answer := &models.SectionAnswer{
		UserID:    usercontext.GetUserID(c),
		SectionID: int(section),
		DataJSON:  string(body),
	}
	if err := repository.GetGlobalFactory().GetAnswerRepository().Upsert(answer); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save answers")
	}

	return c.JSON(fiber.Map{
		"section_id": int(section),
		"saved":      true,
	})
}

// HandleDeleteSectionAnswer clears the caller's answers for one section.
func HandleDeleteSectionAnswer(c *fiber.Ctx) error {
	section, ok := entitlements.ParseSectionID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_section", "Unknown section")
	}

	snap := usercontext.GetSnapshot(c)
	if !snap.CanAccessSection(time.Now(), section) {
		return jsonError(c, fiber.StatusForbidden, "section_locked", "Your plan does not include this section")
	}

	err := repository.GetGlobalFactory().GetAnswerRepository().
		DeleteByUserAndSection(usercontext.GetUserID(c), int(section))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete answers")
	}

	return c.JSON(fiber.Map{
		"section_id": int(section),
		"deleted":    true,
	})
}
