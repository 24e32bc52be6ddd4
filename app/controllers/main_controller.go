package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/SkillBinder/GrandFinale/internal/pkg/cache"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleHome renders the landing page.
func HandleHome(c *fiber.Ctx) error {
	if usercontext.IsLoggedIn(c) {
		return c.Redirect("/binder")
	}
	return c.Render("home", fiber.Map{
		"Title": "The Grand Finale",
		"Flash": flash.Get(c),
	})
}

// HandleBinderPage renders the wizard shell. Section state comes from the
// JSON API; the page only needs the catalog and the trial banner inputs.
func HandleBinderPage(c *fiber.Ctx) error {
	snap := usercontext.GetSnapshot(c)
	now := time.Now()

	type sectionView struct {
		ID         int
		Title      string
		Accessible bool
	}
	sections := make([]sectionView, 0, len(entitlements.AllSections()))
	for _, s := range entitlements.AllSections() {
		sections = append(sections, sectionView{
			ID:         int(s),
			Title:      s.Title(),
			Accessible: snap.CanAccessSection(now, s),
		})
	}

	return c.Render("binder", fiber.Map{
		"Title":         "Your binder",
		"Username":      usercontext.GetUsername(c),
		"Sections":      sections,
		"IsTrial":       snap.IsTrial(),
		"TrialDaysLeft": snap.TrialDaysLeft(now),
		"Flash":         flash.Get(c),
	})
}

// HandleHealth reports process and dependency liveness.
func HandleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbState := "ok"
	if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		dbState = "down"
		status = fiber.StatusServiceUnavailable
	}
	cacheState := "ok"
	if err := cache.GetClient().Ping(c.Context()).Err(); err != nil {
		cacheState = "down"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"database": dbState,
		"cache":    cacheState,
	})
}
