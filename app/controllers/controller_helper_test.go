package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
)

func TestSplitDisplayName(t *testing.T) {
	cases := []struct {
		in    string
		first string
		last  string
	}{
		{"", "User", "User"},
		{"   ", "User", "User"},
		{"Cher", "Cher", "Cher"},
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Juan Ponce de León", "Juan", "Ponce de León"},
	}
	for _, tc := range cases {
		first, last := splitDisplayName(tc.in)
		assert.Equal(t, tc.first, first, "input %q", tc.in)
		assert.Equal(t, tc.last, last, "input %q", tc.in)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", "   "))
}

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	got := formatTimePtr(&ts)
	assert.Equal(t, "2026-03-14T08:26:53Z", got)
}

func TestJSONErrorShape(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return jsonError(c, fiber.StatusPaymentRequired, "export_limit_reached", "No exports left this month")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "export_limit_reached", payload["error"])
	assert.Equal(t, "No exports left this month", payload["message"])
}

func TestApplyPlanGrant(t *testing.T) {
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	snapshotOf := func(s *models.UserSettings) entitlements.Snapshot {
		return entitlements.Snapshot{
			LoggedIn:        true,
			Plan:            s.Plan,
			Status:          s.SubscriptionStatus,
			GraceExpiresAt:  s.GraceExpiresAt,
			TrialStartedAt:  s.TrialStartedAt,
			TrialUpgradedAt: s.TrialUpgradedAt,
		}
	}

	t.Run("account that never started a trial", func(t *testing.T) {
		settings := &models.UserSettings{}
		applyPlanGrant(settings, string(entitlements.PlanPremium), now)

		require.NotNil(t, settings.TrialUpgradedAt)
		assert.Equal(t, models.SubscriptionStatusActive, settings.SubscriptionStatus)

		snap := snapshotOf(settings)
		assert.False(t, snap.IsTrial())
		assert.True(t, snap.CanAccessSection(now, entitlements.SectionID(10)))
		assert.True(t, snap.CanUploadInSection(now, entitlements.SectionID(16)))
	})

	t.Run("account mid trial", func(t *testing.T) {
		started := now.Add(-3 * 24 * time.Hour)
		settings := &models.UserSettings{TrialStartedAt: &started}
		applyPlanGrant(settings, string(entitlements.PlanStandard), now)

		snap := snapshotOf(settings)
		assert.False(t, snap.IsTrial())
		assert.True(t, snap.CanAccessSection(now, entitlements.SectionID(10)))
	})

	t.Run("existing upgrade stamp is preserved", func(t *testing.T) {
		upgraded := now.Add(-30 * 24 * time.Hour)
		settings := &models.UserSettings{TrialUpgradedAt: &upgraded}
		applyPlanGrant(settings, string(entitlements.PlanLifetime), now)

		require.NotNil(t, settings.TrialUpgradedAt)
		assert.Equal(t, upgraded, *settings.TrialUpgradedAt)
	})
}

func TestTrialStatusMap(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active trial", func(t *testing.T) {
		started := now.Add(-2 * 24 * time.Hour)
		settings := &models.UserSettings{TrialStartedAt: &started}

		m := trialStatusMap(settings, now)
		assert.Equal(t, true, m["active"])
		assert.Equal(t, false, m["upgraded"])
		assert.Equal(t, 5, m["days_left"])
		assert.Equal(t, false, m["expired"])
		assert.Equal(t, started.UTC().Format(time.RFC3339), m["started_at"])
	})

	t.Run("expired trial", func(t *testing.T) {
		started := now.Add(-10 * 24 * time.Hour)
		settings := &models.UserSettings{TrialStartedAt: &started}

		m := trialStatusMap(settings, now)
		assert.Equal(t, 0, m["days_left"])
		assert.Equal(t, true, m["expired"])
	})

	t.Run("upgraded account", func(t *testing.T) {
		started := now.Add(-3 * 24 * time.Hour)
		upgraded := now.Add(-24 * time.Hour)
		settings := &models.UserSettings{
			Plan:               string(entitlements.PlanLifetime),
			SubscriptionStatus: models.BillingStatusActive,
			TrialStartedAt:     &started,
			TrialUpgradedAt:    &upgraded,
		}

		m := trialStatusMap(settings, now)
		assert.Equal(t, false, m["active"])
		assert.Equal(t, true, m["upgraded"])
		assert.Equal(t, 0, m["days_left"])
		assert.Equal(t, false, m["expired"])
	})
}
