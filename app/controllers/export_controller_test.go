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

	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// A lapsed past-due account must get the same account_blocked refusal from
// the quota endpoint as from the export endpoint. Reporting remaining
// capacity to a caller the export handler would turn away is a lie.
func TestHandleExportQuotaBlockedAccount(t *testing.T) {
	lapsed := time.Now().Add(-24 * time.Hour)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			UserID:     42,
			IsLoggedIn: true,
			Plan:       string(entitlements.PlanStandard),
			Snapshot: entitlements.Snapshot{
				LoggedIn:       true,
				Plan:           string(entitlements.PlanStandard),
				Status:         entitlements.StatusPastDue,
				GraceExpiresAt: &lapsed,
			},
		})
		return c.Next()
	})
	app.Get("/api/v1/exports/quota", HandleExportQuota)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/exports/quota", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "account_blocked", payload["error"])
	assert.Equal(t, "Your subscription is inactive", payload["message"])
}
