package billing

import (
	"strings"

	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
)

func normalizePlan(plan string) string {
	p, ok := entitlements.ParsePlan(plan)
	if !ok {
		return ""
	}
	return string(p)
}

func planRank(plan string) int {
	p, ok := entitlements.ParsePlan(plan)
	if !ok {
		return 0
	}
	return entitlements.PlanRank(p)
}

func normalizeInterval(interval string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	switch i {
	case "month", "year", "once":
		return i
	default:
		return "unknown"
	}
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing", "past_due":
		return true
	default:
		return false
	}
}
