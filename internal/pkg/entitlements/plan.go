package entitlements

import "strings"

type Plan string

const (
	PlanLite     Plan = "lite"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
	PlanLifetime Plan = "lifetime"
)

// ParsePlan normalizes a stored plan string. The boolean reports whether the
// value names a known plan; callers must treat unknown values as the most
// restrictive access level, never as any paid tier.
func ParsePlan(plan string) (Plan, bool) {
	switch Plan(strings.ToLower(strings.TrimSpace(plan))) {
	case PlanLite:
		return PlanLite, true
	case PlanStandard:
		return PlanStandard, true
	case PlanPremium:
		return PlanPremium, true
	case PlanLifetime:
		return PlanLifetime, true
	default:
		return "", false
	}
}

// PlanRank orders plans for reconciliation when a user carries multiple
// subscription rows. Unknown plans rank below everything.
func PlanRank(plan Plan) int {
	switch plan {
	case PlanLifetime:
		return 4
	case PlanPremium:
		return 3
	case PlanStandard:
		return 2
	case PlanLite:
		return 1
	default:
		return 0
	}
}
