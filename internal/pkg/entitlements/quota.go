package entitlements

// UnlimitedExports marks a plan without a monthly export cap.
const UnlimitedExports = -1

// ExportLimit returns the monthly PDF export allotment and whether those
// exports carry the preview watermark. Trial and unrecognized plans get the
// Lite allotment.
func ExportLimit(plan Plan, planKnown, isTrial bool) (limit int, watermark bool) {
	if isTrial || !planKnown {
		return 1, true
	}
	switch plan {
	case PlanStandard:
		return 3, false
	case PlanPremium, PlanLifetime:
		return UnlimitedExports, false
	default:
		return 1, true
	}
}
