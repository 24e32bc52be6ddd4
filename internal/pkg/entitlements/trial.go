package entitlements

import "time"

// TrialDurationDays is the fixed length of the free trial.
const TrialDurationDays = 7

// TrialDaysLeft computes the remaining whole days of a trial window. A nil or
// zero start collapses to 0: a user we cannot date is expired, not unlimited.
// The same goes for a start in the future; a skewed clock must never widen
// the window.
func TrialDaysLeft(startedAt *time.Time, now time.Time) int {
	if startedAt == nil || startedAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(*startedAt)
	if elapsed < 0 {
		return 0
	}
	days := int(elapsed / (24 * time.Hour))
	left := TrialDurationDays - days
	if left < 0 {
		return 0
	}
	return left
}
