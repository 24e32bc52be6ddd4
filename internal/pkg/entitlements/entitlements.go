// Package entitlements is the single authoritative implementation of the
// tier/trial access policy. Every decision here is a pure function of the
// caller's subscription snapshot and the clock; controllers must never
// re-derive these rules inline.
package entitlements

import "time"

// Subscription status values mirrored from the billing tables.
const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusInactive = "inactive"
)

// Snapshot carries everything the policy needs to know about a user. It is
// assembled once per request by the usercontext middleware from the persisted
// settings row; absent or malformed fields resolve to the most restrictive
// outcome.
type Snapshot struct {
	LoggedIn        bool
	Plan            string
	Status          string
	GraceExpiresAt  *time.Time
	TrialStartedAt  *time.Time
	TrialUpgradedAt *time.Time
}

// isTrialSection reports membership in the reduced set available during
// trial, to Lite users, and to anyone whose plan tag we do not recognize.
func isTrialSection(s SectionID) bool {
	switch s {
	case SectionIntro, 1, 2, 3, SectionConclusion:
		return true
	default:
		return false
	}
}

// AllowSection is the pure section-access resolver: trial overrides plan,
// unknown plans collapse to the trial section set.
func AllowSection(plan Plan, planKnown, isTrial bool, section SectionID) bool {
	if !section.IsValid() {
		return false
	}
	if isTrial || !planKnown {
		return isTrialSection(section)
	}
	switch plan {
	case PlanLite:
		return isTrialSection(section)
	case PlanStandard, PlanPremium, PlanLifetime:
		return true
	default:
		return isTrialSection(section)
	}
}

// AllowUpload is the stricter file-upload resolver. Sections 12 and 16 need
// premium or lifetime; other sections allow uploads for any paid plan, but
// never during trial.
func AllowUpload(plan Plan, planKnown, isTrial bool, section SectionID) bool {
	if isTrial || !planKnown {
		return false
	}
	if !AllowSection(plan, planKnown, isTrial, section) {
		return false
	}
	if section == SectionShortLetters || section == SectionFileUploads {
		return plan == PlanPremium || plan == PlanLifetime
	}
	return true
}

// Blocked reports whether a past-due subscription has outlived its grace
// window. A past-due row without a grace expiry blocks immediately.
func (s Snapshot) Blocked(now time.Time) bool {
	if s.Status != StatusPastDue {
		return false
	}
	if s.GraceExpiresAt == nil {
		return true
	}
	return now.After(*s.GraceExpiresAt)
}

// IsTrial reports whether the user is still in the pre-purchase state. The
// upgrade timestamp is terminal: once set the trial flag never returns.
func (s Snapshot) IsTrial() bool {
	return s.TrialUpgradedAt == nil
}

// TrialDaysLeft derives the remaining trial days. Upgraded users report 0.
func (s Snapshot) TrialDaysLeft(now time.Time) int {
	if !s.IsTrial() {
		return 0
	}
	return TrialDaysLeft(s.TrialStartedAt, now)
}

// TrialExpired reports whether a trial user has run out the 7-day clock. A
// missing start timestamp counts as expired, never as an open-ended trial.
func (s Snapshot) TrialExpired(now time.Time) bool {
	if !s.IsTrial() {
		return false
	}
	return TrialDaysLeft(s.TrialStartedAt, now) == 0
}

// CanAccessSection is the request-level access decision: anonymous callers
// see the intro only, blocked subscriptions collapse to the intro, an expired
// trial keeps only the intro, and everything else defers to AllowSection.
func (s Snapshot) CanAccessSection(now time.Time, section SectionID) bool {
	if !s.LoggedIn {
		return section == SectionIntro
	}
	if s.Blocked(now) {
		return section == SectionIntro
	}
	isTrial := s.IsTrial()
	if isTrial && s.TrialExpired(now) {
		return section == SectionIntro
	}
	plan, known := ParsePlan(s.Plan)
	return AllowSection(plan, known, isTrial, section)
}

// CanUploadInSection is the request-level upload decision.
func (s Snapshot) CanUploadInSection(now time.Time, section SectionID) bool {
	if !s.LoggedIn || s.Blocked(now) {
		return false
	}
	isTrial := s.IsTrial()
	if isTrial && s.TrialExpired(now) {
		return false
	}
	plan, known := ParsePlan(s.Plan)
	return AllowUpload(plan, known, isTrial, section)
}

// ExportPolicy resolves the monthly export allotment for the snapshot.
func (s Snapshot) ExportPolicy() (limit int, watermark bool) {
	plan, known := ParsePlan(s.Plan)
	return ExportLimit(plan, known, s.IsTrial())
}

// CanGenerateCleanPDF reports whether exports are watermark-free by plan.
func (s Snapshot) CanGenerateCleanPDF() bool {
	_, watermark := s.ExportPolicy()
	return !watermark
}

// CanGenerateQR gates the shareable QR-code feature (standard and up).
func (s Snapshot) CanGenerateQR() bool {
	if s.IsTrial() {
		return false
	}
	plan, known := ParsePlan(s.Plan)
	return known && PlanRank(plan) >= PlanRank(PlanStandard)
}

// HasSecureBackup reports whether answers are included in the encrypted
// offsite backup (every paid tier, never trial).
func (s Snapshot) HasSecureBackup() bool {
	if s.IsTrial() {
		return false
	}
	_, known := ParsePlan(s.Plan)
	return known
}
