package entitlements

import (
	"testing"
	"time"
)

func paidSnapshot(plan Plan) Snapshot {
	started := time.Now().Add(-30 * 24 * time.Hour)
	upgraded := time.Now().Add(-20 * 24 * time.Hour)
	return Snapshot{
		LoggedIn:        true,
		Plan:            string(plan),
		Status:          StatusActive,
		TrialStartedAt:  &started,
		TrialUpgradedAt: &upgraded,
	}
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in    string
		want  Plan
		known bool
	}{
		{in: "lite", want: PlanLite, known: true},
		{in: "Standard", want: PlanStandard, known: true},
		{in: " premium ", want: PlanPremium, known: true},
		{in: "LIFETIME", want: PlanLifetime, known: true},
		{in: "", known: false},
		{in: "gold", known: false},
		{in: "free", known: false},
	}

	for _, tt := range tests {
		got, known := ParsePlan(tt.in)
		if known != tt.known || got != tt.want {
			t.Fatalf("ParsePlan(%q) = (%q, %v), want (%q, %v)", tt.in, got, known, tt.want, tt.known)
		}
	}
}

func TestUnknownPlanMatchesTrialAccess(t *testing.T) {
	// Fail closed: an unrecognized plan resolves exactly like a Lite trial.
	for _, section := range AllSections() {
		unknown := AllowSection("", false, false, section)
		trial := AllowSection(PlanLite, true, true, section)
		if unknown != trial {
			t.Fatalf("section %s: unknown-plan access %v != lite-trial access %v", section, unknown, trial)
		}
	}
}

func TestTrialOverridesPlan(t *testing.T) {
	for _, plan := range []Plan{PlanLite, PlanStandard, PlanPremium, PlanLifetime} {
		if AllowSection(plan, true, true, 10) {
			t.Fatalf("trial user on plan %s must not reach section 10", plan)
		}
	}
}

func TestTierAccessIsMonotonic(t *testing.T) {
	for _, section := range AllSections() {
		lite := AllowSection(PlanLite, true, false, section)
		standard := AllowSection(PlanStandard, true, false, section)
		premium := AllowSection(PlanPremium, true, false, section)
		lifetime := AllowSection(PlanLifetime, true, false, section)

		if lite && !standard {
			t.Fatalf("section %s: lite allowed but standard denied", section)
		}
		if standard && !premium {
			t.Fatalf("section %s: standard allowed but premium denied", section)
		}
		if premium != lifetime {
			t.Fatalf("section %s: premium %v != lifetime %v", section, premium, lifetime)
		}
	}
}

func TestUploadStricterThanView(t *testing.T) {
	plans := []Plan{PlanLite, PlanStandard, PlanPremium, PlanLifetime}
	for _, plan := range plans {
		for _, section := range AllSections() {
			if AllowUpload(plan, true, false, section) && !AllowSection(plan, true, false, section) {
				t.Fatalf("plan %s section %s: upload allowed without section access", plan, section)
			}
		}
	}

	// Standard views 12 and 16 but may not attach files there.
	for _, section := range []SectionID{SectionShortLetters, SectionFileUploads} {
		if !AllowSection(PlanStandard, true, false, section) {
			t.Fatalf("standard must view section %s", section)
		}
		if AllowUpload(PlanStandard, true, false, section) {
			t.Fatalf("standard must not upload in section %s", section)
		}
	}
	for _, section := range []SectionID{SectionShortLetters, SectionFileUploads} {
		if !AllowUpload(PlanPremium, true, false, section) {
			t.Fatalf("premium must upload in section %s", section)
		}
		if !AllowUpload(PlanLifetime, true, false, section) {
			t.Fatalf("lifetime must upload in section %s", section)
		}
	}
}

func TestAnonymousSeesIntroOnly(t *testing.T) {
	snap := Snapshot{}
	now := time.Now()
	for _, section := range AllSections() {
		got := snap.CanAccessSection(now, section)
		if want := section == SectionIntro; got != want {
			t.Fatalf("anonymous access to %s = %v, want %v", section, got, want)
		}
	}
}

func TestPastDueGraceCollapse(t *testing.T) {
	now := time.Now()
	snap := paidSnapshot(PlanLifetime)
	snap.Status = StatusPastDue

	expired := now.Add(-time.Hour)
	snap.GraceExpiresAt = &expired
	if snap.CanAccessSection(now, 5) {
		t.Fatal("expired grace must block section access regardless of plan")
	}
	if !snap.CanAccessSection(now, SectionIntro) {
		t.Fatal("intro stays reachable while blocked")
	}

	inGrace := now.Add(time.Hour)
	snap.GraceExpiresAt = &inGrace
	if !snap.CanAccessSection(now, 5) {
		t.Fatal("access must survive inside the grace window")
	}

	snap.GraceExpiresAt = nil
	if snap.CanAccessSection(now, 5) {
		t.Fatal("past_due without a grace expiry must fail closed")
	}
}

func TestExportLimitTable(t *testing.T) {
	tests := []struct {
		plan      Plan
		known     bool
		trial     bool
		limit     int
		watermark bool
	}{
		{plan: PlanLite, known: true, limit: 1, watermark: true},
		{plan: PlanStandard, known: true, limit: 3, watermark: false},
		{plan: PlanPremium, known: true, limit: UnlimitedExports, watermark: false},
		{plan: PlanLifetime, known: true, limit: UnlimitedExports, watermark: false},
		{plan: PlanPremium, known: true, trial: true, limit: 1, watermark: true},
		{plan: "", known: false, limit: 1, watermark: true},
	}

	for _, tt := range tests {
		limit, watermark := ExportLimit(tt.plan, tt.known, tt.trial)
		if limit != tt.limit || watermark != tt.watermark {
			t.Fatalf("ExportLimit(%q, known=%v, trial=%v) = (%d, %v), want (%d, %v)",
				tt.plan, tt.known, tt.trial, limit, watermark, tt.limit, tt.watermark)
		}
	}
}

func TestScenarioStandardViewsButCannotUploadLetters(t *testing.T) {
	snap := paidSnapshot(PlanStandard)
	now := time.Now()
	if !snap.CanAccessSection(now, SectionShortLetters) {
		t.Fatal("standard must access section 12")
	}
	if snap.CanUploadInSection(now, SectionShortLetters) {
		t.Fatal("standard must not upload in section 12")
	}
}

func TestTrialDaysLeft(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := TrialDaysLeft(nil, now); got != 0 {
		t.Fatalf("nil start: got %d days, want 0", got)
	}

	start := now.Add(-2*24*time.Hour - time.Hour)
	if got := TrialDaysLeft(&start, now); got != 5 {
		t.Fatalf("2 days elapsed: got %d days, want 5", got)
	}

	old := now.Add(-30 * 24 * time.Hour)
	if got := TrialDaysLeft(&old, now); got != 0 {
		t.Fatalf("expired trial: got %d days, want 0", got)
	}

	future := now.Add(time.Hour)
	if got := TrialDaysLeft(&future, now); got != 0 {
		t.Fatalf("future start: got %d days, want 0", got)
	}

	zero := time.Time{}
	if got := TrialDaysLeft(&zero, now); got != 0 {
		t.Fatalf("zero start: got %d days, want 0", got)
	}
}

func TestFutureTrialStartFailsClosed(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	snap := Snapshot{
		LoggedIn:       true,
		Status:         StatusActive,
		TrialStartedAt: &future,
	}

	if !snap.TrialExpired(now) {
		t.Fatal("future-dated trial start must count as expired")
	}
	if snap.CanAccessSection(now, SectionID(5)) {
		t.Fatal("future-dated trial start must not open gated sections")
	}
	if !snap.CanAccessSection(now, SectionIntro) {
		t.Fatal("intro section must stay readable")
	}
}

func TestUpgradeIsTerminal(t *testing.T) {
	now := time.Now()
	started := now.Add(-2 * 24 * time.Hour)
	upgraded := now.Add(-time.Hour)
	snap := Snapshot{
		LoggedIn:        true,
		Plan:            string(PlanPremium),
		Status:          StatusActive,
		TrialStartedAt:  &started,
		TrialUpgradedAt: &upgraded,
	}

	if snap.IsTrial() {
		t.Fatal("upgraded user still reports trial")
	}
	if snap.TrialExpired(now) {
		t.Fatal("upgraded user must not report an expired trial")
	}
	if snap.TrialDaysLeft(now) != 0 {
		t.Fatal("upgraded user must report zero trial days")
	}
	if !snap.CanAccessSection(now, 10) {
		t.Fatal("upgraded premium user must reach section 10")
	}
}

func TestExpiredTrialCollapsesToIntro(t *testing.T) {
	now := time.Now()
	started := now.Add(-10 * 24 * time.Hour)
	snap := Snapshot{LoggedIn: true, Status: StatusActive, TrialStartedAt: &started}

	if snap.CanAccessSection(now, 1) {
		t.Fatal("expired trial must not access section 1")
	}
	if !snap.CanAccessSection(now, SectionIntro) {
		t.Fatal("expired trial keeps the intro")
	}
}

func TestParseSectionID(t *testing.T) {
	tests := []struct {
		in   string
		want SectionID
		ok   bool
	}{
		{in: "intro", want: SectionIntro, ok: true},
		{in: "conclusion", want: SectionConclusion, ok: true},
		{in: "1", want: 1, ok: true},
		{in: "16", want: 16, ok: true},
		{in: "0", ok: false},
		{in: "17", ok: false},
		{in: "letters", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseSectionID(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("ParseSectionID(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
