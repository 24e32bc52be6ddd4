package billing

import "testing"

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "lite", want: "lite"},
		{in: "standard", want: "standard"},
		{in: "premium", want: "premium"},
		{in: "LIFETIME", want: "lifetime"},
		{in: " Premium ", want: "premium"},
		{in: "invalid", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := normalizePlan(tt.in); got != tt.want {
			t.Fatalf("normalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if planRank("lite") >= planRank("standard") {
		t.Fatalf("expected standard to outrank lite")
	}
	if planRank("standard") >= planRank("premium") {
		t.Fatalf("expected premium to outrank standard")
	}
	if planRank("premium") >= planRank("lifetime") {
		t.Fatalf("expected lifetime to outrank premium")
	}
	if planRank("unknown") != 0 {
		t.Fatalf("unmapped plans must rank lowest")
	}
}

func TestNormalizeInterval(t *testing.T) {
	for in, want := range map[string]string{
		"month":   "month",
		"year":    "year",
		"once":    "once",
		"weekly":  "unknown",
		"":        "unknown",
		" MONTH ": "month",
	} {
		if got := normalizeInterval(in); got != want {
			t.Fatalf("normalizeInterval(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsEntitlingStatus(t *testing.T) {
	for _, status := range []string{"active", "trialing", "past_due"} {
		if !isEntitlingStatus(status) {
			t.Fatalf("expected status %q to be entitling", status)
		}
	}
	for _, status := range []string{"canceled", "incomplete", "unpaid", ""} {
		if isEntitlingStatus(status) {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}
