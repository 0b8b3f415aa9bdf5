package merge

import (
	"strings"
	"testing"
)

func findingsWithSeverities(severities ...string) []map[string]any {
	out := make([]map[string]any, len(severities))
	for i, sev := range severities {
		out[i] = map[string]any{
			"area":        "Performance",
			"severity":    sev,
			"description": "finding",
		}
	}
	return out
}

func TestDeriveOverallRisk(t *testing.T) {
	tests := []struct {
		name       string
		severities []string
		want       string
	}{
		{"no findings", nil, "low"},
		{"only low", []string{"low", "low"}, "low"},
		{"four medium", []string{"medium", "medium", "medium", "medium"}, "low"},
		{"five medium", []string{"medium", "medium", "medium", "medium", "medium"}, "medium"},
		{"one high among medium", []string{"medium", "high", "medium"}, "medium"},
		{"two high", []string{"high", "high"}, "medium"},
		{"three high", []string{"medium", "high", "medium", "high", "high"}, "high"},
		{"critical dominates", []string{"low", "critical"}, "critical"},
		{"case insensitive", []string{"CRITICAL"}, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveOverallRisk(findingsWithSeverities(tt.severities...))
			if got != tt.want {
				t.Errorf("severities %v: expected %q, got %q", tt.severities, tt.want, got)
			}
		})
	}
}

func TestDeriveHealthOverview(t *testing.T) {
	findings := []map[string]any{
		{"area": "Security", "severity": "critical", "description": "default passwords"},
		{"area": "Performance", "severity": "medium", "description": "slow dialogs"},
		{"area": "Performance", "severity": "medium", "description": "long queues"},
		{"area": "Performance", "severity": "medium", "description": "high latency"},
		{"area": "Stability", "severity": "high", "description": "repeated dumps"},
		{"area": "Stability", "severity": "high", "description": "nightly crashes"},
	}

	overview := deriveHealthOverview(findings)

	if overview["security"] != "poor" {
		t.Errorf("security: expected poor (critical present), got %q", overview["security"])
	}
	if overview["performance"] != "fair" {
		t.Errorf("performance: expected fair (three medium), got %q", overview["performance"])
	}
	if overview["stability"] != "poor" {
		t.Errorf("stability: expected poor (two high), got %q", overview["stability"])
	}
	if overview["configuration"] != "good" {
		t.Errorf("configuration: expected good (no findings), got %q", overview["configuration"])
	}
}

func TestDeriveHealthOverview_EmptyFindings(t *testing.T) {
	overview := deriveHealthOverview(nil)
	for _, area := range HealthAreas {
		if overview[area.Name] != "good" {
			t.Errorf("area %s: expected good for empty findings, got %q", area.Name, overview[area.Name])
		}
	}
}

func TestDeriveExecutiveSummary(t *testing.T) {
	findings := []map[string]any{
		{"area": "Security", "severity": "critical", "description": "a"},
		{"area": "Security", "severity": "high", "description": "b"},
		{"area": "Performance", "severity": "high", "description": "c"},
	}
	positives := []map[string]any{
		{"area": "Backup", "description": "backups verified"},
	}
	recommendations := []map[string]any{
		{"description": "patch now"},
		{"description": "audit accounts"},
	}

	summary := deriveExecutiveSummary(findings, positives, recommendations)
	lines := strings.Split(summary, "\n")
	want := []string{
		"- 1 critical findings require immediate attention",
		"- 2 high-severity findings identified",
		"- Most affected areas: Security (2), Performance (1)",
		"- 1 areas are operating within expected parameters",
		"- 2 recommendations issued",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d bullets, got %d:\n%s", len(want), len(lines), summary)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("bullet %d:\n got: %q\nwant: %q", i, lines[i], w)
		}
	}
}

func TestDeriveExecutiveSummary_EmptyInputs(t *testing.T) {
	summary := deriveExecutiveSummary(nil, nil, nil)
	if summary != "- 0 recommendations issued" {
		t.Errorf("expected only the recommendations bullet, got %q", summary)
	}
}

func TestTopFindingAreas_TieBreaksAlphabetically(t *testing.T) {
	findings := []map[string]any{
		{"area": "Stability"},
		{"area": "Performance"},
		{"area": "Security"},
		{"area": "Security"},
	}
	got := topFindingAreas(findings, 2)
	if got != "Security (2), Performance (1)" {
		t.Errorf("unexpected top areas: %q", got)
	}
}

func TestDeriveCapacityOutlook(t *testing.T) {
	findings := []map[string]any{
		{
			"area":        "Performance",
			"severity":    "medium",
			"description": "database growth is accelerating",
			"metric":      "12 GB/month",
		},
		{
			"area":        "Performance",
			"severity":    "high",
			"description": "cpu utilization peaks during batch",
			"metric":      "95% cpu",
		},
		{
			"area":        "Stability",
			"severity":    "low",
			"description": "unrelated finding",
			"metric":      "",
		},
	}

	outlook := deriveCapacityOutlook(findings)

	if outlook["database_growth"] != "12 GB/month" {
		t.Errorf("database_growth: got %q", outlook["database_growth"])
	}
	if outlook["cpu"] != "95% cpu" {
		t.Errorf("cpu: got %q", outlook["cpu"])
	}
	if outlook["memory"] != CapacityPlaceholder {
		t.Errorf("memory: expected placeholder, got %q", outlook["memory"])
	}
}
