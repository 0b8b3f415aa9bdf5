package merge

import (
	"fmt"
	"sort"
	"strings"
)

// Summary holds the deterministic roll-ups derived from the merged
// finding set. No model call is involved.
type Summary struct {
	HealthOverview   map[string]string `json:"health_overview"`
	ExecutiveSummary string            `json:"executive_summary"`
	CapacityOutlook  map[string]string `json:"capacity_outlook"`
	OverallRisk      string            `json:"overall_risk"`
}

// HealthAreas is the fixed set of rated areas with the keywords that
// map a finding's area text onto each.
var HealthAreas = []struct {
	Name     string
	Keywords []string
}{
	{"performance", []string{"performance", "response", "latency", "throughput", "workload"}},
	{"security", []string{"security", "auth", "vulnerab", "patch", "password"}},
	{"stability", []string{"stability", "availability", "dump", "crash", "outage"}},
	{"configuration", []string{"configuration", "parameter", "setting", "tuning"}},
}

var capacityGroups = []struct {
	Name     string
	Keywords []string
}{
	{"database_growth", []string{"database", "db size", "growth", "tablespace"}},
	{"cpu", []string{"cpu", "processor"}},
	{"memory", []string{"memory", "ram", "swap"}},
}

// CapacityPlaceholder is used when a capacity group has no matching
// metric text in any finding.
const CapacityPlaceholder = "data to be reviewed"

// DeriveSummary computes the health overview, executive summary,
// capacity outlook and overall risk from the merged lists.
func DeriveSummary(findings, positives, recommendations []map[string]any) Summary {
	return Summary{
		HealthOverview:   deriveHealthOverview(findings),
		ExecutiveSummary: deriveExecutiveSummary(findings, positives, recommendations),
		CapacityOutlook:  deriveCapacityOutlook(findings),
		OverallRisk:      DeriveOverallRisk(findings),
	}
}

// deriveHealthOverview rates each fixed health area from the
// severities of findings whose area text matches the area's keywords.
// An area with zero matching findings rates "good".
func deriveHealthOverview(findings []map[string]any) map[string]string {
	overview := make(map[string]string, len(HealthAreas))
	for _, area := range HealthAreas {
		var critical, high, medium int
		for _, f := range findings {
			if !matchesAny(stringAt(f, "area"), area.Keywords) {
				continue
			}
			switch strings.ToLower(stringAt(f, "severity")) {
			case "critical":
				critical++
			case "high":
				high++
			case "medium":
				medium++
			}
		}
		switch {
		case critical > 0 || high >= 2:
			overview[area.Name] = "poor"
		case high >= 1 || medium >= 3:
			overview[area.Name] = "fair"
		default:
			overview[area.Name] = "good"
		}
	}
	return overview
}

// deriveExecutiveSummary builds the fixed-order bullet list. A bullet
// is omitted when its count is zero, except the recommendation count,
// which is always present.
func deriveExecutiveSummary(findings, positives, recommendations []map[string]any) string {
	var critical, high int
	for _, f := range findings {
		switch strings.ToLower(stringAt(f, "severity")) {
		case "critical":
			critical++
		case "high":
			high++
		}
	}

	var bullets []string
	if critical > 0 {
		bullets = append(bullets, fmt.Sprintf("%d critical findings require immediate attention", critical))
	}
	if high > 0 {
		bullets = append(bullets, fmt.Sprintf("%d high-severity findings identified", high))
	}
	if top := topFindingAreas(findings, 3); top != "" {
		bullets = append(bullets, "Most affected areas: "+top)
	}
	if len(positives) > 0 {
		bullets = append(bullets, fmt.Sprintf("%d areas are operating within expected parameters", len(positives)))
	}
	bullets = append(bullets, fmt.Sprintf("%d recommendations issued", len(recommendations)))

	for i, b := range bullets {
		bullets[i] = "- " + b
	}
	return strings.Join(bullets, "\n")
}

// topFindingAreas returns up to n areas by finding frequency,
// comma-joined with counts. Ties break alphabetically so the output is
// deterministic.
func topFindingAreas(findings []map[string]any, n int) string {
	counts := make(map[string]int)
	for _, f := range findings {
		area := strings.TrimSpace(stringAt(f, "area"))
		if area == "" {
			continue
		}
		counts[area]++
	}
	if len(counts) == 0 {
		return ""
	}

	areas := make([]string, 0, len(counts))
	for a := range counts {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool {
		if counts[areas[i]] != counts[areas[j]] {
			return counts[areas[i]] > counts[areas[j]]
		}
		return areas[i] < areas[j]
	})
	if len(areas) > n {
		areas = areas[:n]
	}

	parts := make([]string, 0, len(areas))
	for _, a := range areas {
		parts = append(parts, fmt.Sprintf("%s (%d)", a, counts[a]))
	}
	return strings.Join(parts, ", ")
}

// deriveCapacityOutlook scans findings' metric text for each capacity
// keyword group and joins the matches per group.
func deriveCapacityOutlook(findings []map[string]any) map[string]string {
	outlook := make(map[string]string, len(capacityGroups))
	for _, group := range capacityGroups {
		var matches []string
		for _, f := range findings {
			metric := strings.TrimSpace(stringAt(f, "metric"))
			if metric == "" {
				continue
			}
			if matchesAny(metric, group.Keywords) || matchesAny(stringAt(f, "description"), group.Keywords) {
				matches = append(matches, metric)
			}
		}
		if len(matches) == 0 {
			outlook[group.Name] = CapacityPlaceholder
			continue
		}
		outlook[group.Name] = strings.Join(matches, "; ")
	}
	return outlook
}

// DeriveOverallRisk escalates through the fixed ladder: any critical
// finding, then ≥3 high, then ≥1 high or ≥5 medium, else low.
func DeriveOverallRisk(findings []map[string]any) string {
	var critical, high, medium int
	for _, f := range findings {
		switch strings.ToLower(stringAt(f, "severity")) {
		case "critical":
			critical++
		case "high":
			high++
		case "medium":
			medium++
		}
	}
	switch {
	case critical > 0:
		return "critical"
	case high >= 3:
		return "high"
	case high >= 1 || medium >= 5:
		return "medium"
	default:
		return "low"
	}
}

func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func stringAt(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
