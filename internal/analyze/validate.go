package analyze

import (
	"regexp"
	"strings"
)

var validSeverities = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"critical": true,
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// ValidFinding checks one finding item from a partial result. The item
// is kept only if it carries a usable description and a recognized
// severity; severities are lowercased in place.
func ValidFinding(item map[string]any) bool {
	if item == nil {
		return false
	}
	desc := strings.TrimSpace(stringField(item, "description"))
	if len(desc) < 3 || len(desc) > 500 {
		return false
	}
	if injectionPattern.MatchString(desc) {
		return false
	}
	sev := strings.ToLower(strings.TrimSpace(stringField(item, "severity")))
	if sev != "" {
		if !validSeverities[sev] {
			return false
		}
		item["severity"] = sev
	}
	return true
}

// ScrubPartial removes invalid items from the list fields of a chapter
// partial result. Fields it does not recognize are left untouched.
func ScrubPartial(partial map[string]any) {
	for _, field := range []string{"key_findings", "positive_findings", "recommendations"} {
		items, ok := partial[field].([]any)
		if !ok {
			continue
		}
		kept := make([]any, 0, len(items))
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if ValidFinding(item) {
				kept = append(kept, item)
			}
		}
		partial[field] = kept
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
