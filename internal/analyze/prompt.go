package analyze

import (
	"fmt"
	"strings"
)

const ChapterPrompt = `Analyze the following chapter of a technical system report. Return ONE JSON object with these fields:

- "system_metadata": object with any system identifiers found (system id, release, database, hosts); use null values where unknown
- "chapter_summary": 2-4 sentence summary of this chapter (string)
- "key_findings": array of finding objects, each with:
    - "id": local identifier within this chapter, "F1", "F2", ... (string)
    - "area": short area label, e.g. "Performance", "Security", "Stability", "Configuration" (string)
    - "severity": one of "low", "medium", "high", "critical"
    - "description": what the report says is wrong or at risk (string, max 300 chars)
    - "metric": the supporting measurement verbatim if one exists, else "" (string)
- "positive_findings": array of objects with "area" and "description" for things the report rates as healthy
- "recommendations": array of objects with:
    - "description": the recommended action (string)
    - "priority": one of "low", "medium", "high"
    - "finding_id": the local id of the finding this addresses, or "" (string)
- "chapter_risk": one of "low", "medium", "high", "critical" for this chapter alone
- "data_quality": one of "good", "fair", "poor" — how complete and reliable this chapter's underlying data appears

Rules:
- Only report what the chapter states; do not invent measurements
- Keep descriptions concrete and self-contained
- Use an empty array when a section has nothing to report
- Respond with ONLY the JSON object, no other text.`

// BuildChapterPrompt creates the full prompt for analyzing one chapter,
// including chapter identification context.
func BuildChapterPrompt(title string, ordinal int, text string) string {
	var sb strings.Builder
	sb.WriteString(ChapterPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Chapter %d: %q\n", ordinal+1, title))
	sb.WriteString("---\n")
	sb.WriteString(text)
	return sb.String()
}
