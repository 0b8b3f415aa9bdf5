package merge

import "github.com/dgallion1/reportgest/internal/report"

// EWAShape is the strategy table for the EWA-style final report.
// Fields the analyzer returns but the table does not list are dropped
// from the merged output.
func EWAShape() []FieldSpec {
	return []FieldSpec{
		{Name: "system_metadata", Strategy: FirstNonNull},
		{Name: "chapter_summary", Strategy: ConcatWithLabel},
		{Name: "data_quality", Strategy: WorstOfScale, Scale: HealthScale},
		{Name: "chapter_risk", Strategy: MaxOfScale, Scale: SeverityScale},
		{
			Name:         "key_findings",
			Strategy:     AppendRenumber,
			DedupKeys:    []string{"area", "description"},
			IDPrefix:     "KF-",
			IDWidth:      2,
			LocalIDField: "id",
		},
		{
			Name:      "positive_findings",
			Strategy:  AppendDedup,
			DedupKeys: []string{"area", "description"},
		},
		{
			Name:         "recommendations",
			Strategy:     AppendRemapRefs,
			DedupKeys:    []string{"description"},
			IDPrefix:     "REC-",
			IDWidth:      2,
			LocalIDField: "id",
			RefField:     "finding_id",
			RefTarget:    "key_findings",
		},
	}
}

// ConsolidateEWA merges chapter results with the EWA shape and attaches
// the derived summary fields.
func (m *Merger) ConsolidateEWA(results []report.ChapterResult) report.ConsolidatedRecord {
	rec := m.Merge(results, EWAShape())

	findings := ListField(rec, "key_findings")
	positives := ListField(rec, "positive_findings")
	recommendations := ListField(rec, "recommendations")

	summary := DeriveSummary(findings, positives, recommendations)
	rec.Fields["health_overview"] = summary.HealthOverview
	rec.Fields["executive_summary"] = summary.ExecutiveSummary
	rec.Fields["capacity_outlook"] = summary.CapacityOutlook
	rec.Fields["overall_risk"] = summary.OverallRisk

	return rec
}

// ListField reads a merged list field back out of a record.
func ListField(rec report.ConsolidatedRecord, name string) []map[string]any {
	items, _ := rec.Fields[name].([]map[string]any)
	return items
}
