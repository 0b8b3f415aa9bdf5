// Package merge consolidates per-chapter partial results into one
// coherent record using a declarative per-field strategy table.
package merge

// Strategy names the rule for combining one field's values across
// chapters. The set is closed; shape tables are built once at startup.
type Strategy int

const (
	// FirstNonNull keeps the first chapter's non-empty value.
	FirstNonNull Strategy = iota
	// WorstOfScale maps values onto an ordinal scale and keeps the lowest.
	WorstOfScale
	// MaxOfScale maps values onto an ordinal scale and keeps the highest.
	MaxOfScale
	// ConcatWithLabel joins per-chapter text blocks, each prefixed by
	// its chapter title.
	ConcatWithLabel
	// AppendDedup unions list fields, de-duplicated by a composite key.
	AppendDedup
	// AppendRenumber is AppendDedup plus new sequential global
	// identifiers, retaining the old-to-new mapping.
	AppendRenumber
	// AppendRemapRefs is AppendRenumber plus rewriting of a
	// cross-reference field through another field's identifier map.
	AppendRemapRefs
)

// FieldSpec declares how one field of the target record shape is
// merged. Fields not listed in a shape table are dropped from the
// merged output; that is documented behavior, not a bug.
type FieldSpec struct {
	Name     string
	Strategy Strategy

	// Scale is the ordinal table for WorstOfScale / MaxOfScale.
	// Unmapped values are skipped, not treated as worst.
	Scale map[string]int

	// DedupKeys are the item sub-fields forming the composite
	// de-duplication key for the append strategies.
	DedupKeys []string

	// Renumbering: new ids are IDPrefix plus a zero-padded counter of
	// IDWidth digits, written into LocalIDField.
	IDPrefix     string
	IDWidth      int
	LocalIDField string

	// AppendRemapRefs: RefField on each item is rewritten through the
	// identifier map produced by RefTarget's renumbering pass.
	RefField  string
	RefTarget string
}

// SeverityScale orders finding severities for risk escalation.
var SeverityScale = map[string]int{
	"low":      1,
	"medium":   2,
	"high":     3,
	"critical": 4,
}

// HealthScale orders health ratings; lower is worse.
var HealthScale = map[string]int{
	"poor": 1,
	"fair": 2,
	"good": 3,
}
