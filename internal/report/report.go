package report

import "time"

// ChapterKey is the reserved sub-key the dispatcher injects into every
// successful partial result so the merger can trace provenance.
const ChapterKey = "_chapter"

// Chunk is one logical, titled chapter of a source report.
// Immutable once handed to the dispatcher.
type Chunk struct {
	Title      string // Chapter heading (or "Introduction")
	Ordinal    int    // Position in document order, contiguous from 0
	Content    string // Chapter text
	WordCount  int    // Derived from Content
	StartLine  int    // First line in the source line array (inclusive)
	EndLine    int    // Last line in the source line array (exclusive)
	HasTables  bool   // Contains pipe-delimited or ruled table rows
	HasMetrics bool   // Contains numeric values with unit tokens or metric labels
}

// ChapterResult is the settled outcome of analyzing one chunk.
// On success Partial is set and Err is empty; on failure the reverse.
type ChapterResult struct {
	Title   string         `json:"title"`
	Ordinal int            `json:"ordinal"`
	Success bool           `json:"success"`
	Partial map[string]any `json:"partial,omitempty"`
	Err     string         `json:"error,omitempty"`
	Elapsed time.Duration  `json:"elapsed_ns"`
	Usage   Usage          `json:"usage"`
}

// Usage is optional per-chapter analyzer telemetry.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// MergeMeta describes how a consolidated record was assembled.
type MergeMeta struct {
	TotalChapters int       `json:"total_chapters"`
	Succeeded     int       `json:"succeeded"`
	Failed        int       `json:"failed"`
	ChapterTitles []string  `json:"chapter_titles"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// ConsolidatedRecord is the single merged output. Field names are
// whatever the caller's shape table declares.
type ConsolidatedRecord struct {
	Fields map[string]any `json:"fields"`
	Meta   MergeMeta      `json:"meta"`
}
