package chunker

import (
	"strings"

	"github.com/dgallion1/reportgest/internal/report"
)

// Config controls segmentation behavior.
type Config struct {
	MinWords int // Chapters below this are dropped at detection, merged during optimization.
	MaxWords int // Chapters above this are split during optimization.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinWords: 50,
		MaxWords: 1500,
	}
}

// Segment splits raw report text into an ordered sequence of titled
// chapters, then rebalances chapter sizes against the configured bounds.
// Empty input yields an empty sequence.
func Segment(text string, cfg Config) []report.Chunk {
	if cfg.MinWords <= 0 {
		cfg.MinWords = 50
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 1500
	}
	if cfg.MaxWords < cfg.MinWords {
		cfg.MaxWords = cfg.MinWords
	}

	lines := splitLines(text)
	chunks := detectChapters(lines, cfg)
	chunks = optimizeSizes(chunks, lines, cfg)
	reindex(chunks)
	return chunks
}

// detectChapters scans line by line for chapter boundaries and closes
// a segment at each one. Content before the first boundary becomes an
// "Introduction" segment.
func detectChapters(lines []string, cfg Config) []report.Chunk {
	var chunks []report.Chunk
	title := "Introduction"
	start := 0

	flush := func(end int) {
		if end <= start {
			return
		}
		c := makeChunk(title, lines, start, end)
		// Too small to be meaningful on its own. Merging happens in
		// the optimization pass; detection just drops these.
		if c.WordCount >= cfg.MinWords {
			chunks = append(chunks, c)
		}
	}

	for i, line := range lines {
		t, ok := boundaryTitle(line)
		if !ok {
			continue
		}
		flush(i)
		title = t
		start = i
	}
	flush(len(lines))

	return chunks
}

// boundaryTitle reports whether a line starts a new chapter and, if so,
// the chapter title. Checked in priority order: structural heading
// markers, numbered sections, all-caps labels ending with a colon.
func boundaryTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}

	// Level 1-3 heading markers.
	for _, marker := range []string{"### ", "## ", "# "} {
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}

	// Numbered section: "1. Title", "2.3 Title", "4) Title".
	if t, ok := numberedSectionTitle(trimmed); ok {
		return t, true
	}

	// All-caps label line followed by a colon.
	if strings.HasSuffix(trimmed, ":") && isAllCapsLabel(strings.TrimSuffix(trimmed, ":")) {
		return strings.TrimSuffix(trimmed, ":"), true
	}

	return "", false
}

func numberedSectionTitle(line string) (string, bool) {
	i := 0
	digits := 0
	dotted := false
	for i < len(line) {
		c := line[i]
		if c >= '0' && c <= '9' {
			digits++
			i++
			continue
		}
		if (c == '.' || c == ')') && digits > 0 {
			i++
			// Dotted subsections like "2.3 Title" keep consuming digits.
			if c == '.' && i < len(line) && line[i] >= '0' && line[i] <= '9' {
				dotted = true
				digits = 0
				continue
			}
			break
		}
		// A dotted number may end at the space directly: "2.3 Title".
		// A bare number may not: "2024 was a good year" is prose.
		if c == ' ' && dotted && digits > 0 {
			break
		}
		return "", false
	}
	if digits == 0 || i >= len(line) || line[i] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(line[i:])
	if title == "" {
		return "", false
	}
	return title, true
}

// isAllCapsLabel reports whether s looks like "SYSTEM OVERVIEW" — at
// least two letters, all of them uppercase.
func isAllCapsLabel(s string) bool {
	s = strings.TrimSpace(s)
	letters := 0
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9', r == ' ', r == '-', r == '_', r == '/', r == '&':
			// allowed
		default:
			return false
		}
	}
	return letters >= 2
}

// optimizeSizes makes a left-to-right pass over the chapter sequence,
// splitting oversized chunks and merging undersized ones. Each split
// produces exactly two halves and the pass resumes at the first half,
// so a grossly oversized chapter keeps dividing until every piece fits
// (a single line can never split, whatever it weighs). Merging is not
// iterated: pathological inputs (three tiny consecutive chapters) may
// leave a chunk still under MinWords.
func optimizeSizes(chunks []report.Chunk, lines []string, cfg Config) []report.Chunk {
	work := append([]report.Chunk(nil), chunks...)
	var out []report.Chunk
	i := 0
	for i < len(work) {
		c := work[i]

		if c.WordCount > cfg.MaxWords && c.EndLine-c.StartLine > 1 {
			first, second := splitChunk(c, lines)
			tail := append([]report.Chunk{first, second}, work[i+1:]...)
			work = append(work[:i], tail...)
			continue
		}

		if c.WordCount < cfg.MinWords && i+1 < len(work) && work[i+1].WordCount < cfg.MaxWords {
			next := work[i+1]
			if c.WordCount+next.WordCount <= cfg.MaxWords && next.StartLine == c.EndLine {
				merged := makeChunk(c.Title+" / "+next.Title, lines, c.StartLine, next.EndLine)
				out = append(out, merged)
				i += 2
				continue
			}
		}

		out = append(out, c)
		i++
	}
	return out
}

// splitChunk divides an oversized chunk into exactly two at the
// boundary line nearest the midpoint, searching a ±10 line window.
// With no boundary in the window it splits at the midpoint itself.
func splitChunk(c report.Chunk, lines []string) (report.Chunk, report.Chunk) {
	mid := c.StartLine + (c.EndLine-c.StartLine)/2
	cut := -1

	const window = 10
	for offset := 0; offset <= window && cut < 0; offset++ {
		for _, cand := range []int{mid - offset, mid + offset} {
			if cand <= c.StartLine || cand >= c.EndLine {
				continue
			}
			if _, ok := boundaryTitle(lines[cand]); ok {
				cut = cand
				break
			}
		}
	}
	if cut < 0 {
		cut = mid
	}
	if cut <= c.StartLine {
		cut = c.StartLine + 1
	}
	if cut >= c.EndLine {
		cut = c.EndLine - 1
	}

	first := makeChunk(c.Title, lines, c.StartLine, cut)
	second := makeChunk(c.Title+" (continued)", lines, cut, c.EndLine)
	return first, second
}

func makeChunk(title string, lines []string, start, end int) report.Chunk {
	content := strings.Join(lines[start:end], "\n")
	c := report.Chunk{
		Title:     title,
		Content:   content,
		WordCount: len(strings.Fields(content)),
		StartLine: start,
		EndLine:   end,
	}
	tagContent(&c, lines[start:end])
	return c
}

func reindex(chunks []report.Chunk) {
	for i := range chunks {
		chunks[i].Ordinal = i
	}
}

func splitLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
