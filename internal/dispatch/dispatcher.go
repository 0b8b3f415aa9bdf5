// Package dispatch fans chapter analysis out to the external analyzer
// and joins the per-chapter outcomes back into input order.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/reportgest/internal/analyze"
	"github.com/dgallion1/reportgest/internal/report"
)

// Failure identifies one chapter whose analysis did not succeed.
type Failure struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Report aggregates a dispatch batch after all tasks have settled.
// Informational only; it never changes control flow.
type Report struct {
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	TotalElapsed time.Duration `json:"total_elapsed_ns"` // Sum across chapters, not wall clock.
	Failures     []Failure     `json:"failures,omitempty"`
}

// Dispatcher runs one analyzer call per chunk with bounded concurrency.
type Dispatcher struct {
	analyzer      analyze.Analyzer
	stats         *analyze.CallStats
	log           *slog.Logger
	maxConcurrent int
}

func NewDispatcher(analyzer analyze.Analyzer, stats *analyze.CallStats, log *slog.Logger, maxConcurrent int) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Dispatcher{
		analyzer:      analyzer,
		stats:         stats,
		log:           log,
		maxConcurrent: maxConcurrent,
	}
}

// Dispatch analyzes every chunk concurrently and waits for all calls to
// settle. Results come back in input chunk order regardless of
// completion order; a failed chapter never aborts its siblings, and the
// batch call itself never errors.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []report.Chunk) ([]report.ChapterResult, Report) {
	results := make([]report.ChapterResult, len(chunks))

	sem := make(chan struct{}, d.maxConcurrent)
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, chunk report.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = d.analyzeOne(ctx, chunk)
		}(i, chunk)
	}
	wg.Wait()

	// Counters are computed strictly after the join barrier.
	var rep Report
	for _, r := range results {
		rep.TotalElapsed += r.Elapsed
		if r.Success {
			rep.Succeeded++
		} else {
			rep.Failed++
			rep.Failures = append(rep.Failures, Failure{Title: r.Title, Message: r.Err})
		}
	}
	return results, rep
}

// analyzeOne runs a single chapter's analyzer call, retrying transient
// failures, and converts any error into a failed ChapterResult.
func (d *Dispatcher) analyzeOne(ctx context.Context, chunk report.Chunk) report.ChapterResult {
	start := time.Now()

	var partial map[string]any
	var usage report.Usage
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		partial, usage, lastErr = d.analyzer.AnalyzeChapter(ctx, chunk.Content, chunk.Title, chunk.Ordinal)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		if attempt == MaxRetries-1 {
			// Out of attempts; sleeping again would only delay the
			// failed result.
			break
		}
		d.log.Warn("retryable analysis error", "chapter", chunk.Title, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}

	elapsed := time.Since(start)
	if d.stats != nil {
		d.stats.Record(elapsed.Milliseconds(), usage.InputTokens, usage.OutputTokens)
	}

	if lastErr != nil {
		return report.ChapterResult{
			Title:   chunk.Title,
			Ordinal: chunk.Ordinal,
			Success: false,
			Err:     lastErr.Error(),
			Elapsed: elapsed,
			Usage:   usage,
		}
	}

	// Provenance for the merger, under the reserved sub-key.
	if partial == nil {
		partial = make(map[string]any)
	}
	partial[report.ChapterKey] = map[string]any{
		"title":       chunk.Title,
		"ordinal":     chunk.Ordinal,
		"has_tables":  chunk.HasTables,
		"has_metrics": chunk.HasMetrics,
	}

	return report.ChapterResult{
		Title:   chunk.Title,
		Ordinal: chunk.Ordinal,
		Success: true,
		Partial: partial,
		Elapsed: elapsed,
		Usage:   usage,
	}
}
