package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/reportgest/internal/chunker"
	"github.com/dgallion1/reportgest/internal/dispatch"
	"github.com/dgallion1/reportgest/internal/merge"
	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/recordstore"
)

// Worker processes a single report analysis job: parse, segment into
// chapters, fan out analysis, consolidate, store.
type Worker struct {
	dispatcher *dispatch.Dispatcher
	merger     *merge.Merger
	store      *recordstore.Client
	log        *slog.Logger
	chunkCfg   chunker.Config
	parserOpts parser.Options
}

func NewWorker(d *dispatch.Dispatcher, m *merge.Merger, store *recordstore.Client, log *slog.Logger, chunkCfg chunker.Config, parserOpts parser.Options) *Worker {
	return &Worker{
		dispatcher: d,
		merger:     m,
		store:      store,
		log:        log,
		chunkCfg:   chunkCfg,
		parserOpts: parserOpts,
	}
}

// Process runs the full analysis pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title == "" {
		job.Title = tree.Title
	}

	text := FlattenTree(tree)
	job.ContentHash = ContentHashHex([]byte(text))

	// Phase 1.5: Dedup check
	existingID, err := w.store.FindByHash(ctx, job.ContentHash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if existingID != "" {
		log.Info("duplicate report, skipping", "existing_record_id", existingID)
		job.SetRecordID(existingID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Segment into chapters
	job.SetStatus(StatusSegmenting, "segmenting")
	chunks := chunker.Segment(text, w.chunkCfg)
	job.SetTotalChapters(len(chunks))
	log.Info("segmented report", "chapters", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chapters produced")
		job.AddError("no analyzable content")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 3: Fan out per-chapter analysis. A failed chapter never
	// fails the batch; the dispatcher reports failures as data.
	job.SetStatus(StatusAnalyzing, "analyzing")
	results, rep := w.dispatcher.Dispatch(ctx, chunks)
	job.SetChapterProgress(rep.Succeeded, rep.Failed)
	for _, f := range rep.Failures {
		job.AddError(fmt.Sprintf("chapter %q: %s", f.Title, f.Message))
	}
	log.Info("analysis complete",
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"total_elapsed_ms", rep.TotalElapsed.Milliseconds(),
	)

	// Phase 4: Consolidate. With zero successes this still yields a
	// well-formed empty record.
	job.SetStatus(StatusMerging, "merging")
	rec := w.merger.ConsolidateEWA(results)
	job.SetMergeCounts(len(merge.ListField(rec, "key_findings")), len(merge.ListField(rec, "recommendations")))

	if rep.Succeeded == 0 {
		log.Error("all chapters failed")
		job.SetStatus(StatusFailed, "analyzing")
		return
	}

	// Phase 5: Store the consolidated record.
	job.SetStatus(StatusStoring, "storing")
	stored := &recordstore.StoredRecord{
		ID:          NewRecordID(),
		Filename:    job.Filename,
		Title:       job.Title,
		ContentHash: job.ContentHash,
		Record:      rec,
	}
	if err := w.store.PutRecord(ctx, stored); err != nil {
		log.Error("store failed", "record_id", stored.ID, "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	if err := w.store.PutHashIndex(ctx, job.ContentHash, stored.ID); err != nil {
		log.Warn("hash index write failed", "error", err)
	}
	job.SetRecordID(stored.ID)

	if rep.Failed > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}
