package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/reportgest/internal/chunker"
	"github.com/dgallion1/reportgest/internal/dispatch"
	"github.com/dgallion1/reportgest/internal/merge"
	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/recordstore"
	"github.com/dgallion1/reportgest/internal/report"
)

const sampleReport = `OVERVIEW:
the system ran within expected limits during the review period

SECURITY:
several accounts still use default passwords and must be rotated
`

// fakeAnalyzer returns a canned partial per chapter, or an error for
// titles listed in fail.
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (f *fakeAnalyzer) AnalyzeChapter(ctx context.Context, text, title string, ordinal int) (map[string]any, report.Usage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[title] {
		return nil, report.Usage{}, errors.New("analysis refused")
	}
	return map[string]any{
		"chapter_summary": "summary of " + title,
		"chapter_risk":    "medium",
		"key_findings": []any{
			map[string]any{"id": "F1", "area": title, "severity": "medium", "description": "finding from " + title, "metric": ""},
		},
		"recommendations": []any{
			map[string]any{"description": "recommendation from " + title, "priority": "medium", "finding_id": "F1"},
		},
	}, report.Usage{InputTokens: 10, OutputTokens: 5}, nil
}

// fakeStore is an in-memory stand-in for the record archive API.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]json.RawMessage
	hashes  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]json.RawMessage),
		hashes:  make(map[string]string),
	}
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/records/by_hash/", func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/records/by_hash/")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			id, ok := f.hashes[hash]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"id": id})
		case http.MethodPut:
			var body struct {
				ID string `json:"id"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.hashes[hash] = body.ID
			w.WriteHeader(http.StatusCreated)
		}
	})
	mux.HandleFunc("/records/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/records/")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.records[id] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			rec, ok := f.records[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write(rec)
		}
	})
	return mux
}

func newTestWorker(t *testing.T, analyzer *fakeAnalyzer) (*Worker, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	srv := httptest.NewServer(fs.handler())
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatch.NewDispatcher(analyzer, nil, log, 2)
	w := NewWorker(d, merge.NewMerger(log), recordstore.NewClient(srv.URL, "test-key"), log, chunker.Config{MinWords: 3, MaxWords: 500}, parser.Options{})
	return w, fs
}

func newTestJob(filename string, data []byte) *Job {
	job := &Job{
		ID:        "job-1",
		Status:    StatusQueued,
		Filename:  filename,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData(data)
	return job
}

func TestWorker_ProcessCompletes(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	w, fs := newTestWorker(t, analyzer)

	job := newTestJob("report.txt", []byte(sampleReport))
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors: %v)", job.Status, job.Progress.Errors)
	}
	if job.RecordID == "" {
		t.Error("expected record id to be set")
	}
	if job.Progress.TotalChapters != 2 || job.Progress.ChaptersAnalyzed != 2 {
		t.Errorf("unexpected progress: %+v", job.Progress)
	}
	if job.Progress.KeyFindings != 2 || job.Progress.Recommendations != 2 {
		t.Errorf("unexpected merge counts: %+v", job.Progress)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	raw, ok := fs.records[job.RecordID]
	if !ok {
		t.Fatal("expected consolidated record to be stored")
	}
	var stored recordstore.StoredRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored record is not valid JSON: %v", err)
	}
	if stored.ContentHash != job.ContentHash {
		t.Errorf("stored hash %q != job hash %q", stored.ContentHash, job.ContentHash)
	}
	if stored.Record.Meta.Succeeded != 2 {
		t.Errorf("stored record meta: %+v", stored.Record.Meta)
	}
	if _, ok := fs.hashes[job.ContentHash]; !ok {
		t.Error("expected hash index entry to be written")
	}
}

func TestWorker_ProcessPartialFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{fail: map[string]bool{"SECURITY": true}}
	w, _ := newTestWorker(t, analyzer)

	job := newTestJob("report.txt", []byte(sampleReport))
	w.Process(context.Background(), job)

	if job.Status != StatusPartial {
		t.Fatalf("expected partial, got %s", job.Status)
	}
	if job.RecordID == "" {
		t.Error("expected record stored despite a failed chapter")
	}
	if job.Progress.ChaptersFailed != 1 {
		t.Errorf("unexpected progress: %+v", job.Progress)
	}
	if len(job.Progress.Errors) == 0 {
		t.Error("expected chapter failure recorded in job errors")
	}
}

func TestWorker_ProcessAllChaptersFail(t *testing.T) {
	analyzer := &fakeAnalyzer{fail: map[string]bool{"OVERVIEW": true, "SECURITY": true}}
	w, fs := newTestWorker(t, analyzer)

	job := newTestJob("report.txt", []byte(sampleReport))
	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.records) != 0 {
		t.Error("expected no record stored when every chapter fails")
	}
}

func TestWorker_ProcessDuplicateSkipped(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	w, fs := newTestWorker(t, analyzer)

	hash := ContentHashHex([]byte(flattenedSample(t)))
	fs.mu.Lock()
	fs.hashes[hash] = "existing-record"
	fs.mu.Unlock()

	job := newTestJob("report.txt", []byte(sampleReport))
	w.Process(context.Background(), job)

	if job.Status != StatusDupSkipped {
		t.Fatalf("expected duplicate_skipped, got %s", job.Status)
	}
	if job.RecordID != "existing-record" {
		t.Errorf("expected existing record id, got %q", job.RecordID)
	}
	if analyzer.calls != 0 {
		t.Errorf("expected no analyzer calls for a duplicate, got %d", analyzer.calls)
	}
}

func TestWorker_ProcessEmptyFile(t *testing.T) {
	w, _ := newTestWorker(t, &fakeAnalyzer{})

	job := newTestJob("report.txt", []byte("   \n\n  "))
	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected failed for empty content, got %s", job.Status)
	}
}

// flattenedSample reproduces the flattened text the worker hashes for
// the sample report, so the duplicate test can pre-seed the index.
func flattenedSample(t *testing.T) string {
	t.Helper()
	p, err := parser.ForFile("report.txt", parser.Options{})
	if err != nil {
		t.Fatalf("parser: %v", err)
	}
	tree, err := p.Parse(strings.NewReader(sampleReport), "report.txt")
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	return FlattenTree(tree)
}
