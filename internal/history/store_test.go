package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxlabs/vox-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	cfg := config.HistoryConfig{RetentionMode: "ephemeral"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.Append(context.Background(), Job{RequestID: "r1"}); err != nil {
		t.Fatalf("append in ephemeral mode: %v", err)
	}
	jobs, err := st.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list in ephemeral mode: %v", err)
	}
	if jobs != nil {
		t.Fatalf("expected no jobs in ephemeral mode, got %d", len(jobs))
	}
}

func TestAppendAndList(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Path: filepath.Join(tmp, "jobs.db"), RetentionMode: "persistent"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	job := Job{
		RequestID:  "req-123",
		Mode:       "gemini",
		Voice:      "Kore",
		TextChars:  42,
		AudioBytes: 96000,
		DurationMS: 2000,
	}
	if err := st.Append(context.Background(), job); err != nil {
		t.Fatalf("append job: %v", err)
	}
	if err := st.Append(context.Background(), Job{RequestID: "req-456", Mode: "gemini", ErrorKind: "quota"}); err != nil {
		t.Fatalf("append job: %v", err)
	}

	jobs, err := st.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].RequestID != "req-456" {
		t.Fatalf("expected newest first, got %q", jobs[0].RequestID)
	}
	if jobs[1].AudioBytes != 96000 || jobs[1].DurationMS != 2000 {
		t.Fatalf("unexpected job row: %+v", jobs[1])
	}
}

func TestPruneByDaysAndCount(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Path: filepath.Join(tmp, "jobs.db"), RetentionMode: "persistent", RetentionDays: 1, MaxJobs: 1}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	st.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := st.Append(context.Background(), Job{RequestID: "old"}); err != nil {
		t.Fatalf("append job: %v", err)
	}

	st.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := st.Append(context.Background(), Job{RequestID: "new"}); err != nil {
		t.Fatalf("append job: %v", err)
	}
	if err := st.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	jobs, err := st.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].RequestID != "new" {
		t.Fatalf("expected only the new job to survive, got %+v", jobs)
	}
}
