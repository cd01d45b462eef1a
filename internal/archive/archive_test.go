package archive

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	rec := New(db)
	if err := rec.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return rec
}

func TestRunLifecycle(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	started := time.Now().UTC()
	if err := rec.RecordRunStart(ctx, "run-1", "TCamera-0", true, 3, false, started); err != nil {
		t.Fatalf("RecordRunStart: %v", err)
	}
	if err := rec.RecordRunEnd(ctx, "run-1", 3, nil); err != nil {
		t.Fatalf("RecordRunEnd: %v", err)
	}

	runs, err := rec.ListRuns(ctx, "TCamera-0", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || !run.Finite || run.Count != 3 || run.StopOnOverflow {
		t.Errorf("run = %+v", run)
	}
	if run.Frames != 3 || run.Error != "" {
		t.Errorf("run outcome = %d frames, error %q", run.Frames, run.Error)
	}
	if run.FinishedAt == nil {
		t.Error("finished run has no finished_at")
	}
}

func TestRunEndRecordsError(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	if err := rec.RecordRunStart(ctx, "run-1", "TCamera-0", true, 5, true, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordRunEnd(ctx, "run-1", 2, errors.New("frame buffer overflow")); err != nil {
		t.Fatal(err)
	}

	runs, err := rec.ListRuns(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].Error != "frame buffer overflow" {
		t.Errorf("error = %q", runs[0].Error)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	if err := rec.RecordRunStart(ctx, "run-1", "TCamera-0", false, 0, false, time.Now()); err != nil {
		t.Fatal(err)
	}

	meta := map[string]string{"exposure_ms": "50"}
	captured := time.Now().UTC().Truncate(time.Millisecond)
	for i := uint64(0); i < 3; i++ {
		if err := rec.RecordFrame(ctx, "run-1", "TCamera-0", i, 10+i, 512, 512, 1, meta, captured); err != nil {
			t.Fatalf("RecordFrame %d: %v", i, err)
		}
	}

	frames, err := rec.ListFrames(ctx, "TCamera-0", 10)
	if err != nil {
		t.Fatalf("ListFrames: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}

	// Newest first.
	if frames[0].Index != 2 || frames[2].Index != 0 {
		t.Errorf("unexpected order: %d, %d, %d", frames[0].Index, frames[1].Index, frames[2].Index)
	}
	f := frames[0]
	if f.RunID != "run-1" || f.Cumulative != 12 || f.Width != 512 || f.BytesPerPixel != 1 {
		t.Errorf("frame = %+v", f)
	}
	if f.Metadata["exposure_ms"] != "50" {
		t.Errorf("metadata = %v", f.Metadata)
	}
}

func TestListFramesRequiresDevice(t *testing.T) {
	rec := newTestRecorder(t)
	if _, err := rec.ListFrames(context.Background(), "", 10); err == nil {
		t.Error("expected error for empty device")
	}
}

func TestPruneCascadesToFrames(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	if err := rec.RecordRunStart(ctx, "run-old", "TCamera-0", true, 1, false, old); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordFrame(ctx, "run-old", "TCamera-0", 0, 0, 512, 512, 1, nil, old); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordRunStart(ctx, "run-new", "TCamera-0", true, 1, false, time.Now()); err != nil {
		t.Fatal(err)
	}

	deleted, err := rec.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("pruned %d runs, want 1", deleted)
	}

	frames, err := rec.ListFrames(ctx, "TCamera-0", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Errorf("%d orphan frames survived the prune", len(frames))
	}

	if _, err := rec.Prune(ctx, 0); err == nil {
		t.Error("expected error for non-positive retention")
	}
}

func TestObserverRecordsEngineEvents(t *testing.T) {
	rec := newTestRecorder(t)
	obs := NewObserver(rec)

	run := acquisition.Run{
		ID:        "run-1",
		Device:    "TCamera-0",
		Finite:    true,
		Count:     2,
		StartedAt: time.Now().UTC(),
	}
	obs.AcquisitionStarted(run)
	obs.FrameEmitted(run, acquisition.Frame{
		Device: "TCamera-0", Index: 0, Cumulative: 0,
		Width: 512, Height: 512, BytesPerPixel: 1,
		CapturedAt: time.Now().UTC(),
	})
	obs.AcquisitionFinished(run, 1, nil)

	ctx := context.Background()
	runs, err := rec.ListRuns(ctx, "TCamera-0", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Frames != 1 {
		t.Fatalf("runs = %+v", runs)
	}
	frames, err := rec.ListFrames(ctx, "TCamera-0", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 archived frame, got %d", len(frames))
	}
}
