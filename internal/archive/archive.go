package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// schema creates the archive tables. Kept idempotent so startup can always
// run it.
const schema = `
CREATE TABLE IF NOT EXISTS acquisition_runs (
    id               TEXT PRIMARY KEY,
    device           TEXT NOT NULL,
    finite           INTEGER NOT NULL,
    frame_count      INTEGER NOT NULL,
    stop_on_overflow INTEGER NOT NULL,
    started_at       TEXT NOT NULL,
    finished_at      TEXT,
    frames           INTEGER NOT NULL DEFAULT 0,
    error            TEXT
);

CREATE TABLE IF NOT EXISTS frames (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES acquisition_runs(id) ON DELETE CASCADE,
    device      TEXT NOT NULL,
    frame_index INTEGER NOT NULL,
    cumulative  INTEGER NOT NULL,
    width       INTEGER NOT NULL,
    height      INTEGER NOT NULL,
    bytes_pp    INTEGER NOT NULL,
    metadata    TEXT,
    captured_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_frames_device ON frames(device, captured_at);
CREATE INDEX IF NOT EXISTS idx_runs_device ON acquisition_runs(device, started_at);
`

// Recorder persists runs and frame headers.
//
// All methods are safe for concurrent use; SQLite serializes writers.
type Recorder struct {
	db     *sql.DB
	logger Logger
}

// New creates a recorder on an open database.
func New(db *sql.DB) *Recorder {
	return &Recorder{db: db, logger: noopLogger{}}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// EnsureSchema creates the archive tables if they do not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating archive schema: %w", err)
	}
	return nil
}

// RunRecord is a stored acquisition run.
type RunRecord struct {
	ID             string     `json:"id"`
	Device         string     `json:"device"`
	Finite         bool       `json:"finite"`
	Count          uint64     `json:"count"`
	StopOnOverflow bool       `json:"stop_on_overflow"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Frames         uint64     `json:"frames"`
	Error          string     `json:"error,omitempty"`
}

// FrameRecord is a stored frame header.
type FrameRecord struct {
	ID            int64             `json:"id"`
	RunID         string            `json:"run_id"`
	Device        string            `json:"device"`
	Index         uint64            `json:"index"`
	Cumulative    uint64            `json:"cumulative"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	BytesPerPixel int               `json:"bytes_per_pixel"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CapturedAt    time.Time         `json:"captured_at"`
}

// RecordRunStart inserts a run row when an acquisition begins.
func (r *Recorder) RecordRunStart(ctx context.Context, id, device string, finite bool, count uint64, stopOnOverflow bool, startedAt time.Time) error {
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO acquisition_runs (id, device, finite, frame_count, stop_on_overflow, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, device, boolToInt(finite), int64(count), boolToInt(stopOnOverflow), //nolint:gosec
		startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// RecordRunEnd marks a run finished with its frame total and error, if any.
func (r *Recorder) RecordRunEnd(ctx context.Context, id string, frames uint64, runErr error) error {
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE acquisition_runs SET finished_at = ?, frames = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), int64(frames), errText, id, //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return nil
}

// RecordFrame inserts a frame header row.
func (r *Recorder) RecordFrame(ctx context.Context, runID, device string, index, cumulative uint64, width, height, bytesPerPixel int, metadata map[string]string, capturedAt time.Time) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	var metaJSON []byte
	if len(metadata) > 0 {
		var err error
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshalling frame metadata: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO frames (run_id, device, frame_index, cumulative, width, height, bytes_pp, metadata, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, device, int64(index), int64(cumulative), width, height, bytesPerPixel, //nolint:gosec
		string(metaJSON), capturedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting frame: %w", err)
	}
	return nil
}

// ListFrames returns recent frame headers for a device, newest first.
//
// limit defaults to 50 and is capped at 200.
func (r *Recorder) ListFrames(ctx context.Context, device string, limit int) ([]FrameRecord, error) {
	if device == "" {
		return nil, fmt.Errorf("device is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, device, frame_index, cumulative, width, height, bytes_pp, metadata, captured_at
		 FROM frames
		 WHERE device = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		device, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying frames: %w", err)
	}
	defer rows.Close()

	records := make([]FrameRecord, 0, limit)
	for rows.Next() {
		var rec FrameRecord
		var index, cumulative int64
		var metaJSON sql.NullString
		var capturedAt string

		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Device, &index, &cumulative,
			&rec.Width, &rec.Height, &rec.BytesPerPixel, &metaJSON, &capturedAt); err != nil {
			return nil, fmt.Errorf("scanning frame: %w", err)
		}
		rec.Index = uint64(index)           //nolint:gosec
		rec.Cumulative = uint64(cumulative) //nolint:gosec

		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling frame metadata: %w", err)
			}
		}

		ts, err := parseArchiveTimestamp(capturedAt)
		if err != nil {
			return nil, err
		}
		rec.CapturedAt = ts

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating frames: %w", err)
	}
	return records, nil
}

// ListRuns returns recent runs for a device, newest first. An empty device
// matches all devices.
func (r *Recorder) ListRuns(ctx context.Context, device string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT id, device, finite, frame_count, stop_on_overflow, started_at, finished_at, frames, error
	          FROM acquisition_runs`
	args := []any{}
	if device != "" {
		query += ` WHERE device = ?`
		args = append(args, device)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		var rec RunRecord
		var finite, stopOnOverflow int
		var count, frames int64
		var startedAt string
		var finishedAt, errText sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Device, &finite, &count, &stopOnOverflow,
			&startedAt, &finishedAt, &frames, &errText); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.Finite = finite != 0
		rec.StopOnOverflow = stopOnOverflow != 0
		rec.Count = uint64(count)   //nolint:gosec
		rec.Frames = uint64(frames) //nolint:gosec
		if errText.Valid {
			rec.Error = errText.String
		}

		ts, err := parseArchiveTimestamp(startedAt)
		if err != nil {
			return nil, err
		}
		rec.StartedAt = ts

		if finishedAt.Valid && finishedAt.String != "" {
			ts, err := parseArchiveTimestamp(finishedAt.String)
			if err != nil {
				return nil, err
			}
			rec.FinishedAt = &ts
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return records, nil
}

// Prune deletes runs (and their frames, via cascade) older than the given
// duration.
func (r *Recorder) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM acquisition_runs WHERE started_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}

func parseArchiveTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	return ts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
