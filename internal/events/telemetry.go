package events

import (
	"time"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
	"github.com/nerrad567/scope-sim-core/internal/seqlog"
)

// MetricWriter is the telemetry surface Telemetry needs.
// Satisfied by *influxdb.Client.
type MetricWriter interface {
	WriteFrameMetric(device, runID string, index, cumulative uint64, payloadEntries int)
	WriteRunMetric(device, runID string, frames uint64, durationMs float64, failed bool)
}

// Telemetry writes frame and run metrics for each acquisition event.
type Telemetry struct {
	writer MetricWriter
	logger Logger
}

// NewTelemetry creates a telemetry observer.
func NewTelemetry(writer MetricWriter) *Telemetry {
	return &Telemetry{writer: writer, logger: noopLogger{}}
}

// SetLogger sets the logger for the telemetry observer.
func (t *Telemetry) SetLogger(logger Logger) {
	t.logger = logger
}

// AcquisitionStarted implements acquisition.Notifier. Runs are recorded on
// finish only.
func (t *Telemetry) AcquisitionStarted(acquisition.Run) {}

// FrameEmitted implements acquisition.Notifier.
func (t *Telemetry) FrameEmitted(run acquisition.Run, frame acquisition.Frame) {
	entries := 0
	if payload, err := seqlog.Decode(frame.Data); err == nil {
		entries = len(payload.Entries)
	} else {
		t.logger.Warn("undecodable frame payload", "run_id", run.ID, "index", frame.Index, "error", err)
	}
	t.writer.WriteFrameMetric(frame.Device, run.ID, frame.Index, frame.Cumulative, entries)
}

// AcquisitionFinished implements acquisition.Notifier.
func (t *Telemetry) AcquisitionFinished(run acquisition.Run, frames uint64, err error) {
	duration := time.Since(run.StartedAt)
	t.writer.WriteRunMetric(run.Device, run.ID, frames, float64(duration.Milliseconds()), err != nil)
}
