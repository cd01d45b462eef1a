package archive

import (
	"context"
	"time"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
)

// writeTimeout bounds each archive write made from the engine's worker
// goroutine.
const writeTimeout = 5 * time.Second

// Observer adapts the Recorder to the acquisition engine's notifier
// interface. Write failures are logged and dropped; the archive must never
// stall frame emission.
type Observer struct {
	recorder *Recorder
	logger   Logger
}

// NewObserver creates an observer recording into rec.
func NewObserver(rec *Recorder) *Observer {
	return &Observer{recorder: rec, logger: noopLogger{}}
}

// SetLogger sets the logger for the observer.
func (o *Observer) SetLogger(logger Logger) {
	o.logger = logger
}

// AcquisitionStarted implements acquisition.Notifier.
func (o *Observer) AcquisitionStarted(run acquisition.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := o.recorder.RecordRunStart(ctx, run.ID, run.Device, run.Finite, run.Count, run.StopOnOverflow, run.StartedAt)
	if err != nil {
		o.logger.Warn("archiving run start failed", "run_id", run.ID, "error", err)
	}
}

// FrameEmitted implements acquisition.Notifier.
func (o *Observer) FrameEmitted(run acquisition.Run, frame acquisition.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := o.recorder.RecordFrame(ctx, run.ID, frame.Device, frame.Index, frame.Cumulative,
		frame.Width, frame.Height, frame.BytesPerPixel, frame.Metadata, frame.CapturedAt)
	if err != nil {
		o.logger.Warn("archiving frame failed", "run_id", run.ID, "index", frame.Index, "error", err)
	}
}

// AcquisitionFinished implements acquisition.Notifier.
func (o *Observer) AcquisitionFinished(run acquisition.Run, frames uint64, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := o.recorder.RecordRunEnd(ctx, run.ID, frames, runErr); err != nil {
		o.logger.Warn("archiving run end failed", "run_id", run.ID, "error", err)
	}
}
