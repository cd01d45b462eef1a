package acquisition

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Run describes one acquisition from Start to its collected result.
type Run struct {
	ID             string    `json:"id"`
	Device         string    `json:"device"`
	Finite         bool      `json:"finite"`
	Count          uint64    `json:"count"`
	StopOnOverflow bool      `json:"stop_on_overflow"`
	StartedAt      time.Time `json:"started_at"`
}

// Engine drives frame generation for one camera.
//
// The engine uses its own mutex, never the setting log's guard, so a worker
// packing the log can make progress while callers query capture state.
// All public methods are thread-safe.
type Engine struct {
	device   string
	gen      Generator
	sink     FrameSink
	notifier Notifier
	logger   Logger

	mu          sync.Mutex
	running     bool // Start accepted, result not yet collected
	capturing   bool // worker goroutine still generating
	stop        chan struct{}
	stopOnce    *sync.Once
	collectOnce *sync.Once
	result      chan error
	run         Run
	cumulative  uint64 // frames generated across all runs
}

// NewEngine creates an idle engine for the named device.
func NewEngine(device string, gen Generator, sink FrameSink) *Engine {
	return &Engine{
		device:   device,
		gen:      gen,
		sink:     sink,
		notifier: NopNotifier{},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// Sink returns the engine's frame sink for buffer inspection.
func (e *Engine) Sink() FrameSink {
	return e.sink
}

// SetNotifier sets the lifecycle event receiver. Call before Start.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Start launches a run. finite limits the run to count frames; an infinite
// run ends only via Stop. stopOnOverflow selects the overflow policy: halt
// the run, or clear the sink and retry the rejected frame.
//
// Returns ErrAlreadyRunning while a previous run is active or its result has
// not been collected by Stop.
func (e *Engine) Start(finite bool, count uint64, stopOnOverflow bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}

	run := Run{
		ID:             uuid.New().String(),
		Device:         e.device,
		Finite:         finite,
		Count:          count,
		StopOnOverflow: stopOnOverflow,
		StartedAt:      time.Now().UTC(),
	}

	e.running = true
	e.capturing = true
	e.stop = make(chan struct{})
	e.stopOnce = &sync.Once{}
	e.collectOnce = &sync.Once{}
	e.result = make(chan error, 1)
	e.run = run

	e.logger.Info("acquisition started",
		"device", e.device, "run_id", run.ID,
		"finite", finite, "count", count)
	e.notifier.AcquisitionStarted(run)

	go e.worker(run, e.stop, e.result)
	return nil
}

// Stop halts the current run, waits for the worker, and returns the run's
// error, if any. A stop with no run in flight is a no-op. Each run's error
// is surfaced exactly once.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	stopOnce := e.stopOnce
	collectOnce := e.collectOnce
	stop := e.stop
	result := e.result
	e.mu.Unlock()

	stopOnce.Do(func() { close(stop) })

	// Only one caller collects the result; concurrent stops wait here and
	// return nil.
	var err error
	collectOnce.Do(func() {
		err = <-result
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	})

	if err != nil {
		e.logger.Warn("acquisition ended with error", "device", e.device, "error", err)
	}
	return err
}

// IsCapturing reports whether the worker is still generating frames. A
// finished finite run reports false even before Stop collects the result.
func (e *Engine) IsCapturing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capturing
}

// CurrentRun returns the active run and true, or a zero Run and false when
// no run is in flight.
func (e *Engine) CurrentRun() (Run, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run, e.running
}

// CumulativeFrames returns the total frame count across all runs.
func (e *Engine) CumulativeFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cumulative
}

func (e *Engine) worker(run Run, stop chan struct{}, result chan<- error) {
	var index uint64
	var runErr error

loop:
	for {
		select {
		case <-stop:
			break loop
		default:
		}
		if run.Finite && index >= run.Count {
			break loop
		}

		e.mu.Lock()
		cumulative := e.cumulative
		e.cumulative++
		e.mu.Unlock()

		frame, err := e.gen(cumulative, index)
		if err != nil {
			runErr = err
			break loop
		}

		if err := e.sink.Accept(frame); err != nil {
			switch {
			case !errors.Is(err, ErrBufferOverflow):
				// A stop requested while delivery was failing outranks the
				// failure; the run ends gracefully.
				select {
				case <-stop:
					e.logger.Debug("delivery failure superseded by stop request",
						"device", e.device, "run_id", run.ID, "index", index)
					break loop
				default:
				}
				runErr = err
				break loop
			case run.StopOnOverflow:
				runErr = err
				break loop
			default:
				// Absorb: drop everything buffered so far and redeliver.
				// The forced redelivery cannot be rejected for capacity.
				e.logger.Debug("sink overflow absorbed", "device", e.device, "run_id", run.ID, "index", index)
				e.sink.ClearBuffer()
				e.sink.ForceAccept(frame)
			}
		}

		e.notifier.FrameEmitted(run, frame)
		index++
	}

	e.mu.Lock()
	e.capturing = false
	e.mu.Unlock()

	result <- runErr
	e.notifier.AcquisitionFinished(run, index, runErr)
	e.logger.Info("acquisition finished",
		"device", e.device, "run_id", run.ID, "frames", index)
}
