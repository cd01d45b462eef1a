package acquisition

// Notifier receives acquisition lifecycle callbacks. Implementations fan the
// events out to the archive, WebSocket hub, MQTT and telemetry writers.
//
// Callbacks run on the engine's worker goroutine; implementations must not
// block for long.
type Notifier interface {
	AcquisitionStarted(run Run)
	FrameEmitted(run Run, frame Frame)
	AcquisitionFinished(run Run, frames uint64, err error)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) AcquisitionStarted(Run)                 {}
func (NopNotifier) FrameEmitted(Run, Frame)                {}
func (NopNotifier) AcquisitionFinished(Run, uint64, error) {}

// MultiNotifier fans events out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) AcquisitionStarted(run Run) {
	for _, n := range m {
		n.AcquisitionStarted(run)
	}
}

func (m MultiNotifier) FrameEmitted(run Run, frame Frame) {
	for _, n := range m {
		n.FrameEmitted(run, frame)
	}
}

func (m MultiNotifier) AcquisitionFinished(run Run, frames uint64, err error) {
	for _, n := range m {
		n.AcquisitionFinished(run, frames, err)
	}
}
