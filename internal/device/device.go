package device

import (
	"sync"

	"github.com/nerrad567/scope-sim-core/internal/seqlog"
	"github.com/nerrad567/scope-sim-core/internal/setting"
)

// Logger defines the logging interface used by the device package.
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

// Kind identifies a device category. Device names begin with their kind.
type Kind string

// Device kinds.
const (
	KindHub       Kind = "THub"
	KindCamera    Kind = "TCamera"
	KindShutter   Kind = "TShutter"
	KindXYStage   Kind = "TXYStage"
	KindZStage    Kind = "TZStage"
	KindAFStage   Kind = "TAFStage"
	KindAutofocus Kind = "TAutofocus"
)

// Device is the lifecycle and introspection surface every simulated
// peripheral implements.
type Device interface {
	Name() string
	Kind() Kind

	// Initialize creates the device's settings and marks it ready.
	Initialize() error

	// Shutdown releases the device. Idempotent.
	Shutdown() error

	// Initialized reports whether Initialize has completed.
	Initialized() bool

	// Busy consumes the device's one-shot busy flag from the log.
	Busy() bool

	// Settings lists the device's settings for generic access.
	Settings() []setting.Any
}

// base carries the state common to all devices. Concrete devices embed it
// and append their settings during Initialize.
type base struct {
	name string
	kind Kind
	log  *seqlog.Logger

	mu          sync.Mutex
	initialized bool
	settings    []setting.Any
}

func newBase(name string, kind Kind, log *seqlog.Logger) base {
	return base{name: name, kind: kind, log: log}
}

func (b *base) Name() string { return b.name }

func (b *base) Kind() Kind { return b.kind }

func (b *base) Log() *seqlog.Logger { return b.log }

func (b *base) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

func (b *base) markInitialized() {
	b.mu.Lock()
	b.initialized = true
	b.mu.Unlock()
}

func (b *base) Shutdown() error {
	b.mu.Lock()
	b.initialized = false
	b.mu.Unlock()
	return nil
}

func (b *base) Busy() bool {
	return b.log.ConsumeBusy(b.name)
}

func (b *base) Settings() []setting.Any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]setting.Any, len(b.settings))
	copy(out, b.settings)
	return out
}

func (b *base) addSettings(settings ...setting.Any) {
	b.mu.Lock()
	b.settings = append(b.settings, settings...)
	b.mu.Unlock()
}

// Setting returns the named setting or ErrSettingNotFound.
func Setting(d Device, name string) (setting.Any, error) {
	for _, s := range d.Settings() {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, ErrSettingNotFound
}
