package device

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
)

// SinkFactory supplies the frame sink for each constructed camera.
type SinkFactory func(camera string) acquisition.FrameSink

// DefaultSinkCapacity is the per-camera frame buffer size used when no sink
// factory is provided.
const DefaultSinkCapacity = 64

// Registry constructs devices by name and tracks the live instances.
//
// The name's prefix selects the kind: "TCamera-0" builds a camera,
// "TZStage-left" a focus drive. All public methods are thread-safe.
type Registry struct {
	hub   *Hub
	sinks SinkFactory

	mu      sync.RWMutex
	devices map[string]Device

	logger Logger
}

// NewRegistry creates a registry serving devices from the given hub.
func NewRegistry(hub *Hub) *Registry {
	return &Registry{
		hub:     hub,
		devices: make(map[string]Device),
		sinks: func(string) acquisition.FrameSink {
			return acquisition.NewMemorySink(DefaultSinkCapacity)
		},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetSinkFactory overrides the frame sink supplied to new cameras. Call
// before constructing any camera.
func (r *Registry) SetSinkFactory(f SinkFactory) {
	r.sinks = f
}

// Hub returns the registry's hub.
func (r *Registry) Hub() *Hub { return r.hub }

// Construct builds, registers and returns the device for name. The kind is
// chosen by name prefix. Returns ErrUnknownDevice for an unrecognized
// prefix and ErrDeviceExists for a duplicate name.
func (r *Registry) Construct(name string) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceExists, name)
	}

	var d Device
	switch {
	case strings.HasPrefix(name, string(KindCamera)):
		d = NewCamera(name, r.hub, r.sinks(name))
	case strings.HasPrefix(name, string(KindShutter)):
		d = NewShutter(name, r.hub)
	case strings.HasPrefix(name, string(KindXYStage)):
		d = NewXYStage(name, r.hub)
	case strings.HasPrefix(name, string(KindZStage)):
		d = NewZStage(name, r.hub)
	case strings.HasPrefix(name, string(KindAFStage)):
		d = NewAFStage(name, r.hub)
	case strings.HasPrefix(name, string(KindAutofocus)):
		d = NewAutofocus(name, r.hub)
	case strings.HasPrefix(name, string(KindHub)):
		d = r.hub
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}

	r.devices[name] = d
	r.logger.Info("device constructed", "name", name, "kind", d.Kind())
	return d, nil
}

// Get retrieves a registered device by name.
func (r *Registry) Get(name string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return d, nil
}

// Camera retrieves a registered camera by name.
func (r *Registry) Camera(name string) (*Camera, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	c, ok := d.(*Camera)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrUnknownDevice, name, d.Kind())
	}
	return c, nil
}

// List returns all registered devices sorted by name.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Cameras returns all registered cameras sorted by name.
func (r *Registry) Cameras() []*Camera {
	var out []*Camera
	for _, d := range r.List() {
		if c, ok := d.(*Camera); ok {
			out = append(out, c)
		}
	}
	return out
}

// InitializeAll initializes every registered device. The hub is initialized
// first so peripherals see its geometry settings.
func (r *Registry) InitializeAll() error {
	if !r.hub.Initialized() {
		if err := r.hub.Initialize(); err != nil {
			return fmt.Errorf("initializing hub: %w", err)
		}
	}
	for _, d := range r.List() {
		if d.Initialized() {
			continue
		}
		if err := d.Initialize(); err != nil {
			return fmt.Errorf("initializing %s: %w", d.Name(), err)
		}
	}
	r.logger.Info("devices initialized", "count", r.Count())
	return nil
}

// ShutdownAll shuts down every registered device. Errors are logged and the
// shutdown continues; the first error is returned.
func (r *Registry) ShutdownAll() error {
	var first error
	for _, d := range r.List() {
		if err := d.Shutdown(); err != nil {
			r.logger.Error("device shutdown failed", "name", d.Name(), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Stats reports registry statistics for monitoring.
type Stats struct {
	TotalDevices int          `json:"total_devices"`
	ByKind       map[Kind]int `json:"by_kind"`
	Initialized  int          `json:"initialized"`
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.devices),
		ByKind:       make(map[Kind]int),
	}
	for _, d := range r.devices {
		stats.ByKind[d.Kind()]++
		if d.Initialized() {
			stats.Initialized++
		}
	}
	return stats
}
