package device

import "github.com/nerrad567/scope-sim-core/internal/setting"

// Shutter is the simulated shutter, a single logged boolean.
type Shutter struct {
	base
	state *setting.Bool
}

// NewShutter creates a shutter attached to the hub.
func NewShutter(name string, hub *Hub) *Shutter {
	return &Shutter{base: newBase(name, KindShutter, hub.Log())}
}

// Initialize creates the shutter's settings.
func (s *Shutter) Initialize() error {
	s.state = setting.NewBool(s.Log(), s, "ShutterState", false)
	s.addSettings(s.state)
	s.markInitialized()
	return nil
}

// SetOpen opens or closes the shutter.
func (s *Shutter) SetOpen(open bool) error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	return s.state.Set(open)
}

// Open reports whether the shutter is open.
func (s *Shutter) Open() bool {
	return s.state.Get()
}
