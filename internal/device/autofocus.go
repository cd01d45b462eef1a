package device

import "github.com/nerrad567/scope-sim-core/internal/setting"

// Autofocus offset limits in micrometers.
const MaxAutofocusOffsetUm = 1000.0

// Autofocus is the simulated continuous-focus unit. Focus always succeeds
// instantly; the value of the device is the trail its operations leave in
// the log.
type Autofocus struct {
	base
	enabled          *setting.Bool
	offset           *setting.Setting[float64]
	fullFocus        *setting.OneShot
	incrementalFocus *setting.OneShot
}

// NewAutofocus creates an autofocus unit attached to the hub.
func NewAutofocus(name string, hub *Hub) *Autofocus {
	return &Autofocus{base: newBase(name, KindAutofocus, hub.Log())}
}

// Initialize creates the autofocus settings.
func (a *Autofocus) Initialize() error {
	log := a.Log()
	a.enabled = setting.NewBool(log, a, "ContinuousFocusEnabled", false)
	a.offset = setting.NewBounded[float64](log, a, "OffsetUm", 0, -MaxAutofocusOffsetUm, MaxAutofocusOffsetUm)
	a.fullFocus = setting.NewOneShot(log, "FullFocus")
	a.incrementalFocus = setting.NewOneShot(log, "IncrementalFocus")
	a.addSettings(a.enabled, a.offset, a.fullFocus, a.incrementalFocus)
	a.markInitialized()
	return nil
}

// SetContinuousFocus enables or disables continuous focusing.
func (a *Autofocus) SetContinuousFocus(enabled bool) error {
	if !a.Initialized() {
		return ErrNotInitialized
	}
	return a.enabled.Set(enabled)
}

// ContinuousFocusEnabled reports whether continuous focus is on.
func (a *Autofocus) ContinuousFocusEnabled() bool {
	return a.enabled.Get()
}

// IsContinuousFocusLocked reports lock state. The simulated unit locks the
// instant continuous focus is enabled.
func (a *Autofocus) IsContinuousFocusLocked() bool {
	return a.enabled.Get()
}

// SetOffsetUm sets the focus offset.
func (a *Autofocus) SetOffsetUm(um float64) error {
	if !a.Initialized() {
		return ErrNotInitialized
	}
	return a.offset.Set(um)
}

// OffsetUm reads the focus offset.
func (a *Autofocus) OffsetUm() float64 {
	return a.offset.Get()
}

// FullFocus runs a full focus pass and marks the device busy.
func (a *Autofocus) FullFocus() error {
	if !a.Initialized() {
		return ErrNotInitialized
	}
	g := a.Log().Guard()
	defer g.Release()

	if err := a.fullFocus.TriggerWithGuard(g); err != nil {
		return err
	}
	g.MarkBusy(a.Name())
	return nil
}

// IncrementalFocus runs a single focus step and marks the device busy.
func (a *Autofocus) IncrementalFocus() error {
	if !a.Initialized() {
		return ErrNotInitialized
	}
	g := a.Log().Guard()
	defer g.Release()

	if err := a.incrementalFocus.TriggerWithGuard(g); err != nil {
		return err
	}
	g.MarkBusy(a.Name())
	return nil
}

// LastFocusScore returns the score of the last focus pass. The simulation
// always reports zero.
func (a *Autofocus) LastFocusScore() float64 {
	return 0
}

// CurrentFocusScore is not supported by the simulated unit.
func (a *Autofocus) CurrentFocusScore() (float64, error) {
	return 0, ErrUnsupported
}
