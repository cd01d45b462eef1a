package device

import "github.com/nerrad567/scope-sim-core/internal/setting"

// Stage travel limits.
const (
	MaxStageSteps = int64(10_000_000)
	MaxStageUm    = 10_000.0
	StepSizeUm    = 0.1
)

// XYStage is the simulated two-axis stage. Positions are in steps; both
// axes move under one log transaction so a packed frame can never show a
// half-updated position.
type XYStage struct {
	base
	x, y      *setting.Setting[int64]
	home      *setting.OneShot
	halt      *setting.OneShot
	setOrigin *setting.OneShot
}

// NewXYStage creates an XY stage attached to the hub.
func NewXYStage(name string, hub *Hub) *XYStage {
	return &XYStage{base: newBase(name, KindXYStage, hub.Log())}
}

// Initialize creates the stage's settings.
func (s *XYStage) Initialize() error {
	log := s.Log()
	s.x = setting.NewBounded[int64](log, s, "XPositionSteps", 0, -MaxStageSteps, MaxStageSteps)
	s.y = setting.NewBounded[int64](log, s, "YPositionSteps", 0, -MaxStageSteps, MaxStageSteps)
	s.home = setting.NewOneShot(log, "Home")
	s.halt = setting.NewOneShot(log, "Stop")
	s.setOrigin = setting.NewOneShot(log, "SetOrigin")
	s.addSettings(s.x, s.y, s.home, s.halt, s.setOrigin)
	s.markInitialized()
	return nil
}

// SetPositionSteps moves both axes in one transaction and marks the stage
// busy.
func (s *XYStage) SetPositionSteps(x, y int64) error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	g := s.Log().Guard()
	defer g.Release()

	if err := s.x.SetWithGuard(g, x); err != nil {
		return err
	}
	if err := s.y.SetWithGuard(g, y); err != nil {
		return err
	}
	g.MarkBusy(s.Name())
	return nil
}

// PositionSteps reads both axes in one transaction.
func (s *XYStage) PositionSteps() (x, y int64) {
	g := s.Log().Guard()
	defer g.Release()
	return s.x.GetWithGuard(g), s.y.GetWithGuard(g)
}

// Home drives both axes to their reference position.
func (s *XYStage) Home() error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	g := s.Log().Guard()
	defer g.Release()

	if err := s.home.TriggerWithGuard(g); err != nil {
		return err
	}
	if err := s.x.SetWithGuard(g, 0); err != nil {
		return err
	}
	if err := s.y.SetWithGuard(g, 0); err != nil {
		return err
	}
	g.MarkBusy(s.Name())
	return nil
}

// Stop halts any motion. The simulation moves instantaneously, so this only
// records the command.
func (s *XYStage) Stop() error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	return s.halt.Trigger()
}

// SetOrigin makes the current position the new zero.
func (s *XYStage) SetOrigin() error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	g := s.Log().Guard()
	defer g.Release()

	if err := s.setOrigin.TriggerWithGuard(g); err != nil {
		return err
	}
	if err := s.x.SetWithGuard(g, 0); err != nil {
		return err
	}
	return s.y.SetWithGuard(g, 0)
}

// LinearStage is a single-axis focus stage in micrometers. It backs both
// the Z drive and the autofocus offset drive.
type LinearStage struct {
	base
	position  *setting.Setting[float64]
	home      *setting.OneShot
	halt      *setting.OneShot
	setOrigin *setting.OneShot
}

// NewZStage creates the main focus drive.
func NewZStage(name string, hub *Hub) *LinearStage {
	return &LinearStage{base: newBase(name, KindZStage, hub.Log())}
}

// NewAFStage creates the autofocus offset drive.
func NewAFStage(name string, hub *Hub) *LinearStage {
	return &LinearStage{base: newBase(name, KindAFStage, hub.Log())}
}

// Initialize creates the stage's settings.
func (s *LinearStage) Initialize() error {
	log := s.Log()
	s.position = setting.NewBounded[float64](log, s, "ZPositionUm", 0, -MaxStageUm, MaxStageUm)
	s.home = setting.NewOneShot(log, "Home")
	s.halt = setting.NewOneShot(log, "Stop")
	s.setOrigin = setting.NewOneShot(log, "SetOrigin")
	s.addSettings(s.position, s.home, s.halt, s.setOrigin)
	s.markInitialized()
	return nil
}

// SetPositionUm moves the stage and marks it busy.
func (s *LinearStage) SetPositionUm(um float64) error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	g := s.Log().Guard()
	defer g.Release()

	if err := s.position.SetWithGuard(g, um); err != nil {
		return err
	}
	g.MarkBusy(s.Name())
	return nil
}

// PositionUm reads the stage position.
func (s *LinearStage) PositionUm() float64 {
	return s.position.Get()
}

// Home drives the stage to its reference position.
func (s *LinearStage) Home() error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	g := s.Log().Guard()
	defer g.Release()

	if err := s.home.TriggerWithGuard(g); err != nil {
		return err
	}
	if err := s.position.SetWithGuard(g, 0); err != nil {
		return err
	}
	g.MarkBusy(s.Name())
	return nil
}

// Stop halts any motion.
func (s *LinearStage) Stop() error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	return s.halt.Trigger()
}

// SetOrigin makes the current position the new zero.
func (s *LinearStage) SetOrigin() error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	g := s.Log().Guard()
	defer g.Release()

	if err := s.setOrigin.TriggerWithGuard(g); err != nil {
		return err
	}
	return s.position.SetWithGuard(g, 0)
}
