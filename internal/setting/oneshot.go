package setting

import "github.com/nerrad567/scope-sim-core/internal/seqlog"

// oneShotValue is the placeholder recorded for every one-shot trigger.
const oneShotValue = "1"

// OneShot is a valueless command setting. Triggering it records a write entry
// with a fixed placeholder value; it has no readable state.
type OneShot struct {
	log  *seqlog.Logger
	name string
}

// NewOneShot creates a one-shot command setting.
func NewOneShot(log *seqlog.Logger, name string) *OneShot {
	return &OneShot{log: log, name: name}
}

// Name returns the setting name.
func (o *OneShot) Name() string { return o.name }

// Type implements Any.
func (o *OneShot) Type() Type { return TypeOneShot }

// Trigger records the command in the log.
func (o *OneShot) Trigger() error {
	g := o.log.Guard()
	defer g.Release()
	return o.TriggerWithGuard(g)
}

// TriggerWithGuard is Trigger for callers already inside a guarded
// transaction.
func (o *OneShot) TriggerWithGuard(g *seqlog.Guard) error {
	g.RecordWrite(o.name, oneShotValue)
	return nil
}

// GetText implements Any. One-shots hold no value.
func (o *OneShot) GetText() (string, error) {
	return "", ErrNoValue
}

// SetText implements Any. Any value triggers the command.
func (o *OneShot) SetText(string) error {
	return o.Trigger()
}
