package setting

import (
	"strconv"

	"github.com/nerrad567/scope-sim-core/internal/seqlog"
)

// Bool is a boolean value cell backed by the shared log.
type Bool struct {
	log   *seqlog.Logger
	owner Owner
	name  string
	value bool

	preInitOnly bool
}

// NewBool creates a boolean setting with the given initial value.
func NewBool(log *seqlog.Logger, owner Owner, name string, initial bool) *Bool {
	return &Bool{log: log, owner: owner, name: name, value: initial}
}

// PreInitOnly marks the setting writable only before the owning device
// completes initialization.
func (b *Bool) PreInitOnly() *Bool {
	b.preInitOnly = true
	return b
}

// Name returns the setting name.
func (b *Bool) Name() string { return b.name }

// Type implements Any.
func (b *Bool) Type() Type { return TypeBool }

// Get records a read entry and returns the current value.
func (b *Bool) Get() bool {
	g := b.log.Guard()
	defer g.Release()
	return b.GetWithGuard(g)
}

// GetWithGuard is Get for callers already inside a guarded transaction.
func (b *Bool) GetWithGuard(g *seqlog.Guard) bool {
	g.RecordRead(b.name, strconv.FormatBool(b.value))
	return b.value
}

// Set records a write entry and stores the value.
func (b *Bool) Set(v bool) error {
	g := b.log.Guard()
	defer g.Release()
	return b.SetWithGuard(g, v)
}

// SetWithGuard is Set for callers already inside a guarded transaction.
func (b *Bool) SetWithGuard(g *seqlog.Guard, v bool) error {
	if b.preInitOnly && b.owner != nil && b.owner.Initialized() {
		return ErrInvalidState
	}
	g.RecordWrite(b.name, strconv.FormatBool(v))
	b.value = v
	return nil
}

// GetText implements Any.
func (b *Bool) GetText() (string, error) {
	return strconv.FormatBool(b.Get()), nil
}

// SetText implements Any.
func (b *Bool) SetText(value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return ErrInvalidValue
	}
	return b.Set(v)
}
