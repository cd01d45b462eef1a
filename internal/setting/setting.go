package setting

import (
	"strconv"

	"github.com/nerrad567/scope-sim-core/internal/seqlog"
)

// Owner is the device-side view a setting needs: whether the device has
// completed initialization. Device façades implement it.
type Owner interface {
	Initialized() bool
}

// Type classifies a setting for generic introspection.
type Type string

// Setting types.
const (
	TypeInteger Type = "integer"
	TypeFloat   Type = "float"
	TypeBool    Type = "bool"
	TypeOneShot Type = "one_shot"
)

// Any is the type-erased view of a setting, used by the HTTP API and the
// device describe surface. GetText and SetText route through the log exactly
// like the typed accessors.
type Any interface {
	Name() string
	Type() Type
	GetText() (string, error)
	SetText(value string) error
}

// Number constrains the numeric setting kinds.
type Number interface {
	~int64 | ~float64
}

// Setting is a numeric value cell. Zero value is not usable; create with New
// or NewBounded.
type Setting[T Number] struct {
	log   *seqlog.Logger
	owner Owner
	name  string
	value T

	bounded  bool
	min, max T

	preInitOnly bool
}

// New creates an unbounded numeric setting with the given initial value.
func New[T Number](log *seqlog.Logger, owner Owner, name string, initial T) *Setting[T] {
	return &Setting[T]{log: log, owner: owner, name: name, value: initial}
}

// NewBounded creates a numeric setting constrained to [min, max].
func NewBounded[T Number](log *seqlog.Logger, owner Owner, name string, initial, minVal, maxVal T) *Setting[T] {
	return &Setting[T]{
		log: log, owner: owner, name: name, value: initial,
		bounded: true, min: minVal, max: maxVal,
	}
}

// PreInitOnly marks the setting writable only before the owning device
// completes initialization. Returns the setting for construction chaining.
func (s *Setting[T]) PreInitOnly() *Setting[T] {
	s.preInitOnly = true
	return s
}

// Name returns the setting name.
func (s *Setting[T]) Name() string { return s.name }

// Type implements Any.
func (s *Setting[T]) Type() Type {
	switch any(s.value).(type) {
	case int64:
		return TypeInteger
	default:
		return TypeFloat
	}
}

// Get records a read entry and returns the current value. It blocks only for
// the log's guard.
func (s *Setting[T]) Get() T {
	g := s.log.Guard()
	defer g.Release()
	return s.GetWithGuard(g)
}

// GetWithGuard is Get for callers already inside a guarded transaction.
func (s *Setting[T]) GetWithGuard(g *seqlog.Guard) T {
	g.RecordRead(s.name, formatNumber(s.value))
	return s.value
}

// Peek returns the current value without recording a read entry. For
// internal plumbing (buffer sizing, frame geometry) that is not part of the
// observed device traffic.
func (s *Setting[T]) Peek() T {
	g := s.log.Guard()
	defer g.Release()
	return s.value
}

// Set validates the pre-init restriction and bounds, then records a write
// entry and stores the value under one guard acquisition. Validation
// failures mutate nothing and record nothing.
func (s *Setting[T]) Set(v T) error {
	g := s.log.Guard()
	defer g.Release()
	return s.SetWithGuard(g, v)
}

// SetWithGuard is Set for callers already inside a guarded transaction.
func (s *Setting[T]) SetWithGuard(g *seqlog.Guard, v T) error {
	if err := s.validate(v); err != nil {
		return err
	}
	g.RecordWrite(s.name, formatNumber(v))
	s.value = v
	return nil
}

func (s *Setting[T]) validate(v T) error {
	if s.preInitOnly && s.owner != nil && s.owner.Initialized() {
		return ErrInvalidState
	}
	if s.bounded && (v < s.min || v > s.max) {
		return ErrOutOfRange
	}
	return nil
}

// Bounds returns the limits and whether the setting is bounded.
func (s *Setting[T]) Bounds() (minVal, maxVal T, ok bool) {
	return s.min, s.max, s.bounded
}

// GetText implements Any.
func (s *Setting[T]) GetText() (string, error) {
	return formatNumber(s.Get()), nil
}

// SetText implements Any.
func (s *Setting[T]) SetText(value string) error {
	switch any(s.value).(type) {
	case int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ErrInvalidValue
		}
		return s.Set(T(n))
	default:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ErrInvalidValue
		}
		return s.Set(T(f))
	}
}

func formatNumber[T Number](v T) string {
	switch n := any(v).(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return ""
	}
}
