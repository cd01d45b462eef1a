package setting

import "errors"

// Domain errors for the setting package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, setting.ErrOutOfRange) {
//	    // bound violation
//	}
var (
	// ErrOutOfRange is returned when a value violates a bounded setting's
	// min/max limits. The stored value is unchanged and no log entry is
	// recorded.
	ErrOutOfRange = errors.New("setting: value out of range")

	// ErrInvalidState is returned when writing a pre-init-only setting after
	// the owning device completed initialization.
	ErrInvalidState = errors.New("setting: write not allowed in current device state")

	// ErrInvalidValue is returned by SetText when the textual value does not
	// parse as the setting's type.
	ErrInvalidValue = errors.New("setting: invalid value")

	// ErrNoValue is returned by GetText on one-shot settings, which hold no
	// persisted value.
	ErrNoValue = errors.New("setting: one-shot setting has no value")
)
