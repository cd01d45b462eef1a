package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrUnknownDevice) {
//	    // no kind matches the requested name
//	}
var (
	// ErrUnknownDevice is returned when no device kind matches the
	// requested name prefix.
	ErrUnknownDevice = errors.New("device: unknown device name")

	// ErrDeviceNotFound is returned when a named device is not registered.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when constructing a device under a name
	// that is already registered.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrNotInitialized is returned when an operation requires a device
	// that has completed Initialize.
	ErrNotInitialized = errors.New("device: not initialized")

	// ErrUnsupported is returned by operations a device deliberately does
	// not implement, such as camera ROI changes.
	ErrUnsupported = errors.New("device: operation not supported")

	// ErrSettingNotFound is returned when a named setting does not exist on
	// the device.
	ErrSettingNotFound = errors.New("device: setting not found")

	// ErrNoImage is returned when reading the camera's image buffer before
	// any snap has completed.
	ErrNoImage = errors.New("device: no image captured")

	// ErrUnknownCommand is returned by Dispatch when the named command does
	// not exist for the device's role.
	ErrUnknownCommand = errors.New("device: unknown command")

	// ErrBadParameters is returned by Dispatch when a command's required
	// parameters are missing or of the wrong type.
	ErrBadParameters = errors.New("device: missing or invalid command parameters")
)
