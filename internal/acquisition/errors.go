package acquisition

import "errors"

// Domain errors for the acquisition package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, acquisition.ErrAlreadyRunning) {
//	    // a run is still active or uncollected
//	}
var (
	// ErrAlreadyRunning is returned by Start while a previous run is active
	// or its result has not been collected by Stop.
	ErrAlreadyRunning = errors.New("acquisition: already running")

	// ErrBufferOverflow is returned by a sink whose capacity is exhausted,
	// and by Stop when a run was configured to halt on overflow.
	ErrBufferOverflow = errors.New("acquisition: frame buffer overflow")
)
