package seqlog

import "errors"

// Domain errors for the seqlog package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, seqlog.ErrInsufficientCapacity) {
//	    // retry with a larger buffer
//	}
var (
	// ErrInsufficientCapacity is returned by PackAndReset when the provided
	// buffer is smaller than the encoded payload. The payload is truncated
	// deterministically and the log is left intact.
	ErrInsufficientCapacity = errors.New("seqlog: buffer too small for packed payload")

	// ErrTruncatedPayload is returned by Decode when a payload ends before
	// the terminator line.
	ErrTruncatedPayload = errors.New("seqlog: truncated payload")

	// ErrMalformedPayload is returned by Decode when a payload does not
	// follow the pack encoding.
	ErrMalformedPayload = errors.New("seqlog: malformed payload")
)
