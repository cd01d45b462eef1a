package acquisition

import "time"

// Frame is one emitted image with its payload and provenance counters.
type Frame struct {
	Device        string            `json:"device"`
	Data          []byte            `json:"-"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	BytesPerPixel int               `json:"bytes_per_pixel"`
	Sequence      bool              `json:"sequence"`
	Cumulative    uint64            `json:"cumulative"`
	Index         uint64            `json:"index"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CapturedAt    time.Time         `json:"captured_at"`
}

// FrameSink receives frames from a running acquisition.
//
// Accept returns ErrBufferOverflow when the sink cannot take the frame;
// the engine then either stops the run or clears and redelivers, depending
// on the run's overflow policy. ForceAccept delivers unconditionally,
// evicting the oldest buffered frame if needed; it is the redelivery path
// after an absorb and cannot be rejected for capacity.
type FrameSink interface {
	Accept(frame Frame) error
	ForceAccept(frame Frame)
	ClearBuffer()
}

// Generator produces the next frame of a run. cumulative counts every frame
// the engine has ever generated; index restarts at zero for each run.
type Generator func(cumulative, index uint64) (Frame, error)
