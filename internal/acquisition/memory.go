package acquisition

import "sync"

// MemorySink is a bounded in-memory frame buffer. When full, Accept returns
// ErrBufferOverflow and drops the frame; it never evicts on its own.
//
// All methods are thread-safe.
type MemorySink struct {
	mu       sync.Mutex
	frames   []Frame
	capacity int

	accepted uint64
	dropped  uint64
	cleared  uint64
}

// NewMemorySink creates a sink holding at most capacity frames. A capacity
// of zero or less rejects every frame.
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{capacity: capacity}
}

// Accept implements FrameSink.
func (s *MemorySink) Accept(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) >= s.capacity {
		s.dropped++
		return ErrBufferOverflow
	}
	s.frames = append(s.frames, frame)
	s.accepted++
	return nil
}

// ForceAccept implements FrameSink. A full sink evicts its oldest frame to
// make room; the eviction counts as a drop.
func (s *MemorySink) ForceAccept(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) >= s.capacity && len(s.frames) > 0 {
		copy(s.frames, s.frames[1:])
		s.frames = s.frames[:len(s.frames)-1]
		s.dropped++
	}
	s.frames = append(s.frames, frame)
	s.accepted++
}

// ClearBuffer implements FrameSink. Buffered frames are discarded; the
// accepted counter is unaffected.
func (s *MemorySink) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = s.frames[:0]
	s.cleared++
}

// Frames returns a copy of the buffered frames in arrival order.
func (s *MemorySink) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Len returns the number of buffered frames.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Capacity returns the sink's frame capacity.
func (s *MemorySink) Capacity() int { return s.capacity }

// SinkStats reports sink counters for monitoring.
type SinkStats struct {
	Buffered int    `json:"buffered"`
	Capacity int    `json:"capacity"`
	Accepted uint64 `json:"accepted"`
	Dropped  uint64 `json:"dropped"`
	Cleared  uint64 `json:"cleared"`
}

// Stats returns current sink counters.
func (s *MemorySink) Stats() SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SinkStats{
		Buffered: len(s.frames),
		Capacity: s.capacity,
		Accepted: s.accepted,
		Dropped:  s.dropped,
		Cleared:  s.cleared,
	}
}
