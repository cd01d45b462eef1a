// Package acquisition runs simulated frame capture for the camera devices.
//
// An Engine owns one capture state machine: Idle until Start launches a
// worker goroutine, Running while the worker generates frames into a
// FrameSink, and back to Idle once Stop collects the worker's result. A
// finite run ends on its own after the requested frame count; the worker
// error, if any, is held until Stop retrieves it, so no failure is lost.
//
// Frames are produced by a Generator callback supplied at construction. The
// camera's generator packs the shared setting log into each frame payload,
// which is what makes the emitted images a faithful transcript of everything
// that happened since the previous frame.
//
// Sink overflow is handled two ways, chosen per run: stop the run with
// ErrBufferOverflow, or absorb it by clearing the sink once and retrying the
// rejected frame.
package acquisition
