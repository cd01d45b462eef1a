// Package seqlog implements the setting log at the heart of the simulation
// harness.
//
// Every read and write of every simulated device setting is appended to a
// single, mutex-guarded log with a strictly increasing sequence counter. The
// counter is assigned while the lock is held, so the recorded order is the
// real order of the critical sections that produced it. Tests rely on this:
// a camera frame produced by PackAndReset embeds the log contents, and
// decoding the frame recovers the exact interleaving of mutations that
// happened before it.
//
// # Guard
//
// Multi-step transactions (mark a device busy, then mutate a setting) must be
// indivisible relative to concurrent readers. Callers open a Guard and keep
// it for the whole transaction:
//
//	g := log.Guard()
//	defer g.Release()
//	g.MarkBusy("TCamera-0")
//	g.RecordWrite("Exposure", "50")
//
// Record operations live on the Guard rather than the Logger, so holding the
// lock is enforced by construction. The guard is not re-entrant; components
// that need to compose (device façades calling settings) pass the guard down.
//
// # Pack and reset
//
// PackAndReset serializes the device name, still/sequence flag, frame
// counters and the full log digest into a caller-provided buffer, then clears
// the log to bound memory during long acquisitions. Decode reverses the
// encoding for test assertions.
package seqlog
