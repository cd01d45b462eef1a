// Package setting provides the loggable value cells owned by simulated
// devices.
//
// A setting is a named mutable value whose every read and write is recorded
// in the shared seqlog.Logger, so tests can reconstruct the exact order of
// mutations across goroutines. Four shapes exist:
//
//   - Setting[int64] / Setting[float64]: numeric values with optional
//     min/max bounds
//   - Bool: a boolean value
//   - OneShot: a valueless command (Home, Stop, FullFocus) that records a
//     write event and succeeds immediately
//
// Validation (bounds, pre-init restriction) and the record+store happen under
// one guard acquisition, so a concurrent reader can never observe a write
// entry without the value already stored, nor the reverse. Rejected writes
// record nothing and leave the value unchanged.
//
// Settings are created during device Initialize, not construction, matching
// the device lifecycle the host expects.
package setting
