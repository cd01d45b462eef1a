package seqlog

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// EntryKind distinguishes read records from write records.
type EntryKind string

// Entry kinds.
const (
	KindRead  EntryKind = "read"
	KindWrite EntryKind = "write"
)

// Entry is one recorded setting access. Entries are immutable once appended;
// they are removed only in bulk by PackAndReset.
type Entry struct {
	// Seq is the global sequence number, strictly increasing across all
	// entries, assigned under the log's lock at record time.
	Seq uint64 `json:"seq"`

	// Goroutine identifies the goroutine that recorded the entry. It is an
	// opaque tag; tests use it to tell the control and acquisition sides
	// apart.
	Goroutine uint64 `json:"goroutine"`

	// Setting is the setting name, e.g. "Exposure".
	Setting string `json:"setting"`

	// Kind is read or write.
	Kind EntryKind `json:"kind"`

	// Value is the textual rendering of the value read or written.
	Value string `json:"value"`
}

// Logger is the shared, mutex-guarded setting log. One Logger is owned by the
// hub and shared by every device and sequencing engine attached to it; it is
// the single piece of mutable state shared between the control goroutine and
// acquisition workers.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Record operations require a
//     Guard, which is the lock itself.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
	nextSeq uint64

	// busy holds one-shot busy flags per device, armed by MarkBusy and
	// cleared by the first Busy query (Micro-Manager busy convention).
	busy map[string]bool
}

// New creates an empty setting log.
func New() *Logger {
	return &Logger{
		busy: make(map[string]bool),
	}
}

// Guard acquires the log's exclusive lock and returns a handle that releases
// it. The returned guard must be released on every exit path:
//
//	g := log.Guard()
//	defer g.Release()
//
// A goroutine holding the guard excludes all other record, busy, snapshot and
// pack operations until release.
func (l *Logger) Guard() *Guard {
	l.mu.Lock()
	return &Guard{log: l}
}

// Guard is a scoped acquisition of the log's lock. Record operations live on
// the guard so that recording without the lock is impossible by construction.
type Guard struct {
	log      *Logger
	released bool
}

// Release unlocks the log. Safe to call once; subsequent calls are no-ops so
// that defer g.Release() composes with early explicit releases.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.log.mu.Unlock()
}

// RecordWrite appends a write entry with a freshly assigned sequence number.
func (g *Guard) RecordWrite(setting, value string) {
	g.log.append(KindWrite, setting, value)
}

// RecordRead appends a read entry with a freshly assigned sequence number.
func (g *Guard) RecordRead(setting, value string) {
	g.log.append(KindRead, setting, value)
}

// MarkBusy arms the one-shot busy flag for the named device. The flag is
// consumed by Logger.ConsumeBusy.
func (g *Guard) MarkBusy(device string) {
	g.log.busy[device] = true
}

// append assumes the lock is held (only reachable through a Guard).
func (l *Logger) append(kind EntryKind, setting, value string) {
	l.entries = append(l.entries, Entry{
		Seq:       l.nextSeq,
		Goroutine: goroutineID(),
		Setting:   setting,
		Kind:      kind,
		Value:     value,
	})
	l.nextSeq++
}

// ConsumeBusy reports whether the named device was marked busy since the last
// query, clearing the flag. A device therefore reports busy exactly once per
// mutation transaction.
func (l *Logger) ConsumeBusy(device string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy[device] {
		delete(l.busy, device)
		return true
	}
	return false
}

// Snapshot returns a copy of the current entries in recorded order. The copy
// is independent; callers can hold it across further mutations.
func (l *Logger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries currently held.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// goroutineID returns the current goroutine's id as reported by the runtime.
// The stack header has the form "goroutine 123 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
