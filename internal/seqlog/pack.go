package seqlog

import (
	"bytes"
	"strconv"
)

// Payload encoding constants. The payload is a line-oriented text format so
// that truncation behavior is exact to the byte and frames remain readable in
// a hex dump during test debugging.
const (
	payloadMagic      = "SCOPESIM1"
	payloadTerminator = "end"

	modeSequence = "sequence"
	modeStill    = "still"
)

// PackAndReset serializes the current log state into buf and clears the log.
//
// The payload encodes the device name, whether the frame belongs to a
// sequence acquisition or a still snap, the cumulative and per-run frame
// counters, and every entry recorded since the last reset. Unused buffer
// space is zero-filled so frames of a fixed image geometry stay comparable.
//
// If buf cannot hold the payload, the first len(buf) bytes of the encoding
// are written, the log is left intact, and ErrInsufficientCapacity is
// returned. Nothing is ever written past len(buf).
//
// Returns the payload length in bytes.
func (l *Logger) PackAndReset(buf []byte, device string, sequence bool, cumulative, index uint64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	payload := encodePayload(device, sequence, cumulative, index, l.entries)
	if len(payload) > len(buf) {
		copy(buf, payload[:len(buf)])
		return len(buf), ErrInsufficientCapacity
	}

	n := copy(buf, payload)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}

	// Reset only after a successful pack; the counter keeps increasing so
	// entries stay totally ordered across resets.
	l.entries = l.entries[:0]

	return n, nil
}

// PackedSize returns the payload size PackAndReset would currently produce.
// Used by tests to construct exactly-too-small buffers.
func (l *Logger) PackedSize(device string, sequence bool, cumulative, index uint64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(encodePayload(device, sequence, cumulative, index, l.entries))
}

func encodePayload(device string, sequence bool, cumulative, index uint64, entries []Entry) []byte {
	mode := modeStill
	if sequence {
		mode = modeSequence
	}

	var b bytes.Buffer
	b.WriteString(payloadMagic)
	b.WriteByte('\n')
	writeField(&b, "device", device)
	writeField(&b, "mode", mode)
	writeField(&b, "cumulative", strconv.FormatUint(cumulative, 10))
	writeField(&b, "index", strconv.FormatUint(index, 10))
	writeField(&b, "entries", strconv.Itoa(len(entries)))
	for _, e := range entries {
		b.WriteString(strconv.FormatUint(e.Seq, 10))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(e.Goroutine, 10))
		b.WriteByte(' ')
		b.WriteString(string(e.Kind))
		b.WriteByte(' ')
		b.WriteString(e.Setting)
		b.WriteByte(' ')
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
	b.WriteString(payloadTerminator)
	b.WriteByte('\n')
	return b.Bytes()
}

func writeField(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\n')
}
