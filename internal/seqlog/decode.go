package seqlog

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Payload is the decoded form of a packed frame. It carries everything a test
// needs to assert ordering properties from frame bytes alone.
type Payload struct {
	Device     string  `json:"device"`
	Sequence   bool    `json:"sequence"`
	Cumulative uint64  `json:"cumulative"`
	Index      uint64  `json:"index"`
	Entries    []Entry `json:"entries"`
}

// Decode parses a packed frame produced by PackAndReset. Trailing zero
// padding is ignored. Decode fails on truncated or malformed payloads, so a
// frame that decodes cleanly is guaranteed complete.
func Decode(data []byte) (*Payload, error) {
	// Strip the zero fill appended to reach the image geometry.
	data = bytes.TrimRight(data, "\x00")

	lines := strings.Split(string(data), "\n")
	if len(lines) < 7 {
		return nil, ErrTruncatedPayload
	}
	if lines[0] != payloadMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformedPayload, lines[0])
	}

	p := &Payload{}
	device, err := fieldValue(lines[1], "device")
	if err != nil {
		return nil, err
	}
	p.Device = device

	mode, err := fieldValue(lines[2], "mode")
	if err != nil {
		return nil, err
	}
	switch mode {
	case modeSequence:
		p.Sequence = true
	case modeStill:
		p.Sequence = false
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrMalformedPayload, mode)
	}

	if p.Cumulative, err = fieldUint(lines[3], "cumulative"); err != nil {
		return nil, err
	}
	if p.Index, err = fieldUint(lines[4], "index"); err != nil {
		return nil, err
	}

	count, err := fieldUint(lines[5], "entries")
	if err != nil {
		return nil, err
	}

	// header (6 lines) + count entry lines + terminator line + the empty
	// element after the terminator's newline. A payload cut anywhere,
	// including at the very last byte, comes up short of this.
	if uint64(len(lines)) != 6+count+2 {
		return nil, ErrTruncatedPayload
	}

	p.Entries = make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		entry, err := parseEntryLine(lines[6+i])
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, entry)
	}

	if lines[6+count] != payloadTerminator || lines[6+count+1] != "" {
		return nil, ErrTruncatedPayload
	}

	return p, nil
}

func fieldValue(line, key string) (string, error) {
	prefix := key + "="
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("%w: expected %s field, got %q", ErrMalformedPayload, key, line)
	}
	return line[len(prefix):], nil
}

func fieldUint(line, key string) (uint64, error) {
	v, err := fieldValue(line, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing %s: %w", ErrMalformedPayload, key, err)
	}
	return n, nil
}

func parseEntryLine(line string) (Entry, error) {
	parts := strings.SplitN(line, " ", 5)
	if len(parts) != 5 {
		return Entry{}, fmt.Errorf("%w: entry line %q", ErrMalformedPayload, line)
	}

	seq, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry seq: %w", ErrMalformedPayload, err)
	}
	gid, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry goroutine: %w", ErrMalformedPayload, err)
	}

	kind := EntryKind(parts[2])
	if kind != KindRead && kind != KindWrite {
		return Entry{}, fmt.Errorf("%w: entry kind %q", ErrMalformedPayload, parts[2])
	}

	return Entry{
		Seq:       seq,
		Goroutine: gid,
		Setting:   parts[3],
		Kind:      kind,
		Value:     parts[4],
	}, nil
}
