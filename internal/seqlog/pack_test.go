package seqlog

import (
	"bytes"
	"errors"
	"testing"
)

func recordSample(log *Logger) {
	g := log.Guard()
	g.RecordWrite("Exposure", "50")
	g.RecordRead("Exposure", "50")
	g.RecordWrite("ShutterState", "true")
	g.Release()
}

func TestPackAndResetRoundTrip(t *testing.T) {
	log := New()
	recordSample(log)

	buf := make([]byte, 4096)
	n, err := log.PackAndReset(buf, "TCamera-0", true, 7, 2)
	if err != nil {
		t.Fatalf("PackAndReset: %v", err)
	}
	if n <= 0 || n > len(buf) {
		t.Fatalf("bad payload length %d", n)
	}

	p, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Device != "TCamera-0" {
		t.Errorf("device = %q", p.Device)
	}
	if !p.Sequence {
		t.Error("sequence flag lost")
	}
	if p.Cumulative != 7 || p.Index != 2 {
		t.Errorf("counters = %d/%d, want 7/2", p.Cumulative, p.Index)
	}
	if len(p.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(p.Entries))
	}
	if p.Entries[0].Setting != "Exposure" || p.Entries[0].Kind != KindWrite || p.Entries[0].Value != "50" {
		t.Errorf("entry 0 = %+v", p.Entries[0])
	}
	if p.Entries[2].Setting != "ShutterState" || p.Entries[2].Value != "true" {
		t.Errorf("entry 2 = %+v", p.Entries[2])
	}
}

func TestPackAndResetClearsLogButNotCounter(t *testing.T) {
	log := New()
	recordSample(log)

	buf := make([]byte, 4096)
	if _, err := log.PackAndReset(buf, "TCamera-0", true, 0, 0); err != nil {
		t.Fatalf("PackAndReset: %v", err)
	}
	if log.Len() != 0 {
		t.Fatalf("log not cleared: %d entries remain", log.Len())
	}

	g := log.Guard()
	g.RecordWrite("Exposure", "60")
	g.Release()

	entries := log.Snapshot()
	if entries[0].Seq != 3 {
		t.Errorf("sequence counter restarted: seq = %d, want 3", entries[0].Seq)
	}
}

func TestPackAndResetTruncation(t *testing.T) {
	log := New()
	recordSample(log)

	need := log.PackedSize("TCamera-0", false, 0, 0)

	// One byte short: deterministic truncation, no write past the buffer,
	// log retained.
	buf := make([]byte, need+8)
	for i := range buf {
		buf[i] = 0xAA
	}
	short := buf[:need-1]

	n, err := log.PackAndReset(short, "TCamera-0", false, 0, 0)
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("err = %v, want ErrInsufficientCapacity", err)
	}
	if n != need-1 {
		t.Errorf("wrote %d bytes, want %d", n, need-1)
	}
	for i := need - 1; i < len(buf); i++ {
		if buf[i] != 0xAA {
			t.Fatalf("byte %d past the buffer was overwritten", i)
		}
	}
	if log.Len() != 3 {
		t.Errorf("log cleared on truncation: %d entries remain", log.Len())
	}

	// A truncated payload must not decode cleanly.
	if _, decErr := Decode(short); decErr == nil {
		t.Error("truncated payload decoded without error")
	}

	// Retrying with a big enough buffer succeeds.
	if _, err := log.PackAndReset(buf, "TCamera-0", false, 0, 0); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestPackZeroFillsUnusedBuffer(t *testing.T) {
	log := New()

	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = 0xFF
	}
	n, err := log.PackAndReset(buf, "TCamera-1", false, 1, 0)
	if err != nil {
		t.Fatalf("PackAndReset: %v", err)
	}
	if !bytes.Equal(buf[n:], make([]byte, len(buf)-n)) {
		t.Error("unused buffer space not zero-filled")
	}
}

func TestDecodeRejectsPayloadCutAtFinalNewline(t *testing.T) {
	log := New()
	recordSample(log)

	buf := make([]byte, 4096)
	n, err := log.PackAndReset(buf, "TCamera-0", true, 0, 0)
	if err != nil {
		t.Fatalf("PackAndReset: %v", err)
	}

	if _, err := Decode(buf[:n]); err != nil {
		t.Fatalf("complete payload failed to decode: %v", err)
	}

	// Dropping only the newline after the terminator must still read as
	// truncation, or a cut payload would pass for a complete one.
	if _, err := Decode(buf[:n-1]); !errors.Is(err, ErrTruncatedPayload) {
		t.Errorf("payload short one byte: err = %v, want ErrTruncatedPayload", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("not a payload"),
		[]byte("SCOPESIM1\ndevice=x\n"),
	}
	for _, c := range cases {
		if _, err := Decode(c); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", c)
		}
	}
}

func TestEmptyLogPacksWithZeroEntries(t *testing.T) {
	log := New()

	buf := make([]byte, 256)
	if _, err := log.PackAndReset(buf, "TCamera-0", true, 0, 0); err != nil {
		t.Fatalf("PackAndReset: %v", err)
	}
	p, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Entries) != 0 {
		t.Errorf("expected empty digest, got %d entries", len(p.Entries))
	}
}
