package sse

import (
	"bytes"
	"errors"
	"testing"
)

func feedInChunks(t *testing.T, s *Scanner, data []byte, chunkSize int) error {
	t.Helper()
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := s.Feed(data[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func TestScannerBasicEventsAndDone(t *testing.T) {
	var events [][]byte
	s := New(Limits{})
	s.OnEvent = func(_ string, d []byte) { events = append(events, append([]byte(nil), d...)) }

	input := []byte("data: hello\n\ndata: world\n\ndata: [DONE]\n\n")
	if err := feedInChunks(t, s, input, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsDone() {
		t.Fatalf("expected done")
	}
	if len(events) != 2 || string(events[0]) != "hello" || string(events[1]) != "world" {
		t.Fatalf("got events %v", events)
	}
}

func TestScannerIdempotentUnderChunking(t *testing.T) {
	input := []byte("data: a\ndata: b\n\ndata: {\"x\":1}\n\n")
	run := func(chunkSize int) [][]byte {
		var events [][]byte
		s := New(Limits{})
		s.OnEvent = func(_ string, d []byte) { events = append(events, append([]byte(nil), d...)) }
		if err := feedInChunks(t, s, input, chunkSize); err != nil {
			t.Fatalf("chunk size %d: unexpected error %v", chunkSize, err)
		}
		return events
	}
	base := run(1)
	for _, size := range []int{2, 3, 5, 7, len(input)} {
		got := run(size)
		if len(got) != len(base) {
			t.Fatalf("chunk size %d: event count mismatch", size)
		}
		for i := range got {
			if !bytes.Equal(got[i], base[i]) {
				t.Fatalf("chunk size %d: event %d mismatch: %q vs %q", size, i, got[i], base[i])
			}
		}
	}
}

func TestScannerCapMonotonicity(t *testing.T) {
	input := []byte("data: 1234567890\n\n")
	tight := Limits{MaxLineBytes: 8, MaxFrameBytes: 8, MaxSSEBufferBytes: 8, MaxTotalBytes: 8}
	s := New(tight)
	if err := s.Feed(input); err == nil {
		t.Fatalf("expected failure under tight limits")
	}

	loose := Limits{MaxLineBytes: 100, MaxFrameBytes: 100, MaxSSEBufferBytes: 100, MaxTotalBytes: 100}
	s2 := New(loose)
	if err := s2.Feed(input); err != nil {
		t.Fatalf("expected success under loose limits, got %v", err)
	}
}

func TestScannerLineOverflowShortCircuits(t *testing.T) {
	s := New(Limits{MaxLineBytes: 8})
	payload := []byte("data: 123456789")
	chunks := [][]byte{payload[0:5], payload[5:10], payload[10:]}

	if err := s.Feed(chunks[0]); err != nil {
		t.Fatalf("first chunk should not overflow yet: %v", err)
	}
	err := s.Feed(chunks[1])
	if !errors.Is(err, ErrOverflowLine) {
		t.Fatalf("expected ErrOverflowLine, got %v", err)
	}
	if err := s.Feed(chunks[2]); !errors.Is(err, ErrOverflowLine) {
		t.Fatalf("expected sticky ErrOverflowLine, got %v", err)
	}
}

func TestScannerFrameAbort(t *testing.T) {
	s := New(Limits{})
	s.OnFrame = func() bool { return false }
	err := s.Feed([]byte("data: x\n\n"))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestScannerIgnoresCommentsButParsesEventType(t *testing.T) {
	var events [][]byte
	var types []string
	s := New(Limits{})
	s.OnEvent = func(et string, d []byte) {
		types = append(types, et)
		events = append(events, d)
	}
	if err := s.Feed([]byte(": comment\nevent: custom\ndata: payload\n\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || string(events[0]) != "payload" {
		t.Fatalf("got events %v", events)
	}
	if types[0] != "custom" {
		t.Fatalf("expected event type %q, got %q", "custom", types[0])
	}
}

func TestScannerEventTypeResetsAtFrameBoundary(t *testing.T) {
	var types []string
	s := New(Limits{})
	s.OnEvent = func(et string, _ []byte) { types = append(types, et) }
	if err := s.Feed([]byte("event: custom\ndata: a\n\ndata: b\n\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(types) != 2 || types[0] != "custom" || types[1] != "message" {
		t.Fatalf("got event types %v, want [custom message]", types)
	}
}

// TestWriteEventRoundTrip asserts scan(write(event_type, data)) emits
// exactly one event whose data equals the input and whose event type
// equals the input, or "message" when absent.
func TestWriteEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	limits := Limits{}
	if err := WriteEvent(&buf, limits, "custom", []byte("hello world")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WriteEvent(&buf, limits, "", []byte("[DONE]")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var events [][]byte
	var types []string
	s := New(limits)
	s.OnEvent = func(et string, d []byte) {
		types = append(types, et)
		events = append(events, append([]byte(nil), d...))
	}
	if err := s.Feed(buf.Bytes()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || string(events[0]) != "hello world" {
		t.Fatalf("got events %v", events)
	}
	if types[0] != "custom" {
		t.Fatalf("expected event type %q, got %q", "custom", types[0])
	}
}

func TestWriteEventRoundTripDefaultsToMessage(t *testing.T) {
	var buf bytes.Buffer
	limits := Limits{}
	if err := WriteEvent(&buf, limits, "", []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var types []string
	s := New(limits)
	s.OnEvent = func(et string, _ []byte) { types = append(types, et) }
	if err := s.Feed(buf.Bytes()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(types) != 1 || types[0] != "message" {
		t.Fatalf("expected event type %q, got %v", "message", types)
	}
}

func TestWriteEventRejectsCRLF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEvent(&buf, Limits{}, "", []byte("bad\ndata")); !errors.Is(err, ErrBadInput) {
		t.Fatalf("expected ErrBadInput, got %v", err)
	}
}
