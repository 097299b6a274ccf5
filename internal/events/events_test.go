package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRingBufferWrap(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Push(Event{Kind: KindEnrichItem, Count: i})
	}

	if rb.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", rb.Len())
	}
	snap := rb.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("Snapshot() returned %d events, want 4", len(snap))
	}
	for i, e := range snap {
		if e.Count != i+2 {
			t.Errorf("snap[%d].Count = %d, want %d", i, e.Count, i+2)
		}
	}
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer(8)
	for i := 0; i < 5; i++ {
		rb.Push(Event{Count: i})
	}

	last := rb.Last(3)
	if len(last) != 3 {
		t.Fatalf("Last(3) returned %d events", len(last))
	}
	for i, e := range last {
		if e.Count != i+2 {
			t.Errorf("last[%d].Count = %d, want %d", i, e.Count, i+2)
		}
	}

	if got := rb.Last(100); len(got) != 5 {
		t.Errorf("Last(100) returned %d events, want all 5", len(got))
	}
	if got := rb.Last(0); got != nil {
		t.Errorf("Last(0) = %v, want nil", got)
	}
}

func TestRingBufferCopiesExtra(t *testing.T) {
	rb := NewRingBuffer(4)
	extra := map[string]any{"phase": "fetch"}
	rb.Push(Event{Kind: KindFetchSource, Extra: extra})
	extra["phase"] = "mutated"

	snap := rb.Snapshot()
	if got := snap[0].Extra["phase"]; got != "fetch" {
		t.Errorf("stored Extra mutated through caller map: got %v", got)
	}
}

func TestLogWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(&buf, 16)

	l.Info(KindRunStart, Event{RunID: "job-1", Target: "womenswear"})
	l.Error(KindFetchError, fmt.Errorf("timeout"), Event{Source: "weibo"})
	l.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line is not valid JSON: %v", err)
	}
	if first.Kind != KindRunStart || first.RunID != "job-1" || first.Level != LevelInfo {
		t.Errorf("first event = %+v", first)
	}
	if first.Time.IsZero() {
		t.Error("Emit did not set Time")
	}

	var second Event
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line is not valid JSON: %v", err)
	}
	if second.Err != "timeout" || second.Level != LevelError {
		t.Errorf("second event = %+v", second)
	}
}

func TestLogRecent(t *testing.T) {
	l := NewLog(&bytes.Buffer{}, 16)
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Emit(Event{Kind: KindEnrichItem, Count: i})
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(l.Recent(5)) < 5 {
		if time.Now().After(deadline) {
			t.Fatal("drain goroutine never delivered events to ring buffer")
		}
		time.Sleep(time.Millisecond)
	}

	recent := l.Recent(2)
	if len(recent) != 2 || recent[1].Count != 4 {
		t.Errorf("Recent(2) = %+v", recent)
	}
}

func TestLogDropsAfterClose(t *testing.T) {
	l := NewLog(&bytes.Buffer{}, 16)
	l.Close()

	l.Emit(Event{Kind: KindEnrichItem})
	if l.Dropped() == 0 {
		t.Error("Emit after Close was not counted as dropped")
	}
}

func TestLogDurMs(t *testing.T) {
	data, err := json.Marshal(Event{Kind: KindFetchSource, Dur: 1500 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if ms, ok := raw["dur_ms"].(float64); !ok || ms != 1500 {
		t.Errorf("dur_ms = %v, want 1500", raw["dur_ms"])
	}
}

func TestNilLogIsSafe(t *testing.T) {
	var l *Log
	l.Emit(Event{Kind: KindRunStart})
	l.Info(KindRunStart, Event{})
	if got := l.Recent(10); got != nil {
		t.Errorf("nil Log Recent = %v, want nil", got)
	}
	if l.Dropped() != 0 {
		t.Error("nil Log reported drops")
	}
	l.Close()
}
