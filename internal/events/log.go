package events

// Goroutine safety:
// The drain goroutine is the sole reader of l.ch and the sole writer to l.w.
// The ring buffer's own mutex handles concurrent Push and read calls.
// A nil *Log is valid: all methods become no-ops, so callers that run
// without an event log never have to check.

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hotradar/hotradar/internal/logging"
)

// writerChanSize is the capacity of the async write channel.
// At ~200 bytes/event, 4096 events buffers ~800KB.
const writerChanSize = 4096

// logEntry carries both serialized bytes (for disk) and the original
// Event (for the ring buffer), so fields like Dur survive unserialized.
type logEntry struct {
	data []byte
	ev   Event
}

// Log serializes events as JSONL via an async background writer and
// keeps the most recent events in a ring buffer. All emitted events
// flow through a buffered channel to a drain goroutine.
type Log struct {
	ring      *RingBuffer
	ch        chan logEntry
	w         io.Writer
	closer    io.Closer     // closed after drain exits; nil when w is not a file
	dropped   atomic.Uint64 // events dropped due to full channel, encode failure, or write error
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLog creates a Log writing JSONL to w asynchronously.
// Starts a background drain goroutine. Call Close to flush and stop.
func NewLog(w io.Writer, ringSize int) *Log {
	l := &Log{
		ring: NewRingBuffer(ringSize),
		ch:   make(chan logEntry, writerChanSize),
		w:    w,
		done: make(chan struct{}),
	}
	go l.drain()
	return l
}

// Open creates a Log appending to the JSONL file at path. An empty path
// keeps events in memory only.
func Open(path string, ringSize int) (*Log, error) {
	if path == "" {
		return NewLog(io.Discard, ringSize), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := NewLog(f, ringSize)
	l.closer = f
	return l, nil
}

// drain reads from ch and writes to disk and the ring buffer.
func (l *Log) drain() {
	defer close(l.done)
	for entry := range l.ch {
		if _, err := l.w.Write(entry.data); err != nil {
			l.dropped.Add(1)
		}
		l.ring.Push(entry.ev)
	}
}

// Emit writes an event to the log. Sets Time if zero. Non-blocking: if
// the channel is full or the log is closed, the event is dropped and
// the drop counter incremented. Safe on a nil Log and safe to call
// concurrently with Close; a racing send panic is recovered and counted
// as a drop.
func (l *Log) Emit(e Event) {
	if l == nil {
		return
	}
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	select {
	case l.ch <- logEntry{data: data, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Log) Info(kind Kind, e Event) {
	e.Level = LevelInfo
	e.Kind = kind
	l.Emit(e)
}

// Warn emits a warn-level event.
func (l *Log) Warn(kind Kind, e Event) {
	e.Level = LevelWarn
	e.Kind = kind
	l.Emit(e)
}

// Error emits an error-level event. Nil err is safe.
func (l *Log) Error(kind Kind, err error, e Event) {
	e.Level = LevelError
	e.Kind = kind
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// Recent returns the n most recent events in chronological order.
func (l *Log) Recent(n int) []Event {
	if l == nil {
		return nil
	}
	return l.ring.Last(n)
}

// Dropped returns the number of events dropped since creation.
func (l *Log) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close flushes pending events and stops the drain goroutine. Emit
// calls racing with Close are dropped, not panicked. Safe on nil.
func (l *Log) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if l.closer != nil {
			l.closer.Close()
		}
		if d := l.dropped.Load(); d > 0 {
			logging.Warn("Event log dropped events", "dropped", d)
		}
	})
}
