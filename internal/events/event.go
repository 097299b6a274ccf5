// Package events records pipeline activity as typed JSONL events.
//
// Runs emit events through a Log, which writes them asynchronously via
// a buffered channel and background drain goroutine. A ring buffer keeps
// the most recent events in memory for the API's live inspection endpoint.
package events

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Kind identifies the category of a pipeline event.
// Dot-delimited: "<phase>.<action>".
type Kind string

const (
	// Run lifecycle
	KindRunStart    Kind = "run.start"
	KindRunComplete Kind = "run.complete"
	KindRunError    Kind = "run.error"

	// Acquisition
	KindFetchSource Kind = "fetch.source"
	KindFetchError  Kind = "fetch.error"

	// Enrichment
	KindEnrichItem     Kind = "enrich.item"
	KindEnrichDegraded Kind = "enrich.degraded"
	KindEnrichError    Kind = "enrich.error"

	// Scoring and persistence
	KindScoreVeto    Kind = "score.veto"
	KindStoreCreated Kind = "store.created"
	KindStoreError   Kind = "store.error"

	// System
	KindStartup  Kind = "sys.startup"
	KindShutdown Kind = "sys.shutdown"
)

// Event is the universal pipeline record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time   time.Time      `json:"t"`
	Level  Level          `json:"level,omitempty"`
	Kind   Kind           `json:"kind"`
	RunID  string         `json:"run_id,omitempty"` // job ID, same for an entire run
	Target string         `json:"target,omitempty"`
	Source string         `json:"source,omitempty"`
	URL    string         `json:"url,omitempty"`
	Count  int            `json:"count,omitempty"`
	Score  float64        `json:"score,omitempty"`
	Dur    time.Duration  `json:"-"`                // not serialized directly
	DurMs  float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Err    string         `json:"err,omitempty"`
	Msg    string         `json:"msg,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := struct {
		alias
	}{alias: alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
