package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// eventRecord mirrors events.Event for JSON decoding. Decoding from
// JSONL rather than importing the package keeps this subcommand usable
// even if the event schema evolves.
type eventRecord struct {
	Time   time.Time      `json:"t"`
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	RunID  string         `json:"run_id"`
	Target string         `json:"target"`
	Source string         `json:"source"`
	URL    string         `json:"url"`
	Count  int            `json:"count"`
	Score  float64        `json:"score"`
	DurMs  float64        `json:"dur_ms"`
	Err    string         `json:"err"`
	Msg    string         `json:"msg"`
	Extra  map[string]any `json:"extra"`
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	tail := fs.Int("tail", 50, "number of recent events to show")
	follow := fs.Bool("f", false, "follow mode (like tail -f)")
	kind := fs.String("kind", "", "filter by event kind prefix (e.g. 'fetch')")
	level := fs.String("level", "", "minimum level: debug, info, warn, error")
	runID := fs.String("run", "", "filter by run ID")
	rawJSON := fs.Bool("json", false, "output raw JSON lines")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	if cfg.EventLog == "" {
		fmt.Fprintln(os.Stderr, "error: no event_log configured")
		os.Exit(1)
	}

	f, err := os.Open(cfg.EventLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Event log not found at %s\n", cfg.EventLog)
		fmt.Fprintf(os.Stderr, "  Run the hotradar service first to generate events.\n")
		os.Exit(1)
	}
	defer f.Close()

	minLevel := levelRank(*level)

	matchFn := func(ev eventRecord) bool {
		if *kind != "" && !strings.HasPrefix(ev.Kind, *kind) {
			return false
		}
		if *level != "" && levelRank(ev.Level) < minLevel {
			return false
		}
		if *runID != "" && ev.RunID != *runID {
			return false
		}
		return true
	}

	formatFn := func(ev eventRecord, raw []byte) string {
		if *rawJSON {
			return string(raw)
		}
		ts := ev.Time.Format("15:04:05.000")
		lvl := strings.ToUpper(ev.Level)
		if lvl == "" {
			lvl = "?"
		}

		parts := []string{fmt.Sprintf("%s %-5s %-16s", ts, lvl, ev.Kind)}
		if ev.Msg != "" {
			parts = append(parts, "— "+ev.Msg)
		}
		if ev.DurMs > 0 {
			parts = append(parts, fmt.Sprintf("(%.1fms)", ev.DurMs))
		}
		if ev.Count > 0 {
			parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
		}
		if ev.Target != "" {
			parts = append(parts, "target="+ev.Target)
		}
		if ev.Source != "" {
			parts = append(parts, "src="+ev.Source)
		}
		if ev.URL != "" {
			parts = append(parts, "url="+ev.URL)
		}
		if ev.Score > 0 {
			parts = append(parts, fmt.Sprintf("score=%.2f", ev.Score))
		}
		if ev.Err != "" {
			parts = append(parts, "err="+ev.Err)
		}
		return strings.Join(parts, " ")
	}

	lines := readTailLines(f, *tail, matchFn)
	for _, l := range lines {
		fmt.Println(formatFn(l.ev, l.raw))
	}
	if !*follow {
		return
	}

	// Follow mode: poll for lines appended after the initial read.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if matchFn(ev) {
			fmt.Println(formatFn(ev, line))
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads the file and returns the last n lines matching
// the filter.
func readTailLines(f *os.File, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(f)
	// Allow large lines in case an Extra map grows.
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[len(ring)-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}
