// Package store provides SQLite persistence for hotspots.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hotradar/hotradar/internal/model"
)

// Store handles persistence of hotspots. All methods are safe for
// concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at the given database path, creating tables if
// they don't exist. WAL mode is enabled for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hotspots (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source_id TEXT NOT NULL,
		list_rank INTEGER NOT NULL DEFAULT 0,
		heat_score INTEGER NOT NULL DEFAULT 0,
		tags TEXT,
		structure TEXT,
		analysis TEXT,
		match_score REAL NOT NULL DEFAULT 0,
		target_id TEXT,
		enrichment_partial INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hotspots_score ON hotspots(match_score DESC);
	CREATE INDEX IF NOT EXISTS idx_hotspots_target ON hotspots(target_id, match_score DESC);
	CREATE INDEX IF NOT EXISTS idx_hotspots_source ON hotspots(source_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Upsert writes one hotspot keyed by URL. A fresh capture of a known
// URL overwrites its enrichment and scoring fields; the URL and the
// source that first carried it stay as written. created reports
// whether the row is new.
func (s *Store) Upsert(h model.Hotspot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(h)
}

// UpsertBatch writes many hotspots in one transaction, returning the
// count of newly created rows.
func (s *Store) UpsertBatch(hotspots []model.Hotspot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, h := range hotspots {
		isNew, err := s.upsertLocked(h)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

func (s *Store) upsertLocked(h model.Hotspot) (bool, error) {
	if h.URL == "" {
		return false, fmt.Errorf("hotspot has no URL")
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM hotspots WHERE url = ?", h.URL).Scan(&exists); err != nil {
		return false, fmt.Errorf("check existing: %w", err)
	}

	tags, err := json.Marshal(h.Tags)
	if err != nil {
		return false, fmt.Errorf("marshal tags: %w", err)
	}
	structure, err := json.Marshal(h.Structure)
	if err != nil {
		return false, fmt.Errorf("marshal structure: %w", err)
	}
	analysis, err := json.Marshal(h.Analysis)
	if err != nil {
		return false, fmt.Errorf("marshal analysis: %w", err)
	}

	now := time.Now().UTC()
	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.db.Exec(`
		INSERT INTO hotspots (
			url, title, source_id, list_rank, heat_score, tags,
			structure, analysis, match_score, target_id,
			enrichment_partial, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			list_rank = excluded.list_rank,
			heat_score = excluded.heat_score,
			tags = excluded.tags,
			structure = excluded.structure,
			analysis = excluded.analysis,
			match_score = excluded.match_score,
			target_id = excluded.target_id,
			enrichment_partial = excluded.enrichment_partial,
			updated_at = excluded.updated_at
	`,
		h.URL, h.Title, h.SourceID, h.Rank, h.HeatScore, string(tags),
		string(structure), string(analysis), h.MatchScore, h.TargetID,
		boolToInt(h.EnrichmentPartial), createdAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", h.URL, err)
	}
	return exists == 0, nil
}

// Visible returns hotspots for a target at or above the score
// threshold, highest score first, heat breaking ties. Rows sharing a
// title collapse to the best-scoring one. The threshold applies at
// read time; low scorers stay stored.
func (s *Store) Visible(targetID string, minScore float64, limit, offset int) ([]model.Hotspot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT url, title, source_id, list_rank, heat_score, tags,
			structure, analysis, match_score, target_id,
			enrichment_partial, created_at, updated_at
		FROM hotspots
		WHERE match_score >= ?`
	args := []any{minScore}
	if targetID != "" {
		query += " AND target_id = ?"
		args = append(args, targetID)
	}
	query += " ORDER BY match_score DESC, heat_score DESC"

	rows, err := s.queryHotspots(query, args...)
	if err != nil {
		return nil, err
	}

	deduped := dedupeByTitle(rows)
	return window(deduped, limit, offset), nil
}

// Recent returns the latest captures regardless of score, newest
// update first.
func (s *Store) Recent(limit int) ([]model.Hotspot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	return s.queryHotspots(`
		SELECT url, title, source_id, list_rank, heat_score, tags,
			structure, analysis, match_score, target_id,
			enrichment_partial, created_at, updated_at
		FROM hotspots
		ORDER BY updated_at DESC
		LIMIT ?`, limit)
}

// Get returns one hotspot by URL.
func (s *Store) Get(url string) (model.Hotspot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryHotspots(`
		SELECT url, title, source_id, list_rank, heat_score, tags,
			structure, analysis, match_score, target_id,
			enrichment_partial, created_at, updated_at
		FROM hotspots
		WHERE url = ?`, url)
	if err != nil {
		return model.Hotspot{}, false, err
	}
	if len(rows) == 0 {
		return model.Hotspot{}, false, nil
	}
	return rows[0], true, nil
}

// Stats summarizes the table for status displays.
type Stats struct {
	Total    int
	BySource map[string]int
	ByTarget map[string]int
}

// GetStats returns row counts overall and per source and target.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{BySource: map[string]int{}, ByTarget: map[string]int{}}

	if err := s.db.QueryRow("SELECT COUNT(1) FROM hotspots").Scan(&st.Total); err != nil {
		return st, fmt.Errorf("count hotspots: %w", err)
	}

	rows, err := s.db.Query("SELECT source_id, COUNT(1) FROM hotspots GROUP BY source_id")
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return st, err
		}
		st.BySource[id] = n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	trows, err := s.db.Query("SELECT COALESCE(target_id, ''), COUNT(1) FROM hotspots GROUP BY target_id")
	if err != nil {
		return st, err
	}
	defer trows.Close()
	for trows.Next() {
		var id string
		var n int
		if err := trows.Scan(&id, &n); err != nil {
			return st, err
		}
		st.ByTarget[id] = n
	}
	return st, trows.Err()
}

func (s *Store) queryHotspots(query string, args ...any) ([]model.Hotspot, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Hotspot
	for rows.Next() {
		var h model.Hotspot
		var tags, structure, analysis sql.NullString
		var partial int
		var targetID sql.NullString
		err := rows.Scan(
			&h.URL, &h.Title, &h.SourceID, &h.Rank, &h.HeatScore, &tags,
			&structure, &analysis, &h.MatchScore, &targetID,
			&partial, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan hotspot: %w", err)
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &h.Tags); err != nil {
				return nil, fmt.Errorf("decode tags for %s: %w", h.URL, err)
			}
		}
		if structure.Valid && structure.String != "" {
			if err := json.Unmarshal([]byte(structure.String), &h.Structure); err != nil {
				return nil, fmt.Errorf("decode structure for %s: %w", h.URL, err)
			}
		}
		if analysis.Valid && analysis.String != "" {
			if err := json.Unmarshal([]byte(analysis.String), &h.Analysis); err != nil {
				return nil, fmt.Errorf("decode analysis for %s: %w", h.URL, err)
			}
		}
		h.TargetID = targetID.String
		h.EnrichmentPartial = partial != 0
		out = append(out, h)
	}
	return out, rows.Err()
}

// dedupeByTitle keeps the first (best-ranked) row per normalized
// title. The same story trends on several platforms at once.
func dedupeByTitle(rows []model.Hotspot) []model.Hotspot {
	seen := make(map[string]bool, len(rows))
	out := make([]model.Hotspot, 0, len(rows))
	for _, h := range rows {
		key := strings.ToLower(strings.TrimSpace(h.Title))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

func window(rows []model.Hotspot, limit, offset int) []model.Hotspot {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
