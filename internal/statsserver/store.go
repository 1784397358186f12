// Package statsserver is the statistics collector: it records endpoint hits
// and answers per-URI hit counts over a time window.
package statsserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
)

// ErrStoreClosed is returned by a Store after Close.
var ErrStoreClosed = errors.New("hit store is closed")

// Hit is one stored endpoint hit.
type Hit struct {
	App     string
	URI     string
	IP      string
	Created time.Time
}

// Store persists hits in SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// OpenStore opens or creates the hit database at path. Use ":memory:" in
// tests.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS hits (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			app     TEXT    NOT NULL,
			uri     TEXT    NOT NULL,
			ip      TEXT    NOT NULL,
			created INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hits_uri_created ON hits(uri, created)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Save records h.
func (s *Store) Save(ctx context.Context, h Hit) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hits (app, uri, ip, created) VALUES (?, ?, ?, ?)`,
		h.App, h.URI, h.IP, h.Created.UTC().Unix())
	if err != nil {
		return fmt.Errorf("save hit: %w", err)
	}
	return nil
}

// Stats counts hits per (app, uri) in [q.Start, q.End], most viewed first.
// With q.Unique each client IP counts once per URI. Empty q.URIs selects
// every URI.
func (s *Store) Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	count := "COUNT(*)"
	if q.Unique {
		count = "COUNT(DISTINCT ip)"
	}
	query := `SELECT app, uri, ` + count + ` AS hits FROM hits WHERE created BETWEEN ? AND ?`
	args := []any{q.Start.UTC().Unix(), q.End.UTC().Unix()}
	if len(q.URIs) > 0 {
		query += ` AND uri IN (?` + strings.Repeat(`, ?`, len(q.URIs)-1) + `)`
		for _, u := range q.URIs {
			args = append(args, u)
		}
	}
	query += ` GROUP BY app, uri ORDER BY hits DESC, uri ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	out := []stats.ViewStats{}
	for rows.Next() {
		var v stats.ViewStats
		if err := rows.Scan(&v.App, &v.URI, &v.Hits); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return out, nil
}

// Close releases the database. Further calls return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
