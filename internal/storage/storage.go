// Package storage persists the campaign ledger: a durable record of
// which sessions have been ingested and a snapshot of the coverage
// metric after each one. It deliberately does not persist the BK-tree or
// union-find state itself, so re-running a campaign means re-ingesting
// its raw fingerprint stream into a fresh in-memory Tracker, not
// deserializing one.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Storage wraps the campaign ledger database.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// NewStorage opens (creating if necessary) the ledger database at
// dbPath, creating parent directories as needed.
func NewStorage(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// schemaVersion is the current ledger schema version.
const schemaVersion = 1

// migrations defines all schema migrations. Each one must be idempotent
// (safe to run multiple times) since migrate applies every entry whose
// version exceeds the currently-recorded schema version on every startup.
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // handled by base schema creation
	},
}

func (s *Storage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path_id TEXT UNIQUE NOT NULL,
		source TEXT NOT NULL,
		frame_count INTEGER NOT NULL,
		distinct_after INTEGER NOT NULL,
		components_after INTEGER NOT NULL,
		radius INTEGER NOT NULL,
		ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_path_id ON sessions(path_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *Storage) migrate() error {
	current := s.getSchemaVersion()
	for _, m := range migrations {
		if m.version <= current || m.up == "" {
			s.setSchemaVersion(m.version)
			continue
		}
		if _, err := s.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}
		s.setSchemaVersion(m.version)
	}
	return nil
}

func (s *Storage) getSchemaVersion() int {
	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0
	}
	return version
}

func (s *Storage) setSchemaVersion(version int) {
	s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SessionRecord is one row of the campaign ledger: the snapshot of the
// coverage metric immediately after a session was ingested.
type SessionRecord struct {
	ID              int64
	PathID          string
	Source          string
	FrameCount      int
	DistinctAfter   int
	ComponentsAfter int
	Radius          int
	IngestedAt      time.Time
}

// RecordSession appends one ledger entry. It is a caller error to record
// the same path-ID twice; callers should check ContainsPath on the
// tracker (or SeenPathIDs here) before ingesting.
func (s *Storage) RecordSession(rec SessionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (path_id, source, frame_count, distinct_after, components_after, radius)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.PathID, rec.Source, rec.FrameCount, rec.DistinctAfter, rec.ComponentsAfter, rec.Radius)
	if err != nil {
		return fmt.Errorf("failed to record session %s: %w", rec.PathID, err)
	}
	return nil
}

// Sessions returns every recorded session, most recent first.
func (s *Storage) Sessions() ([]SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, path_id, source, frame_count, distinct_after, components_after, radius, ingested_at
		FROM sessions
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var ingestedAt string
		if err := rows.Scan(&rec.ID, &rec.PathID, &rec.Source, &rec.FrameCount,
			&rec.DistinctAfter, &rec.ComponentsAfter, &rec.Radius, &ingestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		rec.IngestedAt, _ = time.Parse("2006-01-02 15:04:05", ingestedAt)
		records = append(records, rec)
	}
	return records, nil
}

// SeenPathIDs returns every path-ID ever recorded, letting a caller warm
// a fresh in-memory Tracker's path_seen set across process restarts
// without reloading the BK-tree or union-find themselves.
func (s *Storage) SeenPathIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT path_id FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query path ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan path id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SessionCount returns the number of recorded sessions.
func (s *Storage) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// Reset clears the campaign ledger. It never touches an in-memory
// Tracker; callers that want a fresh coverage metric must also call
// Tracker.Reset.
func (s *Storage) Reset() error {
	_, err := s.db.Exec(`DELETE FROM sessions`)
	if err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	return nil
}
