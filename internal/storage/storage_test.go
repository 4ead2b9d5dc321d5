package storage

import (
	"path/filepath"
	"testing"
)

func TestNewStorage(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewStorage(dbPath)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("db should not be nil")
	}
}

func TestNewStorage_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewStorage(dbPath)
	if err != nil {
		t.Fatalf("NewStorage failed to create directories: %v", err)
	}
	defer store.Close()
}

func TestRecordSession_AndSessions(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	rec := SessionRecord{
		PathID:          "abc123",
		Source:          "/sessions/run1",
		FrameCount:      120,
		DistinctAfter:   90,
		ComponentsAfter: 40,
		Radius:          10,
	}
	if err := store.RecordSession(rec); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}

	records, err := store.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 session, got %d", len(records))
	}
	got := records[0]
	if got.PathID != "abc123" || got.Source != "/sessions/run1" || got.FrameCount != 120 ||
		got.DistinctAfter != 90 || got.ComponentsAfter != 40 || got.Radius != 10 {
		t.Errorf("recorded session mismatch: %+v", got)
	}
}

func TestSessions_MostRecentFirst(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	store.RecordSession(SessionRecord{PathID: "first", Source: "a", Radius: 5})
	store.RecordSession(SessionRecord{PathID: "second", Source: "b", Radius: 5})

	records, err := store.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(records) != 2 || records[0].PathID != "second" || records[1].PathID != "first" {
		t.Errorf("expected most-recent-first order, got %+v", records)
	}
}

func TestSeenPathIDs(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	store.RecordSession(SessionRecord{PathID: "s1", Source: "x", Radius: 5})
	store.RecordSession(SessionRecord{PathID: "s2", Source: "x", Radius: 5})

	ids, err := store.SeenPathIDs()
	if err != nil {
		t.Fatalf("SeenPathIDs failed: %v", err)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["s1"] || !seen["s2"] || len(ids) != 2 {
		t.Errorf("expected [s1 s2], got %v", ids)
	}
}

func TestSessionCount(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	count, err := store.SessionCount()
	if err != nil {
		t.Fatalf("SessionCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("initial count = %d, want 0", count)
	}

	store.RecordSession(SessionRecord{PathID: "s1", Source: "x", Radius: 5})
	count, err = store.SessionCount()
	if err != nil {
		t.Fatalf("SessionCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestRecordSession_DuplicatePathIDFails(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	rec := SessionRecord{PathID: "dup", Source: "x", Radius: 5}
	if err := store.RecordSession(rec); err != nil {
		t.Fatalf("first RecordSession failed: %v", err)
	}
	if err := store.RecordSession(rec); err == nil {
		t.Error("expected error recording a duplicate path_id")
	}
}

func TestReset(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer store.Close()

	store.RecordSession(SessionRecord{PathID: "s1", Source: "x", Radius: 5})
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	count, _ := store.SessionCount()
	if count != 0 {
		t.Errorf("count after reset = %d, want 0", count)
	}
}

func TestMigrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewStorage(dbPath)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}

	version := store.getSchemaVersion()
	if version != schemaVersion {
		t.Errorf("schema version = %d, want %d", version, schemaVersion)
	}
	store.Close()

	store2, err := NewStorage(dbPath)
	if err != nil {
		t.Fatalf("second NewStorage failed: %v", err)
	}
	defer store2.Close()

	if v := store2.getSchemaVersion(); v != schemaVersion {
		t.Errorf("schema version after reopen = %d, want %d", v, schemaVersion)
	}
}
