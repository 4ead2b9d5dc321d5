package session

import (
	"testing"

	"gamecov/internal/coverage"
)

func TestPathID_OrderIndependent(t *testing.T) {
	a := PathID([]uint64{1, 2, 3})
	b := PathID([]uint64{3, 1, 2})
	if a != b {
		t.Errorf("PathID should not depend on input order: %q != %q", a, b)
	}
}

func TestPathID_DeduplicatesBeforeHashing(t *testing.T) {
	a := PathID([]uint64{1, 2, 3})
	b := PathID([]uint64{1, 1, 2, 3, 3, 3})
	if a != b {
		t.Errorf("PathID should ignore duplicate fingerprints: %q != %q", a, b)
	}
}

func TestPathID_DifferentSetsDiffer(t *testing.T) {
	a := PathID([]uint64{1, 2, 3})
	b := PathID([]uint64{1, 2, 4})
	if a == b {
		t.Error("different fingerprint sets should not collide")
	}
}

func TestIngest_SkipsSeenPath(t *testing.T) {
	tr := coverage.New(5)

	added, skipped := Ingest(tr, "session-1", []uint64{1, 2, 3})
	if skipped {
		t.Fatal("first ingest of a path should not be skipped")
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}

	added, skipped = Ingest(tr, "session-1", []uint64{4, 5})
	if !skipped {
		t.Fatal("re-ingesting the same path-ID should be skipped")
	}
	if added != 0 {
		t.Errorf("skipped ingest should add nothing, got %d", added)
	}
	if tr.DistinctCount() != 3 {
		t.Errorf("distinct count should be unaffected by a skipped session, got %d", tr.DistinctCount())
	}
}

func TestIngest_DifferentSessionsAccumulate(t *testing.T) {
	tr := coverage.New(5)

	Ingest(tr, "session-1", []uint64{0x00, 0x01})
	Ingest(tr, "session-2", []uint64{0xFF})

	if tr.DistinctCount() != 3 {
		t.Errorf("distinct count = %d, want 3", tr.DistinctCount())
	}
	if !tr.ContainsPath("session-1") || !tr.ContainsPath("session-2") {
		t.Error("both sessions should be recorded as seen")
	}
}
