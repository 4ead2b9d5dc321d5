// Package session handles host-side ingestion: deriving a stable
// path-ID for a batch of fingerprints and driving a coverage.Tracker
// with session-level deduplication. None of this lives inside
// internal/coverage because the core never interprets path-IDs — they
// are an opaque convenience for callers, not part of the coverage
// metric.
package session

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"gamecov/internal/coverage"
)

// PathID returns a stable identifier for a session's fingerprint set:
// the SHA-1 hex digest of the sorted, deduplicated fingerprints. Two
// sessions that recorded the same set of fingerprints, regardless of
// frame order, get the same path-ID.
func PathID(fingerprints []uint64) string {
	sorted := append([]uint64(nil), fingerprints...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	h := sha1.New()
	buf := make([]byte, 8)
	var prev uint64
	first := true
	for _, fp := range sorted {
		if !first && fp == prev {
			continue // dedupe before hashing so repeated frames never affect the digest
		}
		binary.BigEndian.PutUint64(buf, fp)
		h.Write(buf)
		prev = fp
		first = false
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Ingest drives tracker with one session's fingerprints: if the
// session's path-ID has already been recorded, it is skipped entirely
// (the session contributes nothing the tracker hasn't already seen);
// otherwise every fingerprint is added and the path-ID is marked seen.
// It returns how many fingerprints were newly allocated IDs, and whether
// the session was skipped because its path-ID had already been seen.
func Ingest(tracker *coverage.Tracker, pathID string, fingerprints []uint64) (added int, skipped bool) {
	if tracker.ContainsPath(pathID) {
		return 0, true
	}
	added = tracker.AddAll(fingerprints)
	tracker.AddPath(pathID)
	return added, false
}
