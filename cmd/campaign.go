package cmd

import (
	"fmt"

	"gamecov/internal/coverage"
	"gamecov/internal/storage"
)

// openCampaign opens the campaign ledger and rebuilds an in-memory
// Tracker by replaying every path-ID it has already recorded as seen.
// Per the coverage core's Non-goal on persisting the index itself, the
// ledger never stores the BK-tree or union-find state — only which
// sessions were ingested and what the metric looked like afterward — so
// a CLI invocation always starts from an empty index and needs only
// path_seen warmed, not the distinct/component counts it previously
// produced.
func openCampaign(dbPath string, radius int) (*storage.Storage, *coverage.Tracker, error) {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open campaign ledger: %w", err)
	}

	tracker := coverage.New(uint8(radius))
	seen, err := store.SeenPathIDs()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to warm path-seen set: %w", err)
	}
	for _, id := range seen {
		tracker.AddPath(id)
	}

	return store, tracker, nil
}

// recordFor builds the campaign-ledger row for a just-ingested session,
// snapshotting the tracker's metric immediately afterward.
func recordFor(pathID, source string, frameCount int, tracker *coverage.Tracker) storage.SessionRecord {
	return storage.SessionRecord{
		PathID:          pathID,
		Source:          source,
		FrameCount:      frameCount,
		DistinctAfter:   tracker.DistinctCount(),
		ComponentsAfter: tracker.ComponentCount(),
		Radius:          int(tracker.Radius()),
	}
}
