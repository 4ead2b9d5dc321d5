// Package coverage ties a BK-tree and a union-find forest together into
// the coverage metric: the number of connected components of the graph
// whose vertices are observed 64-bit fingerprints and whose edges join
// pairs within a fixed Hamming-distance radius.
package coverage

import (
	"gamecov/internal/bktree"
	"gamecov/internal/unionfind"
)

const maxRadius = 64

// Tracker is the coverage monitor: it owns a BK-tree, a union-find
// forest, and a fingerprint-to-ID map, and exposes add/contains/count
// operations over them. A Tracker is not safe for concurrent mutation;
// callers that parallelize frame extraction must funnel results through
// a single writer.
type Tracker struct {
	radius   uint8
	tree     *bktree.Tree
	uf       *unionfind.UnionFind
	keyToID  map[uint64]uint32
	pathSeen map[string]struct{}
}

// New returns an empty Tracker clustering fingerprints within radius
// Hamming-distance of one another. radius is clamped to [0, 64].
func New(radius uint8) *Tracker {
	if radius > maxRadius {
		radius = maxRadius
	}
	return &Tracker{
		radius:   radius,
		tree:     bktree.New(),
		uf:       unionfind.New(),
		keyToID:  make(map[uint64]uint32),
		pathSeen: make(map[string]struct{}),
	}
}

// Add records a fingerprint. It returns true iff key was newly
// allocated an ID; an exact duplicate returns false and changes
// nothing. On a new key, the BK-tree is queried for neighbours within
// Radius() before the key itself is inserted, so the query never
// matches the key being added; the new ID is then unioned with every
// neighbour's ID, preserving the invariant that all pairs within radius
// end up in the same component regardless of insertion order.
func (t *Tracker) Add(key uint64) bool {
	if _, exists := t.keyToID[key]; exists {
		return false
	}

	neighbours, _ := t.tree.FindWithinDistance(key, t.radius)

	t.tree.Insert(key)
	id := t.uf.MakeSet()
	t.keyToID[key] = id

	for _, n := range neighbours {
		nid := t.keyToID[n]
		t.uf.Union(id, nid)
	}

	return true
}

// AddAll adds every key in keys, in order, and returns how many were
// newly allocated.
func (t *Tracker) AddAll(keys []uint64) int {
	added := 0
	for _, k := range keys {
		if t.Add(k) {
			added++
		}
	}
	return added
}

// AddPath records a session path-ID and reports whether it was new.
// path_seen has no bearing on the clustering metric; it exists purely
// so callers can skip already-processed sessions.
func (t *Tracker) AddPath(pathID string) bool {
	if _, exists := t.pathSeen[pathID]; exists {
		return false
	}
	t.pathSeen[pathID] = struct{}{}
	return true
}

// ContainsPath reports whether pathID has already been recorded via
// AddPath.
func (t *Tracker) ContainsPath(pathID string) bool {
	_, exists := t.pathSeen[pathID]
	return exists
}

// ContainsKey reports whether key has exact-match presence in the
// index.
func (t *Tracker) ContainsKey(key uint64) bool {
	_, exists := t.keyToID[key]
	return exists
}

// ComponentCount returns the number of disjoint visual clusters
// discovered so far — the order-independent coverage metric.
func (t *Tracker) ComponentCount() int {
	return t.uf.Count()
}

// DistinctCount returns the number of distinct fingerprints ever added.
// It is monotonically non-decreasing.
func (t *Tracker) DistinctCount() int {
	return t.tree.Size()
}

// Radius returns the clustering radius fixed at construction.
func (t *Tracker) Radius() uint8 {
	return t.radius
}

// Reset returns the tracker to its empty state, keeping the configured
// radius.
func (t *Tracker) Reset() {
	t.tree = bktree.New()
	t.uf = unionfind.New()
	t.keyToID = make(map[uint64]uint32)
	t.pathSeen = make(map[string]struct{})
}
