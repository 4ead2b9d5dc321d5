// Package bktree implements a BK-tree (Burkhard-Keller tree) over 64-bit
// keys, indexed by Hamming distance. Each child edge is labelled with the
// distance from parent to child, which lets radius queries prune whole
// subtrees using the triangle inequality instead of visiting every node.
package bktree

import (
	"fmt"
	"math/bits"
)

// maxDistance is the largest possible Hamming distance between two
// 64-bit keys; edge labels and query radii both live in [0, maxDistance].
const maxDistance = 64

// node is one stored key. children is a sparse array indexed by edge
// label (distance 1..64); children[0] is never populated since a
// distance-0 child would be an exact duplicate, which Insert rejects
// before it reaches this point.
type node struct {
	key      uint64
	children [maxDistance + 1]*node
}

// Tree is a BK-tree over uint64 keys using HammingDistance as its metric.
// The zero value is not usable; construct with New.
type Tree struct {
	root *node
	size int
}

// New returns an empty BK-tree.
func New() *Tree {
	return &Tree{}
}

// HammingDistance returns the number of differing bits between a and b,
// i.e. popcount(a XOR b). This is a true metric: it is zero iff a == b,
// symmetric, and satisfies the triangle inequality, which is what makes
// FindWithinDistance's pruning correct.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Insert adds key to the tree. It returns true if key was newly inserted
// and false if a node with that exact key already existed. Running time
// is O(tree height), expected O(log Size()) for random keys.
func (t *Tree) Insert(key uint64) bool {
	n := &node{key: key}

	if t.root == nil {
		t.root = n
		t.size++
		return true
	}

	cur := t.root
	for {
		d := HammingDistance(key, cur.key)
		if d == 0 {
			return false
		}
		if cur.children[d] == nil {
			cur.children[d] = n
			t.size++
			return true
		}
		cur = cur.children[d]
	}
}

// Contains reports whether key is present in the tree (a distance-0
// membership test).
func (t *Tree) Contains(key uint64) bool {
	cur := t.root
	for cur != nil {
		d := HammingDistance(key, cur.key)
		if d == 0 {
			return true
		}
		cur = cur.children[d]
	}
	return false
}

// FindWithinDistance returns every stored key within Hamming distance
// radius of query. radius must be in [0, 64]; order of the result is
// unspecified. An empty tree returns an empty, non-nil slice.
func (t *Tree) FindWithinDistance(query uint64, radius uint8) ([]uint64, error) {
	if radius > maxDistance {
		return nil, fmt.Errorf("bktree: radius %d out of range [0, %d]", radius, maxDistance)
	}

	results := make([]uint64, 0)
	if t.root == nil {
		return results, nil
	}

	r := int(radius)
	var visit func(n *node)
	visit = func(n *node) {
		d := HammingDistance(query, n.key)
		if d <= r {
			results = append(results, n.key)
		}

		// Triangle inequality: a descendant reached via edge label ℓ is
		// at distance >= |d - ℓ| from query, so only children whose edge
		// label falls in [d-r, d+r] can contain a match.
		lo := d - r
		if lo < 0 {
			lo = 0
		}
		hi := d + r
		if hi > maxDistance {
			hi = maxDistance
		}
		for label := lo; label <= hi; label++ {
			if child := n.children[label]; child != nil {
				visit(child)
			}
		}
	}
	visit(t.root)

	return results, nil
}

// Size returns the number of keys stored in the tree.
func (t *Tree) Size() int {
	return t.size
}
