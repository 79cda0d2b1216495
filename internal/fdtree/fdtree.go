// Package fdtree implements the FD prefix tree: the structure of
// currently-conjectured valid minimal functional dependencies (spec.md
// §3, §4.2). Nodes live in a flat arena and reference their parent by
// integer index rather than a pointer, so the tree owns no reference
// cycles (spec.md §9).
package fdtree

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMissingPath is returned by Remove when the LHS path does not exist in
// the tree — an internal invariant violation per spec.md §7.
var ErrMissingPath = errors.New("fdtree: remove of a missing FD path")

const rootIdx = 0

type node struct {
	att      int // -1 for the root
	parent   int // -1 for the root
	children map[int]int
	rhs      []bool
}

// Tree holds the conjectured valid minimal FDs. Each root-to-node path
// encodes an LHS attribute set; a node's RHS bit-set encodes the attributes
// for which that LHS is currently believed to functionally determine them.
type Tree struct {
	nAtts int
	nodes []node
	// nFDs is the number of (LHS, single rhs attribute) pairs currently set,
	// maintained incrementally for cheap stats reporting.
	nFDs int
}

// New creates an empty tree (just the root, all RHS bits clear).
func New(nAtts int) *Tree {
	t := &Tree{nAtts: nAtts}
	t.nodes = []node{{att: -1, parent: -1, children: map[int]int{}, rhs: make([]bool, nAtts)}}
	return t
}

// NumFDs is the total count of (LHS, rhs) pairs currently held.
func (t *Tree) NumFDs() int { return t.nFDs }

// Node is a reference to a node in the tree's arena, exposing the
// lhs/rhs/children contract spec.md §4.2 requires.
type Node struct {
	tree *Tree
	idx  int
}

// Valid reports whether this Node refers to a real arena slot (Add returns
// an invalid Node when the path already existed — mirroring the original's
// "new_node stays None unless a node was actually created" behavior).
func (n Node) Valid() bool { return n.tree != nil && n.idx >= 0 }

// LHS reconstructs the attribute set for this node by walking parent links.
func (n Node) LHS() []int {
	var lhs []int
	cur := n.idx
	for cur != rootIdx {
		nd := &n.tree.nodes[cur]
		lhs = append(lhs, nd.att)
		cur = nd.parent
	}
	sort.Ints(lhs)
	return lhs
}

// RHSs returns the attributes for which LHS -> a currently holds at this node.
func (n Node) RHSs() []int {
	nd := &n.tree.nodes[n.idx]
	var out []int
	for a, v := range nd.rhs {
		if v {
			out = append(out, a)
		}
	}
	return out
}

// Children returns this node's child nodes, in attribute key order.
func (n Node) Children() []Node {
	nd := &n.tree.nodes[n.idx]
	keys := sortedKeys(nd.children)
	out := make([]Node, 0, len(keys))
	for _, k := range keys {
		out = append(out, Node{tree: n.tree, idx: nd.children[k]})
	}
	return out
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Add traverses/creates the path for lhs (in attribute-sorted order) and
// sets the given rhs bits at the resulting node. Returns an invalid Node if
// the full path already existed (no node was newly created along it),
// matching the source's "new_node" semantics used by callers to know
// whether a genuinely new tree node was produced.
func (t *Tree) Add(lhs []int, rhss []int) Node {
	sLHS := sortedCopy(lhs)
	cur := rootIdx
	createdIdx := -1
	for _, att := range sLHS {
		if child, ok := t.nodes[cur].children[att]; ok {
			cur = child
			continue
		}
		t.nodes = append(t.nodes, node{att: att, parent: cur, children: map[int]int{}, rhs: make([]bool, t.nAtts)})
		idx := len(t.nodes) - 1
		t.nodes[cur].children[att] = idx
		cur = idx
		createdIdx = idx
	}
	for _, rhs := range rhss {
		if !t.nodes[cur].rhs[rhs] {
			t.nodes[cur].rhs[rhs] = true
			t.nFDs++
		}
	}
	if createdIdx == -1 {
		return Node{}
	}
	return Node{tree: t, idx: cur}
}

func sortedCopy(s []int) []int {
	out := append([]int(nil), s...)
	sort.Ints(out)
	return out
}

// Remove clears the rhs bit at the node for lhs. The path is not pruned —
// its subtree may still hold more specific FDs.
func (t *Tree) Remove(lhs []int, rhs int) error {
	sLHS := sortedCopy(lhs)
	cur := rootIdx
	for _, att := range sLHS {
		child, ok := t.nodes[cur].children[att]
		if !ok {
			return fmt.Errorf("%w: lhs=%v rhs=%d", ErrMissingPath, lhs, rhs)
		}
		cur = child
	}
	if t.nodes[cur].rhs[rhs] {
		t.nodes[cur].rhs[rhs] = false
		t.nFDs--
	}
	return nil
}

// GetLevel returns all nodes at depth k (LHS of size k).
func (t *Tree) GetLevel(k int) []Node {
	var out []Node
	var walk func(idx, depth int)
	walk = func(idx, depth int) {
		if depth == k {
			out = append(out, Node{tree: t, idx: idx})
			return
		}
		for _, att := range sortedKeys(t.nodes[idx].children) {
			walk(t.nodes[idx].children[att], depth+1)
		}
	}
	walk(rootIdx, 0)
	return out
}

// FD is one (LHS, RHS-set) pair as returned by ReadFDs.
type FD struct {
	LHS []int
	RHS []int
}

// ReadFDs enumerates every (LHS, RHS-bitset) pair with at least one RHS bit
// set, grouping all RHS attributes that currently hold for a given LHS into
// a single pair (spec.md §4.2).
func (t *Tree) ReadFDs() []FD {
	var out []FD
	var walk func(idx int, base []int)
	walk = func(idx int, base []int) {
		if rhss := (Node{tree: t, idx: idx}).RHSs(); len(rhss) > 0 {
			out = append(out, FD{LHS: append([]int(nil), base...), RHS: rhss})
		}
		for _, att := range sortedKeys(t.nodes[idx].children) {
			walk(t.nodes[idx].children[att], append(base, att))
		}
	}
	walk(rootIdx, nil)
	return out
}

// GetFDAndGenerals enumerates every existing LHS' subseteq lhs for which
// LHS' -> rhs holds, including lhs itself.
func (t *Tree) GetFDAndGenerals(lhs []int, rhs int) [][]int {
	lhsSet := toSet(lhs)
	maxLHS, hasLHS := maxOf(lhs)
	var out [][]int
	var walk func(idx int, base []int)
	walk = func(idx int, base []int) {
		if t.nodes[idx].rhs[rhs] {
			out = append(out, append([]int(nil), base...))
		}
		if !hasLHS {
			return
		}
		for _, att := range sortedKeys(t.nodes[idx].children) {
			if lhsSet[att] {
				walk(t.nodes[idx].children[att], append(base, att))
			} else if att > maxLHS {
				break
			}
		}
	}
	walk(rootIdx, nil)
	return out
}

// FDHasGenerals reports whether any existing FD LHS' -> rhs with
// LHS' subseteq lhs is present in the tree.
func (t *Tree) FDHasGenerals(lhs []int, rhs int) bool {
	lhsSet := toSet(lhs)
	maxLHS, hasLHS := maxOf(lhs)
	found := false
	var walk func(idx int)
	walk = func(idx int) {
		if found {
			return
		}
		if t.nodes[idx].rhs[rhs] {
			found = true
			return
		}
		if !hasLHS {
			return
		}
		for _, att := range sortedKeys(t.nodes[idx].children) {
			if found {
				return
			}
			if lhsSet[att] {
				walk(t.nodes[idx].children[att])
			} else if att > maxLHS {
				break
			}
		}
	}
	walk(rootIdx)
	return found
}

func toSet(s []int) map[int]bool {
	m := make(map[int]bool, len(s))
	for _, v := range s {
		m[v] = true
	}
	return m
}

func maxOf(s []int) (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	m := s[0]
	for _, v := range s[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// Specialize implements spec.md §4.2's specialize contract: for every node
// with LHS' subseteq lhs that has an invalid rhs bit set (one of rhss), clear
// that bit, then for every attribute c not in lhs union {rhs} add
// LHS' union {c} -> rhs unless a more-general FD already covers it. Returns
// the newly created nodes (invalid Nodes, i.e. reused paths, are omitted).
func (t *Tree) Specialize(lhs []int, rhss []int) []Node {
	var newNodes []Node
	lhsSet := toSet(lhs)
	for _, rhs := range rhss {
		invalidLHSs := t.GetFDAndGenerals(lhs, rhs)
		for _, invalidLHS := range invalidLHSs {
			if err := t.Remove(invalidLHS, rhs); err != nil {
				// The caller constructed invalidLHS from the tree itself in
				// the same pass, so a missing path here is a genuine
				// internal invariant violation; surface it loudly rather
				// than silently skipping.
				panic(err)
			}
			for x := 0; x < t.nAtts; x++ {
				if lhsSet[x] || x == rhs {
					continue
				}
				newLHS := append(append([]int(nil), invalidLHS...), x)
				if t.FDHasGenerals(newLHS, rhs) {
					continue
				}
				n := t.Add(newLHS, []int{rhs})
				if n.Valid() {
					newNodes = append(newNodes, n)
				}
			}
		}
	}
	return newNodes
}
