// Package inductor drains observed non-FDs into specializations of the FD
// prefix tree (spec.md §4.5).
package inductor

import (
	"github.com/opencover/hyfd/internal/fdtree"
	"github.com/opencover/hyfd/internal/nonfd"
)

// Inductor seeds the FD tree with the trivial ∅ → {0,...,N-1} on first use,
// then specializes the tree against each newly observed non-FD.
type Inductor struct {
	tree   *fdtree.Tree
	nonFDs *nonfd.Set
	seeded bool
	nAtts  int
}

// New creates an Inductor over tree, consuming observations from nonFDs.
func New(tree *fdtree.Tree, nonFDs *nonfd.Set, nAtts int) *Inductor {
	return &Inductor{tree: tree, nonFDs: nonFDs, nAtts: nAtts}
}

// Run seeds the tree on first call, then drains every unread non-FD
// observation and specializes the tree against it.
func (ind *Inductor) Run() {
	if !ind.seeded {
		ind.seeded = true
		all := make([]int, ind.nAtts)
		for i := range all {
			all[i] = i
		}
		ind.tree.Add(nil, all)
	}

	for _, m := range ind.nonFDs.DrainUnread() {
		var lhs, rhss []int
		for a, agree := range m {
			if agree {
				lhs = append(lhs, a)
			} else {
				rhss = append(rhss, a)
			}
		}
		if len(rhss) == 0 {
			continue
		}
		ind.tree.Specialize(lhs, rhss)
	}
}
