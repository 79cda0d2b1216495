// Package mincover implements LinClosure and the minimal-cover reduction
// over a set of functional dependencies already in canonical form
// (spec.md §4.7).
package mincover

import "sort"

// FD is a functional dependency LHS -> RHS, both attribute-index sets.
type FD struct {
	LHS []int
	RHS []int
}

// LinClosure computes the closure of x under fds in linear time: an
// inverted index from attribute to the FDs referencing it in their LHS,
// plus a per-FD remaining-LHS-attribute counter, lets each FD activate
// exactly once, when every LHS attribute has entered the closure
// (spec.md §4.7).
func LinClosure(fds []FD, x []int) []int {
	closure := make(map[int]bool, len(x))
	byAttr := make(map[int][]int)
	counters := make([]int, len(fds))
	for i, fd := range fds {
		counters[i] = len(fd.LHS)
		for _, a := range fd.LHS {
			byAttr[a] = append(byAttr[a], i)
		}
	}

	frontier := make([]int, 0, len(x))
	for _, a := range x {
		if !closure[a] {
			closure[a] = true
			frontier = append(frontier, a)
		}
	}
	// FDs with an empty LHS have nothing to wait for: activate them now.
	for i, fd := range fds {
		if counters[i] != 0 {
			continue
		}
		for _, r := range fd.RHS {
			if !closure[r] {
				closure[r] = true
				frontier = append(frontier, r)
			}
		}
	}

	for len(frontier) > 0 {
		a := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, i := range byAttr[a] {
			counters[i]--
			if counters[i] != 0 {
				continue
			}
			for _, r := range fds[i].RHS {
				if !closure[r] {
					closure[r] = true
					frontier = append(frontier, r)
				}
			}
		}
	}

	out := make([]int, 0, len(closure))
	for a := range closure {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}

// MinimalCover reduces fds to an equivalent cover with no redundant FD and
// no redundant RHS attribute, via augment-then-test-each-entry (spec.md
// §4.7).
func MinimalCover(fds []FD) []FD {
	working := make([]FD, len(fds))
	for i, fd := range fds {
		working[i] = FD{LHS: sortedCopy(fd.LHS), RHS: sortedCopy(union(fd.RHS, fd.LHS))}
	}

	for i := range working {
		saved := working[i]
		working[i] = FD{}

		closure := LinClosure(working, saved.LHS)
		diff := subtract(saved.RHS, closure)
		if len(diff) == 0 {
			// B_i is wholly implied by the rest of the cover: leave entry i
			// zeroed, marking it for removal.
			continue
		}
		working[i] = FD{LHS: saved.LHS, RHS: diff}
	}

	out := make([]FD, 0, len(working))
	for _, fd := range working {
		if len(fd.RHS) > 0 {
			out = append(out, fd)
		}
	}
	return out
}

func sortedCopy(s []int) []int {
	out := append([]int(nil), s...)
	sort.Ints(out)
	return out
}

func union(a, b []int) []int {
	set := make(map[int]bool, len(a)+len(b))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func subtract(all, remove []int) []int {
	removeSet := make(map[int]bool, len(remove))
	for _, v := range remove {
		removeSet[v] = true
	}
	var out []int
	for _, v := range all {
		if !removeSet[v] {
			out = append(out, v)
		}
	}
	return out
}
