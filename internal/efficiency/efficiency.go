// Package efficiency tracks, per attribute, how productive windowed
// sampling over that attribute's PLI has been (spec.md §3, §4.4).
package efficiency

import "sort"

// Entry is one attribute's sampling progress: the window size currently in
// use, comparisons performed, non-FDs produced, and the total number of
// comparisons possible in the PLI: C(n,2) summed over its clusters, i.e.
// every row pair, reached once the window has grown across every cluster.
type Entry struct {
	Att     int
	Window  int
	Comps   int
	Results float64
	Total   int
	Done    bool
}

// New creates an Entry for attribute att whose PLI has the given clusters,
// starting at window=2.
func New(att int, clusterSizes []int) *Entry {
	total := 0
	for _, size := range clusterSizes {
		total += binomial2(size)
	}
	return &Entry{Att: att, Window: 2, Total: total}
}

// binomial2 computes C(n,2) without risking factorial overflow.
func binomial2(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// IncreaseComps records one more comparison performed, marking the entry
// Done once every possible comparison in its PLI has been made.
func (e *Entry) IncreaseComps() {
	e.Comps++
	if e.Comps == e.Total {
		e.Done = true
	}
}

// Eval is the entry's efficiency: non-FDs produced per comparison spent.
// Division only happens after at least one comparison (spec.md §5).
func (e *Entry) Eval() float64 {
	if e.Comps == 0 {
		return 0
	}
	return e.Results / float64(e.Comps)
}

// Queue is the sampler's efficiency queue: one Entry per attribute,
// re-sorted by Eval() descending before each inner sampling step.
type Queue struct {
	entries []*Entry
}

// NewQueue creates an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Add appends an entry.
func (q *Queue) Add(e *Entry) { q.entries = append(q.entries, e) }

// Len is the number of entries still in the queue.
func (q *Queue) Len() int { return len(q.entries) }

// Entries exposes the underlying slice (read-only use expected).
func (q *Queue) Entries() []*Entry { return q.entries }

// Best returns the entry with the highest Eval() after sorting the queue.
// Panics if the queue is empty — callers must check Len() first.
func (q *Queue) Best() *Entry {
	sortDesc(q.entries)
	return q.entries[0]
}

// DropDone removes every entry whose Done flag is set.
func (q *Queue) DropDone() {
	kept := q.entries[:0]
	for _, e := range q.entries {
		if !e.Done {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

func sortDesc(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Eval() > entries[j].Eval() })
}
