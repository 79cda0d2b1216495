// Package pli builds and indexes position-list indexes: per-attribute
// partitions of row-ids by equal value, with singleton clusters omitted.
package pli

import (
	"sort"

	"github.com/opencover/hyfd/internal/table"
)

// PLI is the position-list index for one (reindexed) attribute: an ordered
// list of clusters, each a sorted slice of row-ids sharing a value, with
// singleton clusters discarded and clusters ordered by size descending.
type PLI struct {
	// OriginalAttr is the attribute's index in the source table, preserved
	// so output can be translated back out of the reindexed attribute
	// space (spec.md §9).
	OriginalAttr int
	Clusters     [][]int
	nrecs        int
}

// Build partitions a single column into a PLI, bucketing row-ids by value,
// discarding singleton buckets, and sorting buckets by size descending.
func Build(originalAttr int, column []string, nrecs int) *PLI {
	buckets := make(map[string][]int, len(column))
	for row, v := range column {
		buckets[v] = append(buckets[v], row)
	}

	clusters := make([][]int, 0, len(buckets))
	for _, ids := range buckets {
		if len(ids) > 1 {
			sort.Ints(ids)
			clusters = append(clusters, ids)
		}
	}
	sort.Slice(clusters, func(i, j int) bool { return len(clusters[i]) > len(clusters[j]) })

	return &PLI{OriginalAttr: originalAttr, Clusters: clusters, nrecs: nrecs}
}

// Len returns the number of non-singleton clusters.
func (p *PLI) Len() int { return len(p.Clusters) }

// NumberOfParts is bucket_count + (R - sum of non-singleton bucket sizes);
// singletons count individually, used to globally sort attributes so
// attribute 0 has the finest partition (spec.md §4.1).
func (p *PLI) NumberOfParts() int {
	covered := 0
	for _, c := range p.Clusters {
		covered += len(c)
	}
	return len(p.Clusters) + (p.nrecs - covered)
}

// IsConstant reports whether the column has exactly one cluster spanning
// every row — i.e. the attribute is constant (spec.md §4.6, empty-LHS case).
func (p *PLI) IsConstant() bool {
	return len(p.Clusters) == 1 && len(p.Clusters[0]) == p.nrecs
}

// Set is the full collection of PLIs, sorted descending by NumberOfParts so
// attribute 0 (the reindexed space) has the finest partition, plus the
// derived row×attribute cluster-id matrix.
type Set struct {
	PLIs []*PLI
	// ClusterIndex[r][a] is -1 if row r is a singleton in (reindexed)
	// attribute a, else the index of its cluster in PLIs[a].Clusters.
	ClusterIndex [][]int
	NumAttrs     int
	NumRows      int
}

// BuildSet constructs one PLI per attribute of t, sorts attributes by
// NumberOfParts descending, and builds the cluster-id matrix (spec.md §3).
func BuildSet(t *table.Table) *Set {
	plis := make([]*PLI, t.NumAttrs)
	for a := 0; a < t.NumAttrs; a++ {
		plis[a] = Build(a, t.Column(a), t.NumRows)
	}
	sort.SliceStable(plis, func(i, j int) bool {
		return plis[i].NumberOfParts() > plis[j].NumberOfParts()
	})

	index := make([][]int, t.NumRows)
	for r := range index {
		index[r] = make([]int, t.NumAttrs)
	}
	for a, p := range plis {
		for r := range index {
			index[r][a] = -1
		}
		for cid, cluster := range p.Clusters {
			for _, r := range cluster {
				index[r][a] = cid
			}
		}
	}

	return &Set{PLIs: plis, ClusterIndex: index, NumAttrs: t.NumAttrs, NumRows: t.NumRows}
}

// OriginalIndex returns the permutation mapping reindexed attribute i back
// to its original column index (spec.md §9).
func (s *Set) OriginalIndex(i int) int {
	return s.PLIs[i].OriginalAttr
}

// SortClustersByNeighborKey reorders the contents (not the partition) of
// every cluster in every PLI by a neighbor-attribute key, to diversify row
// pairings during windowed sampling (spec.md §4.1). This must run exactly
// once, before the first sampling pass.
func (s *Set) SortClustersByNeighborKey() {
	n := s.NumAttrs
	for a, p := range s.PLIs {
		// ileft wraps to the last attribute when a==0 (matching the
		// original implementation's Python negative-index semantics).
		ileft := a - 1
		if ileft < 0 {
			ileft = n - 1
		}
		iright := a + 1
		if iright >= n {
			iright = 0
		}
		for _, cluster := range p.Clusters {
			sort.Slice(cluster, func(i, j int) bool {
				return neighborKey(s.ClusterIndex, cluster[i], ileft, iright) <
					neighborKey(s.ClusterIndex, cluster[j], ileft, iright)
			})
		}
	}
}

func neighborKey(index [][]int, row, ileft, iright int) int {
	if v := index[row][ileft]; v >= 0 {
		return v
	}
	return index[row][iright]
}
