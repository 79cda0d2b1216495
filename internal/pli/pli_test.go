package pli

import (
	"testing"

	"github.com/opencover/hyfd/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, rows [][]string) *table.Table {
	t.Helper()
	return &table.Table{Rows: rows, NumRows: len(rows), NumAttrs: len(rows[0])}
}

func TestBuild_SingletonsDiscarded(t *testing.T) {
	p := Build(0, []string{"x", "y", "x", "z"}, 4)
	require.Len(t, p.Clusters, 1)
	assert.Equal(t, []int{0, 2}, p.Clusters[0])
}

func TestBuild_SortedBySizeDescending(t *testing.T) {
	p := Build(0, []string{"a", "b", "a", "b", "a"}, 5)
	require.Len(t, p.Clusters, 2)
	assert.True(t, len(p.Clusters[0]) >= len(p.Clusters[1]))
	assert.Equal(t, []int{0, 2, 4}, p.Clusters[0])
}

func TestIsConstant(t *testing.T) {
	p := Build(0, []string{"1", "1", "1"}, 3)
	assert.True(t, p.IsConstant())

	p2 := Build(0, []string{"1", "2", "1"}, 3)
	assert.False(t, p2.IsConstant())
}

func TestBuildSet_ReindexesBySize(t *testing.T) {
	// att0 is a key (all singletons -> 0 clusters), att1 is constant.
	tb := mustTable(t, [][]string{
		{"1", "a"},
		{"2", "a"},
		{"3", "a"},
	})
	s := BuildSet(tb)
	// att1 (constant) has 1 non-singleton cluster of size 3 -> NumberOfParts=1.
	// att0 (all-unique) has 0 clusters, 3 singletons -> NumberOfParts=3.
	assert.Equal(t, 0, s.OriginalIndex(0))
	assert.Equal(t, 1, s.OriginalIndex(1))
}

func TestClusterIndex_AgreementSemantics(t *testing.T) {
	tb := mustTable(t, [][]string{
		{"a", "1"},
		{"a", "2"},
		{"b", "1"},
	})
	s := BuildSet(tb)
	// Rows 0 and 1 agree on attribute "a" (original col 0).
	origToReindexed := map[int]int{}
	for i := range s.PLIs {
		origToReindexed[s.OriginalIndex(i)] = i
	}
	a0 := origToReindexed[0]
	assert.Equal(t, s.ClusterIndex[0][a0], s.ClusterIndex[1][a0])
	assert.GreaterOrEqual(t, s.ClusterIndex[0][a0], 0)
}

func TestSortClustersByNeighborKey_DoesNotRepartition(t *testing.T) {
	tb := mustTable(t, [][]string{
		{"a", "1"},
		{"a", "2"},
		{"a", "1"},
	})
	s := BuildSet(tb)
	before := map[int][]int{}
	for a, p := range s.PLIs {
		for ci, c := range p.Clusters {
			cp := append([]int(nil), c...)
			before[a*1000+ci] = cp
		}
	}
	s.SortClustersByNeighborKey()
	for a, p := range s.PLIs {
		for ci, c := range p.Clusters {
			orig := before[a*1000+ci]
			assert.ElementsMatch(t, orig, c)
		}
	}
}
