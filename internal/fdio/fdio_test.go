package fdio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencover/hyfd/internal/fdtree"
)

func TestTranslate_MapsToOriginal(t *testing.T) {
	// reindexed 0 -> original 2, reindexed 1 -> original 0.
	toOriginal := map[int]int{0: 2, 1: 0}
	fds := []fdtree.FD{{LHS: []int{1}, RHS: []int{0}}}

	pairs := Translate(fds, func(i int) int { return toOriginal[i] }, true)
	require.Len(t, pairs, 1)
	assert.Equal(t, []int{0}, pairs[0].LHS)
	assert.Equal(t, []int{2}, pairs[0].RHS)
}

func TestTranslate_DropsConstantColumnFDsWhenDisabled(t *testing.T) {
	fds := []fdtree.FD{{LHS: nil, RHS: []int{0, 1}}}
	pairs := Translate(fds, func(i int) int { return i }, false)
	assert.Empty(t, pairs)

	pairsKept := Translate(fds, func(i int) int { return i }, true)
	assert.Len(t, pairsKept, 2)
}

func TestWriteAtomic_AndReadPairsRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fds.json")
	pairs := []Pair{{LHS: []int{0}, RHS: []int{1}}}

	require.NoError(t, WriteAtomic(path, pairs))
	got, err := ReadPairs(path)
	require.NoError(t, err)
	assert.Equal(t, pairs, got)
}

func TestAppendTSV_WritesStatsLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.tsv")

	s := Stats{
		DBName:        "test",
		OutputPath:    "fds.json",
		Timestamp:     strfmt.DateTime(time.Unix(0, 0).UTC()),
		Rows:          10,
		Attributes:    3,
		FDCount:       2,
		ReadTime:      time.Millisecond,
		ExecutionTime: time.Second,
		PeakRSSBytes:  1024,
	}
	require.NoError(t, AppendTSV(path, s))
	require.NoError(t, AppendTSV(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test\tfds.json")
}
