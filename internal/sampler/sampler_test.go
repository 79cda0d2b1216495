package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencover/hyfd/internal/nonfd"
	"github.com/opencover/hyfd/internal/pli"
	"github.com/opencover/hyfd/internal/suggestion"
	"github.com/opencover/hyfd/internal/table"
)

func mustTable(t *testing.T, rows [][]string) *table.Table {
	t.Helper()
	return &table.Table{Rows: rows, NumRows: len(rows), NumAttrs: len(rows[0])}
}

func TestMatch_RequiresNonNegativeAndEqual(t *testing.T) {
	m := Match([]int{3, -1, 2}, []int{3, -1, 5})
	assert.Equal(t, []bool{true, false, false}, m)
}

func TestPass_FirstEntrySeedsQueueAndObserves(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"a", "1"},
		{"a", "1"},
		{"b", "2"},
		{"b", "3"},
	})
	set := pli.BuildSet(tbl)
	nf := nonfd.New(set.NumAttrs)
	s := New(set, nf, Config{EfficiencyThreshold: 0.01, LearningFactor: 0.5, EfficiencyLimit: 0.001})

	goOn := s.Pass(nil)
	assert.False(t, goOn, "every cluster here has two rows, so window 2 exhausts each entry and the queue empties")
	assert.True(t, nf.Len() >= 1, "disagreeing rows within a cluster must yield a non-FD")
}

func TestPass_SuggestionsObservedAndThresholdShrinks(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"a", "1"},
		{"a", "2"},
		{"b", "1"},
		{"b", "2"},
	})
	set := pli.BuildSet(tbl)
	nf := nonfd.New(set.NumAttrs)
	s := New(set, nf, Config{EfficiencyThreshold: 0.5, LearningFactor: 0.5, EfficiencyLimit: 0.0})
	s.Pass(nil)

	before := nf.Len()
	thresholdBefore := s.Threshold()
	s.Pass([]suggestion.Suggestion{{RowI: 0, RowJ: 1}})
	require.Equal(t, thresholdBefore*0.5, s.Threshold())
	assert.True(t, nf.Len() >= before)
}

func TestPass_StopsWhenEfficiencyLimitReached(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"a", "1"},
		{"b", "2"},
		{"c", "3"},
		{"d", "4"},
	})
	set := pli.BuildSet(tbl)
	nf := nonfd.New(set.NumAttrs)
	s := New(set, nf, Config{EfficiencyThreshold: 0.01, LearningFactor: 0.5, EfficiencyLimit: 1})

	goOn := s.Pass(nil)
	assert.False(t, goOn, "threshold at or below the efficiency limit must stop sampling")
}

func TestPass_QueueEmptiesWhenAllEntriesDone(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"a"},
		{"a"},
	})
	set := pli.BuildSet(tbl)
	nf := nonfd.New(set.NumAttrs)
	s := New(set, nf, Config{EfficiencyThreshold: 0.0001, LearningFactor: 0.9, EfficiencyLimit: 0.0})

	goOn := s.Pass(nil)
	assert.False(t, goOn, "a single 2-row cluster exhausts its only comparison on the first window")
}

func TestAccessors_ReflectQueueAndNonFDState(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"a", "1"},
		{"a", "1"},
		{"b", "2"},
		{"b", "3"},
	})
	set := pli.BuildSet(tbl)
	nf := nonfd.New(set.NumAttrs)
	s := New(set, nf, Config{EfficiencyThreshold: 0.01, LearningFactor: 0.5, EfficiencyLimit: 0.001})

	assert.Equal(t, 0, s.QueueLen(), "queue is empty before the first pass")
	assert.Equal(t, float64(0), s.BestEfficiency(), "an empty queue must not panic Best()")
	assert.Equal(t, 0, s.NonFDCount())

	s.Pass(nil)

	assert.Equal(t, s.queue.Len(), s.QueueLen())
	assert.Equal(t, nf.Len(), s.NonFDCount())
	if s.queue.Len() > 0 {
		assert.Equal(t, s.queue.Best().Eval(), s.BestEfficiency())
	}
}

func TestSetConfig_UpdatesLearningFactorAndLimitOnly(t *testing.T) {
	tbl := mustTable(t, [][]string{{"a"}, {"b"}})
	set := pli.BuildSet(tbl)
	nf := nonfd.New(set.NumAttrs)
	s := New(set, nf, Config{EfficiencyThreshold: 0.5, LearningFactor: 0.5, EfficiencyLimit: 0.1})

	s.SetConfig(Config{EfficiencyThreshold: 0.9, LearningFactor: 0.25, EfficiencyLimit: 0.2})

	assert.Equal(t, 0.5, s.Threshold(), "in-flight threshold must not be reset by a hot reload")
	assert.Equal(t, 0.25, s.cfg.LearningFactor)
	assert.Equal(t, 0.2, s.cfg.EfficiencyLimit)
}
