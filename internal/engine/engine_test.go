package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencover/hyfd/internal/config"
	"github.com/opencover/hyfd/internal/fdio"
	"github.com/opencover/hyfd/internal/sampler"
	"github.com/opencover/hyfd/internal/table"
	"github.com/opencover/hyfd/internal/validator"
)

func mustTable(t *testing.T, rows [][]string) *table.Table {
	t.Helper()
	return &table.Table{Rows: rows, NumRows: len(rows), NumAttrs: len(rows[0])}
}

func runToCompletion(t *testing.T, tb *table.Table) *Engine {
	t.Helper()
	cfg := Config{
		Sampler:   sampler.Config{EfficiencyThreshold: 0.3, LearningFactor: 0.5, EfficiencyLimit: 0.01},
		Validator: validator.Config{InvalidFDsThreshold: 0.3},
	}
	e := New(tb, cfg, nil, nil, Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bound iterations defensively so a stalled test fails fast instead of
	// hanging; these tiny synthetic tables converge in a handful of rounds.
	for i := 0; i < 200; i++ {
		more, err := e.step(ctx)
		require.NoError(t, err)
		if !more {
			break
		}
	}
	return e
}

func TestScenario_ConstantColumn(t *testing.T) {
	tb := mustTable(t, [][]string{{"x", "1"}, {"y", "1"}, {"z", "1"}})
	e := runToCompletion(t, tb)

	pairs := fdio.Translate(e.Tree.ReadFDs(), e.OriginalIndex, true)
	require.Len(t, pairs, 1)
	assert.Empty(t, pairs[0].LHS)
	assert.Equal(t, []int{1}, pairs[0].RHS)
}

func TestScenario_KeyColumn(t *testing.T) {
	tb := mustTable(t, [][]string{{"1", "a"}, {"2", "a"}, {"3", "b"}})
	e := runToCompletion(t, tb)

	pairs := fdio.Translate(e.Tree.ReadFDs(), e.OriginalIndex, true)
	found0to1, found1to0 := false, false
	for _, p := range pairs {
		if len(p.LHS) == 1 && p.LHS[0] == 0 && p.RHS[0] == 1 {
			found0to1 = true
		}
		if len(p.LHS) == 1 && p.LHS[0] == 1 && p.RHS[0] == 0 {
			found1to0 = true
		}
	}
	assert.True(t, found0to1, "att0 -> att1 must hold")
	assert.False(t, found1to0, "att1 -> att0 must not hold")
}

func TestScenario_CompositeKey(t *testing.T) {
	tb := mustTable(t, [][]string{
		{"a", "1", "x"},
		{"a", "2", "y"},
		{"b", "1", "y"},
		{"b", "2", "x"},
	})
	e := runToCompletion(t, tb)

	pairs := fdio.Translate(e.Tree.ReadFDs(), e.OriginalIndex, true)
	foundComposite := false
	for _, p := range pairs {
		if len(p.LHS) == 1 && p.RHS[0] == 2 {
			t.Fatalf("no shorter LHS than {0,1} should determine attribute 2, found lhs=%v", p.LHS)
		}
		if len(p.LHS) == 2 && p.LHS[0] == 0 && p.LHS[1] == 1 && p.RHS[0] == 2 {
			foundComposite = true
		}
	}
	assert.True(t, foundComposite, "{att0,att1} -> att2 must hold")
}

func TestStep_AppliesPendingThresholdUpdateWithoutBlocking(t *testing.T) {
	tb := mustTable(t, [][]string{{"x", "1"}, {"y", "1"}, {"z", "1"}})
	cfg := Config{
		Sampler:   sampler.Config{EfficiencyThreshold: 0.3, LearningFactor: 0.5, EfficiencyLimit: 0.01},
		Validator: validator.Config{InvalidFDsThreshold: 0.3},
	}
	e := New(tb, cfg, nil, nil, Hooks{})

	updates := make(chan config.Thresholds, 1)
	updates <- config.Thresholds{EfficiencyThreshold: 0.9, LearningFactor: 0.1, InvalidFDsThreshold: 0.5}
	e.ThresholdUpdates = updates

	_, err := e.step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.1, e.cfg.Sampler.LearningFactor)
	assert.Equal(t, 0.5, e.cfg.Validator.InvalidFDsThreshold)
}
