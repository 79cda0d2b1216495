// Package engine orchestrates the preprocess -> sample -> induct -> validate
// loop and owns the go_on state machine (spec.md §2 step 5, §5).
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencover/hyfd/internal/config"
	"github.com/opencover/hyfd/internal/fdtree"
	"github.com/opencover/hyfd/internal/inductor"
	"github.com/opencover/hyfd/internal/metrics"
	"github.com/opencover/hyfd/internal/nonfd"
	"github.com/opencover/hyfd/internal/pli"
	"github.com/opencover/hyfd/internal/sampler"
	"github.com/opencover/hyfd/internal/suggestion"
	"github.com/opencover/hyfd/internal/table"
	"github.com/opencover/hyfd/internal/telemetry"
	"github.com/opencover/hyfd/internal/validator"
)

// ErrInvariant marks an internal invariant violation (spec.md §7): a
// condition the algorithm's own correctness guarantees, not user input,
// should have prevented.
var ErrInvariant = errors.New("engine: internal invariant violation")

// Config bundles the sampler/validator thresholds the engine wires together.
type Config struct {
	Sampler   sampler.Config
	Validator validator.Config
}

// IterationSnapshot is a point-in-time view of the loop's observability
// state, published to Hooks.OnIteration after every sample/induct/validate
// cycle — the data internal/tui and internal/statusserver render
// (SPEC_FULL.md §4.1, §4.2).
type IterationSnapshot struct {
	Iteration           int
	FDCount             int
	EfficiencyQueueLen  int
	BestEfficiency      float64
	EfficiencyThreshold float64
	EfficiencyLimit     float64
	NonFDTrieSize       int
	ValidationLevel     int
}

// Hooks lets callers observe per-iteration state without the engine
// depending on any specific UI (internal/tui, internal/statusserver
// connect through this seam per SPEC_FULL.md §6/§7).
type Hooks struct {
	// OnIteration is called after every sample/induct/validate cycle with
	// a snapshot of the loop's current observability state.
	OnIteration func(snap IterationSnapshot)
	// AfterFDsChanged is called whenever the FD tree's contents may have
	// changed, so a caller can flush partial output (spec.md §6).
	AfterFDsChanged func(tree *fdtree.Tree)
}

// Engine runs the hybrid sampling/induction/validation loop over one table.
type Engine struct {
	Table  *table.Table
	PLISet *pli.Set
	Tree   *fdtree.Tree

	sampler   *sampler.Sampler
	inductor  *inductor.Inductor
	validator *validator.Validator

	metrics *metrics.Registry
	tracer  *telemetry.Provider
	hooks   Hooks
	cfg     Config

	iteration   int
	suggestions []suggestion.Suggestion

	// ThresholdUpdates, when set, is polled once per step (between
	// passes, never mid-pass) for a hot-reloaded threshold set pushed by
	// --watch-thresholds' fsnotify watcher (SPEC_FULL.md §4.6).
	ThresholdUpdates <-chan config.Thresholds
}

// New builds an Engine by preprocessing t (spec.md §2 step 1): one PLI per
// attribute, reindexed by NumberOfParts descending, plus the cluster-id
// matrix.
func New(t *table.Table, cfg Config, reg *metrics.Registry, tracer *telemetry.Provider, hooks Hooks) *Engine {
	set := pli.BuildSet(t)
	nonFDs := nonfd.New(set.NumAttrs)
	tree := fdtree.New(set.NumAttrs)

	e := &Engine{
		Table:     t,
		PLISet:    set,
		Tree:      tree,
		sampler:   sampler.New(set, nonFDs, cfg.Sampler),
		inductor:  inductor.New(tree, nonFDs, set.NumAttrs),
		validator: validator.New(tree, set, cfg.Validator),
		metrics:   reg,
		tracer:    tracer,
		hooks:     hooks,
		cfg:       cfg,
	}
	if reg != nil {
		reg.SetTableShape(t.NumRows, t.NumAttrs)
	}
	return e
}

// OriginalIndex maps a reindexed attribute back to its original column
// (spec.md §9).
func (e *Engine) OriginalIndex(i int) int { return e.PLISet.OriginalIndex(i) }

// Run executes the full discovery loop until go_on clears or ctx is
// cancelled. ctx is checked only between iterations, so on cancellation it
// returns once the in-progress sample/induct/validate cycle completes; that
// cycle has already handed Tree to Hooks.AfterFDsChanged, which is where
// the caller flushes output, always safe since the tree is a
// monotone-correctness structure (spec.md §5).
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil // cooperative interrupt: caller flushes Tree and exits 0.
		}
		more, err := e.step(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// step runs one full sample -> induct -> validate cycle and reports
// whether the loop should continue (spec.md §2 step 5's combined go_on).
func (e *Engine) step(ctx context.Context) (bool, error) {
	e.pollThresholdUpdate()

	goOnSampling, err := e.samplePass(ctx, e.suggestions)
	if err != nil {
		return false, err
	}
	e.suggestions = nil

	if err := e.inductPass(ctx); err != nil {
		return false, err
	}

	goOnValidating := true
	for {
		res, err := e.validateLevel(ctx)
		if err != nil {
			return false, err
		}
		e.suggestions = append(e.suggestions, res.Suggestions...)
		if res.Done {
			goOnValidating = false
			break
		}
		if res.YieldToSampling {
			break
		}
	}

	e.iteration++
	snap := IterationSnapshot{
		Iteration:           e.iteration,
		FDCount:             e.Tree.NumFDs(),
		EfficiencyQueueLen:  e.sampler.QueueLen(),
		BestEfficiency:      e.sampler.BestEfficiency(),
		EfficiencyThreshold: e.sampler.Threshold(),
		EfficiencyLimit:     e.cfg.Sampler.EfficiencyLimit,
		NonFDTrieSize:       e.sampler.NonFDCount(),
		ValidationLevel:     e.validator.Level(),
	}
	if e.metrics != nil {
		e.metrics.RecordIteration()
		e.metrics.SetFDsFound(snap.FDCount)
		e.metrics.SetEfficiencyQueueLength(snap.EfficiencyQueueLen)
		e.metrics.SetNonFDTrieSize(snap.NonFDTrieSize)
	}
	if e.hooks.OnIteration != nil {
		e.hooks.OnIteration(snap)
	}
	if e.hooks.AfterFDsChanged != nil {
		e.hooks.AfterFDsChanged(e.Tree)
	}

	return goOnSampling && goOnValidating, nil
}

// pollThresholdUpdate applies at most one pending hot-reloaded threshold
// set without blocking, so a step never waits on the watcher goroutine.
func (e *Engine) pollThresholdUpdate() {
	if e.ThresholdUpdates == nil {
		return
	}
	select {
	case t, ok := <-e.ThresholdUpdates:
		if !ok {
			e.ThresholdUpdates = nil
			return
		}
		e.cfg.Sampler.EfficiencyThreshold = t.EfficiencyThreshold
		e.cfg.Sampler.LearningFactor = t.LearningFactor
		e.cfg.Validator.InvalidFDsThreshold = t.InvalidFDsThreshold
		e.sampler.SetConfig(e.cfg.Sampler)
		e.validator.SetConfig(e.cfg.Validator)
	default:
	}
}

func (e *Engine) samplePass(ctx context.Context, suggestions []suggestion.Suggestion) (bool, error) {
	_, end := e.startPhase(ctx, "sample")
	defer func() { end(nil) }()
	if e.sampler == nil {
		return false, fmt.Errorf("%w: engine has no sampler configured", ErrInvariant)
	}
	return e.sampler.Pass(suggestions), nil
}

func (e *Engine) inductPass(ctx context.Context) error {
	_, end := e.startPhase(ctx, "induct")
	defer func() { end(nil) }()
	e.inductor.Run()
	return nil
}

func (e *Engine) validateLevel(ctx context.Context) (validator.LevelResult, error) {
	_, end := e.startPhase(ctx, "validate")
	defer func() { end(nil) }()
	return e.validator.RunLevel(), nil
}

func (e *Engine) startPhase(ctx context.Context, phase string) (context.Context, telemetry.EndFunc) {
	if e.tracer == nil {
		return ctx, func(error) {}
	}
	return e.tracer.StartPhase(ctx, phase, e.iteration+1)
}
