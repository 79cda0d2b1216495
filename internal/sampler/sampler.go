// Package sampler implements windowed row-pair sampling over position-list
// indexes, producing the non-FD observations that drive induction
// (spec.md §4.4).
package sampler

import (
	"github.com/opencover/hyfd/internal/efficiency"
	"github.com/opencover/hyfd/internal/nonfd"
	"github.com/opencover/hyfd/internal/pli"
	"github.com/opencover/hyfd/internal/suggestion"
)

// Config holds the tunable thresholds from spec.md §6.
type Config struct {
	// EfficiencyThreshold is the initial cutoff ratio; it shrinks by
	// LearningFactor every pass after the first.
	EfficiencyThreshold float64
	// LearningFactor multiplies the threshold each subsequent pass; strictly
	// between 0 and 1.
	LearningFactor float64
	// EfficiencyLimit is the floor at or below which sampling stops entirely.
	EfficiencyLimit float64
}

// Sampler runs windowed sampling passes over a PLI set, maintaining the
// efficiency queue and feeding the non-FD set.
type Sampler struct {
	set       *pli.Set
	nonFDs    *nonfd.Set
	queue     *efficiency.Queue
	threshold float64
	cfg       Config
	started   bool
}

// New creates a Sampler over set, depositing non-FD observations into nonFDs.
func New(set *pli.Set, nonFDs *nonfd.Set, cfg Config) *Sampler {
	return &Sampler{
		set:       set,
		nonFDs:    nonFDs,
		queue:     efficiency.NewQueue(),
		threshold: cfg.EfficiencyThreshold,
		cfg:       cfg,
	}
}

// Threshold returns the current efficiency threshold (for telemetry).
func (s *Sampler) Threshold() float64 { return s.threshold }

// QueueLen returns the number of entries remaining in the efficiency
// queue, for observability (SPEC_FULL.md §4.1).
func (s *Sampler) QueueLen() int { return s.queue.Len() }

// BestEfficiency returns the current best entry's efficiency value, or 0
// if the queue is empty.
func (s *Sampler) BestEfficiency() float64 {
	if s.queue.Len() == 0 {
		return 0
	}
	return s.queue.Best().Eval()
}

// NonFDCount returns the number of distinct non-FD observations recorded
// so far.
func (s *Sampler) NonFDCount() int { return s.nonFDs.Len() }

// SetConfig applies a hot-reloaded configuration (SPEC_FULL.md §4.6): the
// learning factor and efficiency limit take effect on the next Pass. The
// in-flight threshold is left untouched so a reload never resets progress
// already made this run.
func (s *Sampler) SetConfig(cfg Config) {
	s.cfg.LearningFactor = cfg.LearningFactor
	s.cfg.EfficiencyLimit = cfg.EfficiencyLimit
}

// Match computes the agreement mask between two rows given their cluster-id
// rows from the PLI set's ClusterIndex (spec.md §4.4).
func Match(rowP, rowQ []int) []bool {
	m := make([]bool, len(rowP))
	for a := range rowP {
		m[a] = rowP[a] >= 0 && rowP[a] == rowQ[a]
	}
	return m
}

func allTrue(m []bool) bool {
	for _, b := range m {
		if !b {
			return false
		}
	}
	return true
}

func (s *Sampler) observe(p, q int) {
	m := Match(s.set.ClusterIndex[p], s.set.ClusterIndex[q])
	if !allTrue(m) {
		s.nonFDs.Append(m)
	}
}

// runWindow runs one window pass over every cluster of e's PLI, counting
// comparisons and non-FD yields into e.
func (s *Sampler) runWindow(e *efficiency.Entry) {
	clusters := s.set.PLIs[e.Att].Clusters
	before := s.nonFDs.Len()
	for _, cluster := range clusters {
		for i := 0; i+e.Window-1 < len(cluster); i++ {
			p, q := cluster[i], cluster[i+e.Window-1]
			s.observe(p, q)
			e.IncreaseComps()
		}
	}
	e.Results += float64(s.nonFDs.Len() - before)
}

// Pass runs one sampling pass. suggestions is empty on the very first call.
// It returns whether sampling should continue in future passes (go_on).
func (s *Sampler) Pass(suggestions []suggestion.Suggestion) bool {
	if !s.started {
		s.started = true
		s.set.SortClustersByNeighborKey()
		for a, p := range s.set.PLIs {
			clusterSizes := make([]int, len(p.Clusters))
			for i, c := range p.Clusters {
				clusterSizes[i] = len(c)
			}
			e := efficiency.New(a, clusterSizes)
			s.runWindow(e)
			s.queue.Add(e)
		}
	} else {
		for _, sg := range suggestions {
			s.observe(sg.RowI, sg.RowJ)
		}
		s.threshold *= s.cfg.LearningFactor
	}

	goOn := true
	for {
		s.queue.DropDone()
		if s.queue.Len() == 0 {
			goOn = false
			break
		}
		best := s.queue.Best()
		best.Window++
		s.runWindow(best)
		s.queue.DropDone()
		if best.Eval() < s.threshold {
			break
		}
	}

	if s.threshold <= s.cfg.EfficiencyLimit {
		goOn = false
	}
	return goOn
}
