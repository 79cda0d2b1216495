// Package validator exactly verifies candidate FDs against the data via
// PLI refinement, walking the FD tree level by level (spec.md §4.6).
package validator

import (
	"strconv"
	"strings"

	"github.com/opencover/hyfd/internal/fdtree"
	"github.com/opencover/hyfd/internal/pli"
	"github.com/opencover/hyfd/internal/suggestion"
)

// Config holds the validator's tunable threshold (spec.md §6).
type Config struct {
	// InvalidFDsThreshold is the per-level fraction of invalid-to-valid FDs
	// above which validation yields back to sampling.
	InvalidFDsThreshold float64
}

// Validator walks the FD tree level by level, verifying candidates against
// PLI refinement and specializing away every FD that fails.
type Validator struct {
	tree  *fdtree.Tree
	set   *pli.Set
	cfg   Config
	level int
}

// New creates a Validator over tree and set.
func New(tree *fdtree.Tree, set *pli.Set, cfg Config) *Validator {
	return &Validator{tree: tree, set: set, cfg: cfg}
}

// SetConfig applies a hot-reloaded configuration (SPEC_FULL.md §4.6),
// taking effect on the next RunLevel call.
func (v *Validator) SetConfig(cfg Config) {
	v.cfg = cfg
}

// Level returns the FD-tree level currently being validated, for
// observability (SPEC_FULL.md §4.1).
func (v *Validator) Level() int { return v.level }

// LevelResult reports the outcome of one RunLevel call.
type LevelResult struct {
	// Suggestions are comparison-suggestion hints for the next sampling pass.
	Suggestions []suggestion.Suggestion
	// YieldToSampling is true when this level's invalid ratio exceeded the
	// threshold: the caller should return control to sampling/induction.
	YieldToSampling bool
	// Done is true once the level walk has exhausted the tree naturally;
	// the caller should clear go_on.
	Done bool
}

// RunLevel processes the current level, specializes away every FD that
// fails refinement, and advances to the next level.
func (v *Validator) RunLevel() LevelResult {
	current := v.tree.GetLevel(v.level)
	if len(current) == 0 {
		return LevelResult{Done: true}
	}

	var suggestions []suggestion.Suggestion
	var numValid, numInvalid int

	for _, node := range current {
		rhss := node.RHSs()
		if len(rhss) == 0 {
			continue
		}
		lhs := node.LHS()
		valid, sugg := v.refines(lhs, rhss)
		suggestions = append(suggestions, sugg...)
		numValid += len(valid)

		invalid := subtract(rhss, valid)
		if len(invalid) > 0 {
			numInvalid += len(invalid)
			v.tree.Specialize(lhs, invalid)
		}
	}

	v.level++
	if float64(numInvalid) > v.cfg.InvalidFDsThreshold*float64(numValid) {
		return LevelResult{Suggestions: suggestions, YieldToSampling: true}
	}
	return LevelResult{Suggestions: suggestions}
}

func subtract(all, keep []int) []int {
	keepSet := make(map[int]bool, len(keep))
	for _, v := range keep {
		keepSet[v] = true
	}
	var out []int
	for _, v := range all {
		if !keepSet[v] {
			out = append(out, v)
		}
	}
	return out
}

// hit records, for one distinct LHS signature, the first row encountered and
// the RHS signature it carried, so later rows with the same LHS signature can
// be compared against it.
type hit struct {
	s2  []int
	tjs []int
}

// refines returns the subset of rhss for which lhs -> a actually holds, plus
// comparison suggestions emitted from unexpected mismatches along the way
// (spec.md §4.6).
func (v *Validator) refines(lhs, rhss []int) ([]int, []suggestion.Suggestion) {
	if len(rhss) == 0 {
		return nil, nil
	}
	if len(lhs) == 0 {
		var valid []int
		for _, a := range rhss {
			if v.set.PLIs[a].IsConstant() {
				valid = append(valid, a)
			}
		}
		return valid, nil
	}

	index := v.set.ClusterIndex
	p := lhs[0] // lhs from node.LHS() is already sorted ascending.

	surviving := make([]bool, len(rhss))
	for i := range surviving {
		surviving[i] = true
	}
	remaining := len(rhss)

	var suggestions []suggestion.Suggestion
	seen := make(map[string]*hit)

	for _, cluster := range v.set.PLIs[p].Clusters {
		for _, ti := range cluster {
			row := index[ti]
			s1, ok := signature(row, lhs)
			if !ok {
				continue // row is a singleton in some LHS attribute.
			}
			s2 := make([]int, len(rhss))
			for i, r := range rhss {
				s2[i] = row[r]
			}

			key := keyOf(s1)
			h, ok := seen[key]
			if !ok {
				seen[key] = &hit{s2: s2, tjs: []int{ti}}
				continue
			}

			mismatched := false
			for i := range rhss {
				if !surviving[i] {
					continue
				}
				if s2[i] < 0 || s2[i] != h.s2[i] {
					mismatched = true
					surviving[i] = false
					remaining--
					for _, tj := range h.tjs {
						suggestions = append(suggestions, suggestion.Suggestion{RowI: tj, RowJ: ti})
					}
				}
			}
			if !mismatched {
				h.tjs = append(h.tjs, ti)
			}
			if remaining == 0 {
				return nil, suggestions
			}
		}
	}

	var valid []int
	for i, ok := range surviving {
		if ok {
			valid = append(valid, rhss[i])
		}
	}
	return valid, suggestions
}

// signature reads row[l] for each l in lhs, returning ok=false if any is -1
// (the row is a singleton in that LHS attribute and cannot form a valid
// probe key).
func signature(row []int, lhs []int) ([]int, bool) {
	s := make([]int, len(lhs))
	for i, l := range lhs {
		v := row[l]
		if v < 0 {
			return nil, false
		}
		s[i] = v
	}
	return s, true
}

func keyOf(s []int) string {
	var b strings.Builder
	for _, v := range s {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	return b.String()
}
