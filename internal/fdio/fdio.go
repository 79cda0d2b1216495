// Package fdio serializes discovered FDs and run statistics, translating
// attribute indices out of the engine's reindexed space back to the
// original column order (spec.md §6, §9).
package fdio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/opencover/hyfd/internal/fdtree"
)

// Pair is one FD as written to JSON: both sides are sorted arrays of
// original attribute indices.
type Pair struct {
	LHS []int `json:"lhs"`
	RHS []int `json:"rhs"`
}

// Translate converts fds from the engine's reindexed attribute space to
// original indices via toOriginal, sorting both sides, and splitting a
// single multi-attribute RHS into one Pair per RHS attribute — the
// canonical single-attribute-RHS form spec.md §6 and §4.7 expect on disk.
func Translate(fds []fdtree.FD, toOriginal func(int) int, reportConstantColumnFDs bool) []Pair {
	var out []Pair
	for _, fd := range fds {
		if len(fd.LHS) == 0 && !reportConstantColumnFDs {
			continue
		}
		lhs := mapSorted(fd.LHS, toOriginal)
		for _, r := range fd.RHS {
			out = append(out, Pair{LHS: lhs, RHS: []int{toOriginal(r)}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessPair(out[i], out[j]) })
	return out
}

func mapSorted(s []int, f func(int) int) []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[i] = f(v)
	}
	sort.Ints(out)
	return out
}

func lessPair(a, b Pair) bool {
	for i := 0; i < len(a.LHS) && i < len(b.LHS); i++ {
		if a.LHS[i] != b.LHS[i] {
			return a.LHS[i] < b.LHS[i]
		}
	}
	if len(a.LHS) != len(b.LHS) {
		return len(a.LHS) < len(b.LHS)
	}
	return a.RHS[0] < b.RHS[0]
}

// WriteAtomic marshals pairs as a JSON array and writes them to path
// atomically: write to a uuid-suffixed temp file in the same directory,
// then rename over the destination, so an interrupt mid-write never
// corrupts the previous valid output (spec.md §6).
func WriteAtomic(path string, pairs []Pair) error {
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("fdio: marshaling FDs: %w", err)
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf("%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("fdio: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("fdio: renaming into place: %w", err)
	}
	return nil
}

// ReadPairs loads a JSON FD file written by WriteAtomic (or the
// minimal-cover tool's input format).
func ReadPairs(path string) ([]Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fdio: reading %s: %w", path, err)
	}
	var pairs []Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("fdio: parsing %s: %w", path, err)
	}
	return pairs, nil
}

// Stats is one run's summary line, appended to the tab-separated results
// file (spec.md §6) or, via an alternate StatsSink, an InfluxDB point
// (SPEC_FULL.md §4.5).
type Stats struct {
	DBName        string
	OutputPath    string
	Timestamp     strfmt.DateTime
	Rows          int
	Attributes    int
	FDCount       int
	ReadTime      time.Duration
	ExecutionTime time.Duration
	PeakRSSBytes  uint64
}

// AppendTSV appends one Stats line to the tab-separated results file at
// path, creating it if necessary.
func AppendTSV(path string, s Stats) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("fdio: opening stats file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%d\n",
		s.DBName, s.OutputPath, s.Timestamp.String(), s.Rows, s.Attributes, s.FDCount,
		s.ReadTime, s.ExecutionTime, s.PeakRSSBytes)
	_, err = f.WriteString(line)
	if err != nil {
		return fmt.Errorf("fdio: appending stats line: %w", err)
	}
	return nil
}
