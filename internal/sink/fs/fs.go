// Package fs is the always-on local-file OutputSink/StatsSink
// (SPEC_FULL.md §4.4): the JSON FD file written atomically after every
// iteration, and the tab-separated stats file appended once per run.
package fs

import (
	"context"

	"github.com/opencover/hyfd/internal/fdio"
)

// Sink writes to a fixed output path and stats path on the local
// filesystem.
type Sink struct {
	OutputPath string
	StatsPath  string
}

func New(outputPath, statsPath string) *Sink {
	return &Sink{OutputPath: outputPath, StatsPath: statsPath}
}

// WriteFDs writes pairs atomically (fdio.WriteAtomic), safe to call after
// every iteration since an interrupt mid-write never clobbers the
// previous valid file.
func (s *Sink) WriteFDs(_ context.Context, pairs []fdio.Pair) error {
	return fdio.WriteAtomic(s.OutputPath, pairs)
}

// WriteStats appends one line to the results TSV.
func (s *Sink) WriteStats(_ context.Context, stats fdio.Stats) error {
	return fdio.AppendTSV(s.StatsPath, stats)
}
