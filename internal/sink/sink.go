// Package sink defines the interfaces a run's FD list (after every
// iteration) and stats line (once per run) are written through
// (SPEC_FULL.md §4.4, §4.5, §8). The local file sink always runs; GCS and
// InfluxDB sinks are additive.
package sink

import (
	"context"

	"github.com/opencover/hyfd/internal/fdio"
)

// OutputSink persists the current translated FD list; each call replaces
// the previous one.
type OutputSink interface {
	WriteFDs(ctx context.Context, pairs []fdio.Pair) error
}

// StatsSink persists one run's summary stats (spec.md §6).
type StatsSink interface {
	WriteStats(ctx context.Context, s fdio.Stats) error
}

// MultiOutput and MultiStats fan a write out to every sink in order,
// stopping at the first error. Used to combine the always-on local file with any optional
// archival sinks a run's config enables.
type MultiOutput []OutputSink

func (m MultiOutput) WriteFDs(ctx context.Context, pairs []fdio.Pair) error {
	for _, s := range m {
		if err := s.WriteFDs(ctx, pairs); err != nil {
			return err
		}
	}
	return nil
}

type MultiStats []StatsSink

func (m MultiStats) WriteStats(ctx context.Context, s fdio.Stats) error {
	for _, sk := range m {
		if err := sk.WriteStats(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
