// Package metrics exposes discovery-run counters via Prometheus and, when
// a MeterProvider is configured, through the equivalent OTel metrics
// pipeline (SPEC_FULL.md §4.2).
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the gauges/counters updated by the engine after each
// phase. Nil-method-safe: a nil *Registry is a valid no-op (the default
// when metrics are disabled).
type Registry struct {
	reg *prometheus.Registry

	iterations      prometheus.Counter
	fdsFound        prometheus.Gauge
	efficiencyQueue prometheus.Gauge
	nonFDTrieSize   prometheus.Gauge
	rows            prometheus.Gauge
	attributes      prometheus.Gauge
	peakRSSBytes    prometheus.Gauge

	otelIterations metric.Int64Counter

	mu   sync.Mutex
	snap Snapshot
}

// New creates a Registry registered against a fresh Prometheus registry,
// optionally instrumenting an OTel MeterProvider too.
func New(mp metric.MeterProvider) (*Registry, error) {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hyfd_iterations_total", Help: "Number of sample/induct/validate loop iterations run.",
		}),
		fdsFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyfd_fds_found", Help: "Current number of FDs held in the FD tree.",
		}),
		efficiencyQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyfd_efficiency_queue_length", Help: "Current efficiency queue length.",
		}),
		nonFDTrieSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyfd_nonfd_trie_size", Help: "Distinct non-FD observations recorded so far.",
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyfd_table_rows", Help: "Row count of the input table.",
		}),
		attributes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyfd_table_attributes", Help: "Attribute count of the input table.",
		}),
		peakRSSBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyfd_peak_rss_bytes", Help: "Peak resident set size observed during the run.",
		}),
	}
	reg.MustRegister(r.iterations, r.fdsFound, r.efficiencyQueue, r.nonFDTrieSize, r.rows, r.attributes, r.peakRSSBytes)

	if mp != nil {
		meter := mp.Meter("github.com/opencover/hyfd")
		counter, err := meter.Int64Counter("hyfd.iterations",
			metric.WithDescription("Number of sample/induct/validate loop iterations run."))
		if err != nil {
			return nil, err
		}
		r.otelIterations = counter
	}

	return r, nil
}

// Gatherer exposes the underlying Prometheus registry for promhttp.Handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// Snapshot is a point-in-time read of every counter, used by the status
// server's /status endpoint and the TUI.
type Snapshot struct {
	Iterations      int
	FDsFound        int
	EfficiencyQueue int
	NonFDTrieSize   int
	Rows            int
	Attributes      int
	PeakRSSBytes    uint64
}

// RecordIteration increments the iteration counter.
func (r *Registry) RecordIteration() {
	if r == nil {
		return
	}
	r.iterations.Inc()
	if r.otelIterations != nil {
		r.otelIterations.Add(context.Background(), 1)
	}
	r.mu.Lock()
	r.snap.Iterations++
	r.mu.Unlock()
}

// SetFDsFound sets the current FD-tree count.
func (r *Registry) SetFDsFound(n int) {
	if r == nil {
		return
	}
	r.fdsFound.Set(float64(n))
	r.mu.Lock()
	r.snap.FDsFound = n
	r.mu.Unlock()
}

// SetEfficiencyQueueLength sets the current efficiency queue length.
func (r *Registry) SetEfficiencyQueueLength(n int) {
	if r == nil {
		return
	}
	r.efficiencyQueue.Set(float64(n))
	r.mu.Lock()
	r.snap.EfficiencyQueue = n
	r.mu.Unlock()
}

// SetNonFDTrieSize sets the current non-FD trie element count.
func (r *Registry) SetNonFDTrieSize(n int) {
	if r == nil {
		return
	}
	r.nonFDTrieSize.Set(float64(n))
	r.mu.Lock()
	r.snap.NonFDTrieSize = n
	r.mu.Unlock()
}

// SetTableShape records the row/attribute counts, set once at startup.
func (r *Registry) SetTableShape(rows, attrs int) {
	if r == nil {
		return
	}
	r.rows.Set(float64(rows))
	r.attributes.Set(float64(attrs))
	r.mu.Lock()
	r.snap.Rows, r.snap.Attributes = rows, attrs
	r.mu.Unlock()
}

// SetPeakRSSBytes records the peak RSS observed so far.
func (r *Registry) SetPeakRSSBytes(n uint64) {
	if r == nil {
		return
	}
	r.peakRSSBytes.Set(float64(n))
	r.mu.Lock()
	r.snap.PeakRSSBytes = n
	r.mu.Unlock()
}

// Snapshot returns the most recently recorded counters, safe to call
// concurrently with the engine's updates (the status server's /status
// handler runs on its own goroutine).
func (r *Registry) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}
