// Package influx is an additive StatsSink (SPEC_FULL.md §4.5) writing each
// run's stats line as an InfluxDB point instead of, or alongside, the flat
// TSV file, turning repeated runs into a queryable time series. Client
// usage follows the teacher's services/orchestrator/handlers/timeseries.go.
package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/opencover/hyfd/internal/fdio"
)

const measurement = "hyfd_run"

// Sink writes a point per run to Bucket in Org.
type Sink struct {
	client influxdb2.Client
	Org    string
	Bucket string
}

func New(url, token, org, bucket string) *Sink {
	return &Sink{client: influxdb2.NewClient(url, token), Org: org, Bucket: bucket}
}

// WriteStats writes one point with the run's summary fields, tagged by
// database name.
func (s *Sink) WriteStats(ctx context.Context, stats fdio.Stats) error {
	writeAPI := s.client.WriteAPIBlocking(s.Org, s.Bucket)

	point := influxdb2.NewPoint(
		measurement,
		map[string]string{"db_name": stats.DBName},
		map[string]interface{}{
			"rows":           stats.Rows,
			"attributes":     stats.Attributes,
			"fd_count":       stats.FDCount,
			"read_time_ms":   stats.ReadTime.Milliseconds(),
			"execution_ms":   stats.ExecutionTime.Milliseconds(),
			"peak_rss_bytes": stats.PeakRSSBytes,
			"output_path":    stats.OutputPath,
		},
		time.Time(stats.Timestamp),
	)

	if err := writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influx: writing point: %w", err)
	}
	return nil
}

// Close releases the underlying InfluxDB client.
func (s *Sink) Close() {
	s.client.Close()
}
