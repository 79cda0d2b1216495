package main

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-openapi/strfmt"
	"github.com/spf13/cobra"

	hyfdconfig "github.com/opencover/hyfd/internal/config"
	"github.com/opencover/hyfd/internal/engine"
	"github.com/opencover/hyfd/internal/fdio"
	"github.com/opencover/hyfd/internal/fdtree"
	"github.com/opencover/hyfd/internal/metrics"
	"github.com/opencover/hyfd/internal/sampler"
	"github.com/opencover/hyfd/internal/sink"
	"github.com/opencover/hyfd/internal/sink/fs"
	"github.com/opencover/hyfd/internal/sink/gcs"
	"github.com/opencover/hyfd/internal/sink/influx"
	"github.com/opencover/hyfd/internal/statusserver"
	"github.com/opencover/hyfd/internal/table"
	"github.com/opencover/hyfd/internal/telemetry"
	"github.com/opencover/hyfd/internal/tui"
	"github.com/opencover/hyfd/internal/validator"
	"github.com/opencover/hyfd/pkg/logging"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [path]",
	Short: "Run discovery over a delimited table",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, LogFile: cfg.LogFile, Service: "hyfd", Mute: cfg.Mute})
	defer logger.Close()

	tracer, err := buildTracer(cfg.Trace)
	if err != nil {
		return fmt.Errorf("hyfd: setting up tracer: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	reg, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("hyfd: setting up metrics: %w", err)
	}

	readStart := time.Now()
	tbl, err := table.Load(args[0], rune(cfg.Separator[0]))
	if err != nil {
		return fmt.Errorf("hyfd: loading table: %w", err)
	}
	readTime := time.Since(readStart)
	logger.Info("table loaded", "rows", tbl.NumRows, "attributes", tbl.NumAttrs, "read_time", readTime)

	outputSinks, statsSinks, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	var statusSrv *statusserver.Server
	if cfg.Serve != "" {
		statusSrv = statusserver.New(reg.Snapshot, reg, logger, "hyfd")
	}

	var tuiUpdates chan tui.Snapshot
	if !cfg.NoTUI {
		tuiUpdates = make(chan tui.Snapshot, 1)
		go func() { _ = tui.Run(tuiUpdates, cfg.NoTUI, logger) }()
	}

	var thresholdUpdates chan hyfdconfig.Thresholds
	if cfg.WatchThresholds && flagConfigPath != "" {
		thresholdUpdates = make(chan hyfdconfig.Thresholds, 1)
		stopWatch, err := watchThresholds(flagConfigPath, thresholdUpdates, logger)
		if err != nil {
			return fmt.Errorf("hyfd: setting up threshold watcher: %w", err)
		}
		defer stopWatch()
	}

	var eng *engine.Engine
	lastIteration := 0

	execStart := time.Now()
	eng = engine.New(tbl, engine.Config{
		Sampler:   sampler.Config{EfficiencyThreshold: cfg.EfficiencyThreshold, LearningFactor: cfg.LearningFactor, EfficiencyLimit: cfg.EfficiencyLimit},
		Validator: validator.Config{InvalidFDsThreshold: cfg.InvalidFDsThreshold},
	}, reg, tracer, engine.Hooks{
		OnIteration: func(snap engine.IterationSnapshot) {
			lastIteration = snap.Iteration
			logger.Info("iteration complete",
				"iteration", snap.Iteration, "fds_found", snap.FDCount,
				"efficiency_queue", snap.EfficiencyQueueLen, "non_fds", snap.NonFDTrieSize,
				"validation_level", snap.ValidationLevel)
			if tuiUpdates != nil {
				select {
				case tuiUpdates <- tui.Snapshot{
					Iteration:           snap.Iteration,
					EfficiencyQueueLen:  snap.EfficiencyQueueLen,
					BestEfficiency:      snap.BestEfficiency,
					EfficiencyThreshold: snap.EfficiencyThreshold,
					EfficiencyLimit:     snap.EfficiencyLimit,
					FDCount:             snap.FDCount,
					NonFDTrieSize:       snap.NonFDTrieSize,
					ValidationLevel:     snap.ValidationLevel,
				}:
				default:
				}
			}
		},
		AfterFDsChanged: func(tree *fdtree.Tree) {
			pairs := fdio.Translate(tree.ReadFDs(), eng.OriginalIndex, cfg.ReportConstantColumnFDs)
			if err := outputSinks.WriteFDs(context.Background(), pairs); err != nil {
				logger.Warn("writing FD output failed", "error", err)
			}
			if statusSrv != nil {
				statusSrv.PublishFDs(pairs)
			}
		},
	})
	if thresholdUpdates != nil {
		eng.ThresholdUpdates = thresholdUpdates
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if statusSrv != nil {
		go func() {
			if err := statusSrv.ListenAndServe(ctx, cfg.Serve); err != nil {
				logger.Warn("status server stopped", "error", err)
			}
		}()
	}

	runErr := eng.Run(ctx)
	if tuiUpdates != nil {
		tuiUpdates <- tui.Snapshot{Iteration: lastIteration, FDCount: eng.Tree.NumFDs(), Done: true}
		close(tuiUpdates)
	}
	if runErr != nil {
		return fmt.Errorf("hyfd: discovery run failed: %w", runErr)
	}

	execTime := time.Since(execStart)
	stats := fdio.Stats{
		DBName:        args[0],
		OutputPath:    cfg.Output.Path,
		Timestamp:     strfmt.DateTime(time.Now()),
		Rows:          tbl.NumRows,
		Attributes:    tbl.NumAttrs,
		FDCount:       eng.Tree.NumFDs(),
		ReadTime:      readTime,
		ExecutionTime: execTime,
		PeakRSSBytes:  peakRSSBytes(),
	}
	if err := statsSinks.WriteStats(context.Background(), stats); err != nil {
		logger.Warn("writing stats failed", "error", err)
	}

	logger.Info("discovery finished", "fds_found", eng.Tree.NumFDs(), "execution_time", execTime)
	return nil
}

func buildTracer(trace string) (*telemetry.Provider, error) {
	switch trace {
	case "stdout":
		return telemetry.NewStdout()
	default:
		return telemetry.NewNoop(), nil
	}
}

func buildSinks(cfg hyfdconfig.Discovery) (sink.MultiOutput, sink.MultiStats, func(), error) {
	local := fs.New(cfg.Output.Path, cfg.Output.StatsPath)
	outputs := sink.MultiOutput{local}
	stats := sink.MultiStats{local}
	var closers []func() error

	if cfg.Output.GCSBucket != "" {
		g, err := gcs.New(context.Background(), cfg.Output.GCSBucket, cfg.Output.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("hyfd: setting up GCS sink: %w", err)
		}
		outputs = append(outputs, g)
		closers = append(closers, g.Close)
	}

	if cfg.Output.InfluxURL != "" {
		i := influx.New(cfg.Output.InfluxURL, cfg.Output.InfluxToken, cfg.Output.InfluxOrg, cfg.Output.InfluxBucket)
		stats = append(stats, i)
		closers = append(closers, func() error { i.Close(); return nil })
	}

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	return outputs, stats, closeAll, nil
}

// watchThresholds watches configPath for changes and pushes the
// hot-reloadable thresholds to updates whenever the file is rewritten
// (SPEC_FULL.md §4.6). The returned func stops the watcher.
func watchThresholds(configPath string, updates chan<- hyfdconfig.Thresholds, logger *logging.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", configPath, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloaded, err := hyfdconfig.Load(configPath)
				if err != nil {
					logger.Warn("reloading config failed, keeping previous thresholds", "error", err)
					continue
				}
				select {
				case updates <- hyfdconfig.ThresholdsOf(reloaded):
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

// peakRSSBytes reports a best-effort resident-set-size figure via the Go
// runtime's own memory stats (runtime.MemStats.Sys), since no real
// OS-level peak-RSS reading is available from the standard library alone
// and the pack carries no dedicated process-metrics library (see
// DESIGN.md).
func peakRSSBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}
