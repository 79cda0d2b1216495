package main

import (
	"github.com/spf13/cobra"

	"github.com/opencover/hyfd/internal/config"
)

// --- Global flag variables, bound by init() below (teacher's cmd/aleutian
// package-level var style) ---
var (
	flagConfigPath  string
	flagSeparator   string
	flagOutput      string
	flagStatsOutput string
	flagDebug       bool
	flagMute        bool
	flagLogFile     string

	flagEfficiencyThreshold float64
	flagLearningFactor      float64
	flagInvalidFDsThreshold float64
	flagEfficiencyLimit     float64

	flagServe           string
	flagTrace           string
	flagNoTUI           bool
	flagWatchThresholds bool
	flagGCSBucket       string
	flagInfluxURL       string
	flagInfluxToken     string
	flagInfluxOrg       string
	flagInfluxBucket    string

	cfg config.Discovery

	rootCmd = &cobra.Command{
		Use:   "hyfd",
		Short: "Discover minimal functional dependencies in a table",
		Long: `hyfd discovers all minimal, non-trivial functional dependencies in a
delimited table using the hybrid sampling/induction/validation algorithm,
writing the result as a JSON FD list plus a tab-separated stats line.`,
		SilenceUsage: true,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "path to a YAML config file (flags take precedence over file values)")
	pf.StringVar(&flagSeparator, "separator", "", "column separator (single character, default \",\")")
	pf.StringVar(&flagOutput, "output", "", "path to write the discovered FD list (default \"fds.json\")")
	pf.StringVar(&flagStatsOutput, "stats-output", "", "path to append the run's stats line (default \"stats.tsv\")")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug-level logging")
	pf.BoolVar(&flagMute, "mute", false, "suppress stderr logging entirely")
	pf.StringVar(&flagLogFile, "logfile", "", "optional file to additionally write structured logs to")

	pf.Float64Var(&flagEfficiencyThreshold, "efficiency-threshold", 0, "initial sampling efficiency cutoff")
	pf.Float64Var(&flagLearningFactor, "learning-factor", 0, "factor the efficiency threshold shrinks by each pass")
	pf.Float64Var(&flagInvalidFDsThreshold, "invalid-fds-threshold", 0, "invalid/valid FD ratio above which validation yields to sampling")
	pf.Float64Var(&flagEfficiencyLimit, "efficiency-limit", 0, "floor at or below which sampling stops entirely")

	pf.StringVar(&flagServe, "serve", "", "host:port to expose the status/health/metrics/websocket server on")
	pf.StringVar(&flagTrace, "trace", "", "tracing exporter: \"stdout\" or empty for none")
	pf.BoolVar(&flagNoTUI, "no-tui", false, "disable the live progress TUI even on a TTY")
	pf.BoolVar(&flagWatchThresholds, "watch-thresholds", false, "hot-reload the learning factor and invalid-FD threshold from --config while running (the running efficiency threshold is kept)")
	pf.StringVar(&flagGCSBucket, "gcs-bucket", "", "additionally archive the FD list to this GCS bucket, re-uploaded after every iteration")
	pf.StringVar(&flagInfluxURL, "influx-url", "", "additionally write the run's stats as an InfluxDB point at this URL")
	pf.StringVar(&flagInfluxToken, "influx-token", "", "InfluxDB auth token (required with --influx-url)")
	pf.StringVar(&flagInfluxOrg, "influx-org", "", "InfluxDB organization (required with --influx-url)")
	pf.StringVar(&flagInfluxBucket, "influx-bucket", "", "InfluxDB bucket (required with --influx-url)")

	rootCmd.AddCommand(discoverCmd)
}

// loadConfig builds the effective config.Discovery: defaults, then an
// optional YAML file, then any explicitly-set flags, in that precedence
// order (SPEC_FULL.md §3.2).
func loadConfig(cmd *cobra.Command) (config.Discovery, error) {
	c := config.Defaults()
	if flagConfigPath != "" {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return config.Discovery{}, err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("separator") {
		c.Separator = flagSeparator
	}
	if flags.Changed("output") {
		c.Output.Path = flagOutput
	}
	if flags.Changed("stats-output") {
		c.Output.StatsPath = flagStatsOutput
	}
	if flags.Changed("debug") {
		c.Debug = flagDebug
	}
	if flags.Changed("mute") {
		c.Mute = flagMute
	}
	if flags.Changed("logfile") {
		c.LogFile = flagLogFile
	}
	if flags.Changed("efficiency-threshold") {
		c.EfficiencyThreshold = flagEfficiencyThreshold
	}
	if flags.Changed("learning-factor") {
		c.LearningFactor = flagLearningFactor
	}
	if flags.Changed("invalid-fds-threshold") {
		c.InvalidFDsThreshold = flagInvalidFDsThreshold
	}
	if flags.Changed("efficiency-limit") {
		c.EfficiencyLimit = flagEfficiencyLimit
	}
	if flags.Changed("serve") {
		c.Serve = flagServe
	}
	if flags.Changed("trace") {
		c.Trace = flagTrace
	}
	if flags.Changed("no-tui") {
		c.NoTUI = flagNoTUI
	}
	if flags.Changed("watch-thresholds") {
		c.WatchThresholds = flagWatchThresholds
	}
	if flags.Changed("gcs-bucket") {
		c.Output.GCSBucket = flagGCSBucket
	}
	if flags.Changed("influx-url") {
		c.Output.InfluxURL = flagInfluxURL
	}
	if flags.Changed("influx-token") {
		c.Output.InfluxToken = flagInfluxToken
	}
	if flags.Changed("influx-org") {
		c.Output.InfluxOrg = flagInfluxOrg
	}
	if flags.Changed("influx-bucket") {
		c.Output.InfluxBucket = flagInfluxBucket
	}

	if err := config.Validate(c); err != nil {
		return config.Discovery{}, err
	}
	return c, nil
}
