// Package config loads and validates the discovery and minimal-cover tools'
// YAML configuration (SPEC_FULL.md §3.2).
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every struct-validation failure raised before a table is
// read (spec.md §7's fatal "bad config" class).
var ErrInvalid = errors.New("config: invalid configuration")

// Discovery is the hyfd CLI's configuration, covering spec.md §6's option
// table plus the sink/observability additions from SPEC_FULL.md §4.
type Discovery struct {
	Separator string `yaml:"separator" validate:"required,len=1"`

	EfficiencyThreshold float64 `yaml:"efficiency_threshold" validate:"gt=0"`
	LearningFactor      float64 `yaml:"learning_factor" validate:"gt=0,lt=1"`
	InvalidFDsThreshold float64 `yaml:"invalid_fds_threshold" validate:"gte=0"`
	EfficiencyLimit     float64 `yaml:"efficiency_limit" validate:"gte=0"`

	Debug   bool   `yaml:"debug"`
	Mute    bool   `yaml:"mute"`
	LogFile string `yaml:"logfile" validate:"omitempty,filepath"`

	Output Output `yaml:"output"`

	Serve           string `yaml:"serve" validate:"omitempty,hostname_port"`
	Trace           string `yaml:"trace" validate:"omitempty,oneof=stdout none"`
	NoTUI           bool   `yaml:"no_tui"`
	WatchThresholds bool   `yaml:"watch_thresholds"`

	// ReportConstantColumnFDs controls whether ∅ → a is reported for a
	// constant column a (spec.md §9 Open Question; default true per the
	// latest source revision).
	ReportConstantColumnFDs bool `yaml:"report_constant_column_fds"`
}

// Output names where a run's FD list and stats line are written: the
// always-on local files (Path, StatsPath) plus the optional archival sinks
// (SPEC_FULL.md §4.4, §4.5).
type Output struct {
	Path         string `yaml:"path" validate:"required"`
	StatsPath    string `yaml:"stats_path"`
	GCSBucket    string `yaml:"gcs_bucket"`
	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`
}

// Thresholds is the subset of Discovery that --watch-thresholds allows an
// operator to hot-reload between sampling passes (SPEC_FULL.md §4.6).
type Thresholds struct {
	EfficiencyThreshold float64
	LearningFactor      float64
	InvalidFDsThreshold float64
}

// Defaults returns a Discovery config with the values spec.md §6 implies as
// sensible defaults when a field is left unset.
func Defaults() Discovery {
	return Discovery{
		Separator:               ",",
		EfficiencyThreshold:     0.01,
		LearningFactor:          0.5,
		InvalidFDsThreshold:     0.1,
		EfficiencyLimit:         0.0001,
		Output:                  Output{Path: "fds.json", StatsPath: "stats.tsv"},
		ReportConstantColumnFDs: true,
	}
}

var validate = validator.New()

// Load reads and validates a Discovery config from a YAML file.
func Load(path string) (Discovery, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Discovery{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Discovery{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Discovery{}, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation over cfg, returning ErrInvalid
// wrapping the field-level errors on failure.
func Validate(cfg Discovery) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ThresholdsOf extracts the hot-reloadable thresholds from cfg.
func ThresholdsOf(cfg Discovery) Thresholds {
	return Thresholds{
		EfficiencyThreshold: cfg.EfficiencyThreshold,
		LearningFactor:      cfg.LearningFactor,
		InvalidFDsThreshold: cfg.InvalidFDsThreshold,
	}
}
