// Package config loads run settings with Viper: defaults, an optional YAML
// file, PREDERR_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/inf-covid19/prederr/internal/backtest"
	"github.com/inf-covid19/prederr/internal/series"
)

// Maps backtest.base_index to BACKTEST_BASE_INDEX
var envKeyReplacer = strings.NewReplacer(".", "_")

// Formats accepted in output.formats
var supportedFormats = []string{"json", "csv", "json.gz", "csv.gz", "json.zst", "csv.zst"}

// Settings is the typed view of the configuration.
type Settings struct {
	Input      InputSettings      `mapstructure:"input"`
	Backtest   BacktestSettings   `mapstructure:"backtest"`
	Projection ProjectionSettings `mapstructure:"projection"`
	Output     OutputSettings     `mapstructure:"output"`
	Metrics    MetricsSettings    `mapstructure:"metrics"`
	Logging    LoggingSettings    `mapstructure:"logging"`
}

type InputSettings struct {
	Path           string `mapstructure:"path"`
	SinceFirstCase bool   `mapstructure:"since_first_case"`
}

type BacktestSettings struct {
	Thresholds []int  `mapstructure:"thresholds"`
	BaseIndex  int    `mapstructure:"base_index"`
	Metric     string `mapstructure:"metric"`
	Workers    int    `mapstructure:"workers"`
}

type ProjectionSettings struct {
	Horizon int `mapstructure:"horizon"`
}

type OutputSettings struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
	Chart   bool     `mapstructure:"chart"`
}

type MetricsSettings struct {
	// node_exporter textfile collector path; empty disables it
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Viper instance with defaults and reads configPath, or
// prederr.yaml from the usual places when configPath is empty. A missing
// default config file is not an error.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("prederr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Environment variable support: PREDERR_BACKTEST_BASE_INDEX=14
	v.SetEnvPrefix("PREDERR")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "input.json")
	v.SetDefault("input.since_first_case", false)
	v.SetDefault("backtest.thresholds", []int{1})
	v.SetDefault("backtest.base_index", backtest.DefaultBaseIndex)
	v.SetDefault("backtest.metric", string(series.MetricCases))
	v.SetDefault("backtest.workers", 0)
	v.SetDefault("projection.horizon", 0)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.formats", []string{"json"})
	v.SetDefault("output.chart", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges and enums.
func (s Settings) Validate() error {
	if s.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	if len(s.Backtest.Thresholds) == 0 {
		return fmt.Errorf("backtest.thresholds must list at least one threshold")
	}
	for _, th := range s.Backtest.Thresholds {
		if th < 1 {
			return fmt.Errorf("backtest.thresholds: %w, got %d", backtest.ErrInvalidThreshold, th)
		}
	}
	if s.Backtest.BaseIndex < 0 {
		return fmt.Errorf("backtest.base_index: %w, got %d", backtest.ErrInvalidBaseIndex, s.Backtest.BaseIndex)
	}
	if _, err := series.ParseMetric(s.Backtest.Metric); err != nil {
		return fmt.Errorf("backtest.metric: %w", err)
	}
	if s.Projection.Horizon < 0 {
		return fmt.Errorf("projection.horizon must not be negative, got %d", s.Projection.Horizon)
	}
	for _, f := range s.Output.Formats {
		if !slices.Contains(supportedFormats, f) {
			return fmt.Errorf("output.formats: unsupported format %q (want one of %v)", f, supportedFormats)
		}
	}
	return nil
}
