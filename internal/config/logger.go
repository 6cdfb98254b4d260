package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerName is the root logger name; packages log through children such as
// "prederr.backtest".
const LoggerName = "prederr"

// LoggingSettings selects level, encoding and an optional log file.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// NewLogger builds the run logger from the "logging" keys of v. It is read
// on its own, ahead of Decode, so configuration errors can be logged.
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	ls := LoggingSettings{
		Level:  v.GetString("logging.level"),
		Format: v.GetString("logging.format"),
		File:   v.GetString("logging.file"),
	}
	return ls.Build()
}

// Build returns a logger writing to stderr and, when File is set, to that
// file too. A batch run logs one line per day at debug level, so sampling is
// off: dropping repeated messages would drop days.
func (ls LoggingSettings) Build() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(ls.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", ls.Level, err)
	}

	var cfg zap.Config
	switch ls.Format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", ls.Format)
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.DisableStacktrace = level > zapcore.DebugLevel
	cfg.OutputPaths = []string{"stderr"}
	if ls.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, ls.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(LoggerName), nil
}
