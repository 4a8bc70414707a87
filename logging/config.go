package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error, fatal).
	Level string `mapstructure:"level" json:"level" yaml:"level" default:"info"`

	// Format is the log format (json or console).
	Format string `mapstructure:"format" json:"format" yaml:"format" default:"json"`

	// Director is the directory where log files are stored. Empty disables
	// file output.
	Director string `mapstructure:"director" json:"director" yaml:"director"`

	// LogInTerminal enables logging to stderr in addition to file output.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal" default:"true"`

	// TimeFormat is the time format string (Go time layout).
	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format" default:"2006-01-02 15:04:05.000"`

	// MaxSize is the maximum size in megabytes of a log file before it is
	// rotated.
	MaxSize int `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"100"`

	// MaxAge is the maximum number of days to retain rotated log files.
	MaxAge int `mapstructure:"max-age" json:"maxAge" yaml:"max-age" default:"30"`

	// MaxBackups is the maximum number of rotated log files to retain.
	MaxBackups int `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups" default:"10"`

	// Compress gzips rotated log files.
	Compress bool `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		Format:        "json",
		LogInTerminal: true,
		TimeFormat:    "2006-01-02 15:04:05.000",
		MaxSize:       100,
		MaxAge:        30,
		MaxBackups:    10,
	}
}

// applyDefaults fills zero values and keeps at least one output enabled.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.TimeFormat == "" {
		c.TimeFormat = def.TimeFormat
	}
	if c.MaxSize == 0 {
		c.MaxSize = def.MaxSize
	}
	if c.MaxAge == 0 {
		c.MaxAge = def.MaxAge
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = def.MaxBackups
	}
	if c.Director == "" {
		c.LogInTerminal = true
	}
}

// TransportLevel maps the configured level to a zapcore.Level. Unknown
// levels fall back to debug.
func (c Config) TransportLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.DebugLevel
	}
}
