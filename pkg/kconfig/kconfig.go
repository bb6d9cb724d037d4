// Package kconfig holds the runtime configuration for a host process
// embedding the thread-queue core: SMP mode, default timeout discipline,
// link-registry contention backoff, diagnostics journal, and logging.
package kconfig

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"threadq/internal/kernerr"
)

// Config is the top-level runtime configuration.
type Config struct {
	SMP         bool              `yaml:"smp" env:"THREADQ_SMP"`
	Detection   DetectionConfig   `yaml:"detection"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DetectionConfig tunes link-registry contention backoff and the default
// timeout discipline used by callers that don't specify one explicitly.
type DetectionConfig struct {
	BackoffBase    time.Duration `yaml:"backoff_base" env:"THREADQ_DETECTION_BACKOFF_BASE"`
	BackoffMax     time.Duration `yaml:"backoff_max" env:"THREADQ_DETECTION_BACKOFF_MAX"`
	DefaultTimeout string        `yaml:"default_timeout_discipline" env:"THREADQ_DEFAULT_TIMEOUT_DISCIPLINE"`
}

// DiagnosticsConfig configures the deadlock/timeout forensics journal.
type DiagnosticsConfig struct {
	Enabled      bool   `yaml:"enabled" env:"THREADQ_DIAG_ENABLED"`
	Path         string `yaml:"path" env:"THREADQ_DIAG_PATH"`
	Codec        string `yaml:"codec" env:"THREADQ_DIAG_CODEC"` // none|snappy|lz4|zstd
	RotationSize string `yaml:"rotation_size" env:"THREADQ_DIAG_ROTATION_SIZE"`
	MaxFiles     int    `yaml:"max_files" env:"THREADQ_DIAG_MAX_FILES"`
}

// LoggingConfig configures internal/klog.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"THREADQ_LOG_LEVEL"`
	Format string `yaml:"format" env:"THREADQ_LOG_FORMAT"` // json|text
	Output string `yaml:"output" env:"THREADQ_LOG_OUTPUT"` // stdout|path
}

// DefaultConfig returns a configuration suitable for a single-process
// demo or test harness.
func DefaultConfig() *Config {
	return &Config{
		SMP: runtime.NumCPU() > 1,
		Detection: DetectionConfig{
			BackoffBase:    50 * time.Microsecond,
			BackoffMax:     5 * time.Millisecond,
			DefaultTimeout: "relative",
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:      false,
			Path:         "./diag/threadq-events.log",
			Codec:        "zstd",
			RotationSize: "16MB",
			MaxFiles:     5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// LoadFromFile reads and merges a YAML configuration file on top of the
// receiver. Unset fields in the file leave the receiver's defaults intact.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return kernerr.Wrap(err, kernerr.ErrorTypeConfig, kernerr.SeverityMedium,
			fmt.Sprintf("kconfig: read %s", path))
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return kernerr.Wrap(err, kernerr.ErrorTypeConfig, kernerr.SeverityMedium,
			fmt.Sprintf("kconfig: parse %s", path))
	}
	return nil
}

// LoadFromEnv overrides the receiver's fields from THREADQ_* environment
// variables, following the teacher's "only override if set" convention.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("THREADQ_SMP"); v != "" {
		c.SMP = strings.EqualFold(v, "true")
	}

	if v := os.Getenv("THREADQ_DETECTION_BACKOFF_BASE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Detection.BackoffBase = d
		}
	}
	if v := os.Getenv("THREADQ_DETECTION_BACKOFF_MAX"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Detection.BackoffMax = d
		}
	}
	if v := os.Getenv("THREADQ_DEFAULT_TIMEOUT_DISCIPLINE"); v != "" {
		c.Detection.DefaultTimeout = v
	}

	if v := os.Getenv("THREADQ_DIAG_ENABLED"); v != "" {
		c.Diagnostics.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("THREADQ_DIAG_PATH"); v != "" {
		c.Diagnostics.Path = v
	}
	if v := os.Getenv("THREADQ_DIAG_CODEC"); v != "" {
		c.Diagnostics.Codec = v
	}
	if v := os.Getenv("THREADQ_DIAG_ROTATION_SIZE"); v != "" {
		c.Diagnostics.RotationSize = v
	}
	if v := os.Getenv("THREADQ_DIAG_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Diagnostics.MaxFiles = n
		}
	}

	if v := os.Getenv("THREADQ_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("THREADQ_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("THREADQ_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}

	return nil
}

// Validate rejects configurations the core cannot safely run with.
func (c *Config) Validate() error {
	switch c.Detection.DefaultTimeout {
	case "relative", "absolute", "none":
	default:
		return kernerr.NewConfigError(fmt.Sprintf("kconfig: invalid default timeout discipline %q", c.Detection.DefaultTimeout))
	}
	if c.Detection.BackoffBase <= 0 {
		return kernerr.NewConfigError("kconfig: detection backoff base must be positive")
	}
	if c.Detection.BackoffMax < c.Detection.BackoffBase {
		return kernerr.NewConfigError("kconfig: detection backoff max must be >= base")
	}
	if c.Diagnostics.Enabled {
		switch c.Diagnostics.Codec {
		case "none", "snappy", "lz4", "zstd":
		default:
			return kernerr.NewConfigError(fmt.Sprintf("kconfig: unknown diagnostics codec %q", c.Diagnostics.Codec))
		}
		if c.Diagnostics.Path == "" {
			return kernerr.NewConfigError("kconfig: diagnostics path cannot be empty when enabled")
		}
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return kernerr.NewConfigError(fmt.Sprintf("kconfig: unknown logging format %q", c.Logging.Format))
	}
	return nil
}

// ParseSize parses a size string like "16MB" into bytes, the same grammar
// the diagnostics journal's rotation_size field uses.
func ParseSize(sizeStr string) (int64, error) {
	if sizeStr == "" {
		return 0, kernerr.NewConfigError("kconfig: empty size string")
	}
	s := strings.ToUpper(strings.TrimSpace(sizeStr))

	var multiplier int64 = 1
	var numStr string
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, kernerr.NewConfigError(fmt.Sprintf("kconfig: invalid size format %q", sizeStr))
	}
	return num * multiplier, nil
}
