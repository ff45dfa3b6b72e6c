package telemetry

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Signals that can be exported
const (
	SignalTraces  = "traces"
	SignalMetrics = "metrics"
)

// Config holds all configuration for telemetry providers and exporters.
type Config struct {
	// ServiceName identifies the service in telemetry data
	ServiceName string `json:"service_name"`

	// ServiceVersion identifies the service version in telemetry data
	ServiceVersion string `json:"service_version"`

	// Enabled controls whether telemetry is active
	Enabled bool `json:"enabled"`

	// Signals lists what gets exported: traces, metrics or both
	Signals []string `json:"signals"`

	// Output is the file the stdout exporters write to; empty means stderr
	Output string `json:"output"`

	// SampleRate controls trace sampling (0.0 to 1.0)
	SampleRate float64 `json:"sample_rate"`

	// ExportInterval controls how often metrics are exported. Remaining
	// metrics are always exported on shutdown.
	ExportInterval time.Duration `json:"export_interval"`

	// ExportTimeout controls how long to wait for one export
	ExportTimeout time.Duration `json:"export_timeout"`
}

// DefaultConfig returns a disabled configuration with usable defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "dnadb",
		ServiceVersion: "development",
		Enabled:        false,
		Signals:        []string{SignalTraces, SignalMetrics},
		SampleRate:     1.0,
		ExportInterval: time.Minute,
		ExportTimeout:  30 * time.Second,
	}
}

// LoadFromEnv loads configuration from environment variables, overriding
// the current values.
func (c *Config) LoadFromEnv() {
	if val := os.Getenv("DNADB_TELEMETRY_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Enabled = enabled
		}
	}

	if val := os.Getenv("DNADB_TELEMETRY_SIGNALS"); val != "" {
		c.Signals = strings.Split(val, ",")
		for i := range c.Signals {
			c.Signals[i] = strings.TrimSpace(c.Signals[i])
		}
	}

	if val := os.Getenv("DNADB_TELEMETRY_OUTPUT"); val != "" {
		c.Output = val
	}

	if val := os.Getenv("DNADB_TELEMETRY_SAMPLE_RATE"); val != "" {
		if rate, err := strconv.ParseFloat(val, 64); err == nil {
			c.SampleRate = rate
		}
	}

	if val := os.Getenv("DNADB_TELEMETRY_EXPORT_INTERVAL"); val != "" {
		if interval, err := time.ParseDuration(val); err == nil {
			c.ExportInterval = interval
		}
	}
}

// Validate checks the configuration for invalid values and returns an error if found.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name cannot be empty")
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("sample_rate must be between 0.0 and 1.0, got %f", c.SampleRate)
	}

	if c.ExportInterval <= 0 {
		return fmt.Errorf("export_interval must be positive, got %s", c.ExportInterval)
	}

	if c.ExportTimeout <= 0 {
		return fmt.Errorf("export_timeout must be positive, got %s", c.ExportTimeout)
	}

	for _, signal := range c.Signals {
		if signal != SignalTraces && signal != SignalMetrics {
			return fmt.Errorf("invalid signal: %s, valid options are: traces, metrics", signal)
		}
	}

	return nil
}

// HasSignal returns true if the specified signal is exported.
func (c *Config) HasSignal(name string) bool {
	return slices.Contains(c.Signals, name)
}
