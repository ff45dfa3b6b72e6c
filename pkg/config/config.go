// Package config holds the parameters of one dnadb run.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/telemetry"
)

const (
	// BucketSize is the unit the hash table capacity should be a multiple of
	BucketSize = 32

	DefaultTableSize  = 64
	DefaultMemoryFile = "memory.bin"
	DefaultLogLevel   = "warn"
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("config file not found")
)

type Config struct {
	// CommandFile is the script of insert/remove/search/print commands
	CommandFile string `json:"command_file"`

	// HashFile names the on-disk form of the index. The index is kept in
	// memory only, so the path is recorded but never written.
	HashFile string `json:"hash_file"`

	// TableSize is the index capacity in slots
	TableSize int `json:"table_size"`

	// MemoryFile is the backing store for packed ids and sequences
	MemoryFile string `json:"memory_file"`

	LogLevel string `json:"log_level"`

	// Telemetry controls the OpenTelemetry exporters, disabled by default
	Telemetry telemetry.Config `json:"telemetry"`
}

// NewDefaultConfig creates a Config with the default values
func NewDefaultConfig() *Config {
	return &Config{
		TableSize:  DefaultTableSize,
		MemoryFile: DefaultMemoryFile,
		LogLevel:   DefaultLogLevel,
		Telemetry:  telemetry.DefaultConfig(),
	}
}

// Validate checks if the configuration can be used to open an engine.
// CommandFile is not checked: interactive runs have none.
func (c *Config) Validate() error {
	if c.TableSize <= 0 {
		return fmt.Errorf("%w: hash table size must be positive, got %d", ErrInvalidConfig, c.TableSize)
	}

	if c.MemoryFile == "" {
		return fmt.Errorf("%w: memory file not specified", ErrInvalidConfig)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Telemetry.Enabled {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("%w: telemetry: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// Warnings returns findings that do not stop a run
func (c *Config) Warnings() []string {
	var warnings []string
	if c.TableSize > 0 && c.TableSize%BucketSize != 0 {
		warnings = append(warnings,
			fmt.Sprintf("hash table size %d is not a multiple of %d", c.TableSize, BucketSize))
	}
	return warnings
}

// Level returns the parsed log level, falling back to warn
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelWarn
	}
	return level
}

// LoadConfigFile reads a JSON config. Fields missing from the file keep
// their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
