package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/KevoDB/dnadb/pkg/command"
	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/config"
	"github.com/KevoDB/dnadb/pkg/engine"
	"github.com/KevoDB/dnadb/pkg/telemetry"
)

var version = "dev"

var (
	// Global flags
	logLevel     string
	configPath   string
	telemetryOut string
)

// shutdownTimeout bounds the final telemetry export
const shutdownTimeout = 5 * time.Second

var rootCmd = &cobra.Command{
	Use:   "dnadb <command-file> <hash-file> <hash-table-size> <memory-file>",
	Short: "Store DNA sequences in a 2-bit packed file",
	Long: `dnadb keeps DNA sequences keyed by sequence identifier in a single
file, packing each base into two bits, and indexes them with an in-memory
hash table of fixed size.

The command file holds one command per line:
  insert <id> <length>   (the next line is the sequence)
  remove <id>
  search <id>
  print

Example:
  dnadb commands.txt hash.bin 64 memory.bin
  dnadb --log-level debug commands.txt hash.bin 64 memory.bin`,
	Version:       version,
	Args:          cobra.ExactArgs(4),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"JSON file supplying default settings")
	rootCmd.PersistentFlags().StringVar(&telemetryOut, "telemetry", "",
		"Export OpenTelemetry traces and metrics to this file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig builds the run configuration from the config file, the
// --log-level flag and the table size and memory file arguments
func loadConfig(cmd *cobra.Command, tableSize, memoryFile string) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	cfg.Telemetry.LoadFromEnv()
	if telemetryOut != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Output = telemetryOut
	}

	size, err := strconv.Atoi(tableSize)
	if err != nil {
		return nil, fmt.Errorf("%w: hash table size %q is not a number", config.ErrInvalidConfig, tableSize)
	}
	cfg.TableSize = size
	cfg.MemoryFile = memoryFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger installs a default logger writing to the command's stderr and
// reports the non-fatal configuration findings through it
func newLogger(cmd *cobra.Command, cfg *config.Config) log.Logger {
	logger := log.NewStandardLogger(
		log.WithLevel(cfg.Level()),
		log.WithOutput(cmd.ErrOrStderr()),
	)
	log.SetDefaultLogger(logger)

	for _, w := range cfg.Warnings() {
		logger.Warn("%s", w)
	}

	return logger
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[2], args[3])
	if err != nil {
		return err
	}
	cfg.CommandFile = args[0]
	cfg.HashFile = args[1]

	logger := newLogger(cmd, cfg)
	logger.Debug("hash file %s is not persisted", cfg.HashFile)

	script, err := os.Open(cfg.CommandFile)
	if err != nil {
		return fmt.Errorf("failed to open command file: %w", err)
	}
	defer script.Close()

	eng, closeEngine, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	proc := command.NewProcessor(eng, cmd.OutOrStdout(), logger)
	return proc.Run(script)
}

// openEngine opens the engine with telemetry attached. The returned
// function closes both and must be called on every exit path.
func openEngine(cfg *config.Config, logger log.Logger) (*engine.Engine, func(), error) {
	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return nil, nil, err
	}

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown: %v", err)
		}
	}

	eng, err := engine.Open(cfg, logger)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	eng.SetTelemetry(tel)

	return eng, func() {
		if err := eng.Close(); err != nil {
			logger.Error("close: %v", err)
		}
		shutdown()
	}, nil
}
