// Package cmd implements the valuator subcommands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/di"
	"github.com/aristath/valuator/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every subcommand.
// Empty values keep what config.Load read from the environment.
type rootOptions struct {
	dbPath      string
	symbolsFile string
	outputDir   string
	logLevel    string
	pretty      bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "valuator",
		Short: "PE-band valuation pipeline for A-share and HK stocks",
		Long: `valuator keeps a local SQLite store of daily close/PE/market-cap bars and
analyst net-profit forecasts, derives a reasonable PE and buy points per
symbol and writes the results as JSON (and optionally xlsx) artifacts.

Configuration is read from the environment and an optional .env file;
flags override it.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path (VALUATOR_DB_PATH)")
	flags.StringVar(&opts.symbolsFile, "symbols", "", "symbol list, CSV or YAML (VALUATOR_SYMBOLS_FILE)")
	flags.StringVar(&opts.outputDir, "out", "", "artifact output directory (VALUATOR_OUTPUT_DIR)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.BoolVar(&opts.pretty, "pretty", false, "human-readable console logs (LOG_PRETTY)")

	cmd.AddCommand(
		newRunCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
		newScheduleCmd(opts),
		newPublishCmd(opts),
		newSymbolsCmd(opts),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// load reads the configuration and applies the persistent flag overrides,
// then the command specific ones in override
func (o *rootOptions) load(cmd *cobra.Command, override func(*config.Config)) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.symbolsFile != "" {
		cfg.SymbolsFile = o.symbolsFile
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.pretty {
		cfg.LogPretty = true
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	logger.SetGlobalLogger(log)

	return cfg, log, nil
}

// wire loads the configuration and builds the container
func (o *rootOptions) wire(cmd *cobra.Command, override func(*config.Config)) (*di.Container, zerolog.Logger, error) {
	cfg, log, err := o.load(cmd, override)
	if err != nil {
		return nil, log, err
	}

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to wire dependencies")
		return nil, log, err
	}

	return container, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
