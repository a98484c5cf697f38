package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/di"
	"github.com/aristath/roadscan/pkg/logger"
)

// app carries what every subcommand needs once the root has run
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

var current = &app{}

var rootCmd = &cobra.Command{
	Use:          "roadscan",
	Short:        "Road-safety assessments from road photographs",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `roadscan extracts a color/texture signature from each road image, runs it
through a 7-qubit circuit, asks a chat model for a safety assessment and stores
the assessment AES-GCM encrypted in an append-only SQLite log.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		current.cfg = cfg
		current.log = logger.New(logger.Config{
			Level:  cfg.LogLevel,
			Pretty: cfg.LogPretty,
		})
		logger.SetGlobalLogger(current.log)
		return nil
	},
}

// wire builds the dependency container for the loaded config
func (a *app) wire() (*di.Container, error) {
	container, err := di.Wire(a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to wire dependencies: %w", err)
	}
	return container, nil
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
