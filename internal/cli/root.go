package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root command for the ecodetect CLI. It wires up
// configuration, logging, tracing, audit logging and every subcommand.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "ecodetect",
		Short:         "EcoDetect footprint and vehicle emissions estimator",
		Long:          "EcoDetect: estimate environmental impact from sensor readings and vehicle CO2 from movement history",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loadConfig(cmd)
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding .ecodetect/config.yaml")
	cmd.PersistentFlags().String("api-url", "", "EcoDetect backend URL (overrides config and env)")

	cmd.AddCommand(
		NewFootprintCmd(),
		NewEmissionsCmd(),
		newThresholdsCmd(),
		NewWatchCmd(),
		NewServeCmd(),
		newConfigCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// loadConfig resolves the project directory and installs the merged
// configuration as the process-wide config. CLI flags are applied last.
func loadConfig(cmd *cobra.Command) {
	ctx := cmd.Context()
	flagDir, _ := cmd.Flags().GetString("project-dir")
	cwd, _ := os.Getwd()

	projectDir := config.ResolveProjectDir(ctx, flagDir, cwd)
	config.SetResolvedProjectDir(projectDir)
	cfg := config.NewWithProjectDir(ctx, projectDir)

	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	config.SetGlobalConfig(cfg)
}

const rootCmdExample = `  # Current environmental footprint from the backend
  ecodetect footprint

  # Footprint from a saved sensor reading, offline
  ecodetect footprint --snapshot reading.json --water-flow 5.5

  # Weekly vehicle emissions for a small diesel car
  ecodetect emissions --range week --vehicle-type SMALL_DIESEL

  # Emissions from a recorded movement history
  ecodetect emissions --history drive.ndjson --output json

  # Fail with exit code 2 when a reading breaches the thresholds
  ecodetect thresholds check

  # Live dashboard
  ecodetect watch

  # Serve the estimation API
  ecodetect serve --address :8080`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
