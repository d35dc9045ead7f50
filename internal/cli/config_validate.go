package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecodetect/ecodetect/internal/config"
)

// NewConfigValidateCmd creates the config validate command.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Validates the merged configuration (defaults, global file, project file and
environment) for syntax and semantic correctness.

This includes:
- Schema version compatibility
- API base URL and timeouts
- Vehicle type, time range and factor table
- Polling intervals and alert thresholds
- MQTT and server settings`,
		Example: `  # Validate current configuration
  ecodetect config validate

  # Validate and show detailed information
  ecodetect config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, config.GetGlobalConfig(), verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, cfg *config.Config, verbose bool) error {
	if err := cfg.Validate(); err != nil {
		cmd.PrintErrln("Configuration errors:")
		for _, line := range splitJoined(err) {
			cmd.PrintErrf("  - %s\n", line)
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")
	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

// splitJoined flattens an errors.Join result into one message per error.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return strings.Split(err.Error(), "\n")
}

func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	if path := cfg.ConfigPath(); path != "" {
		cmd.Printf("  Config file: %s\n", path)
	}
	if dir := config.GetResolvedProjectDir(); dir != "" {
		cmd.Printf("  Project directory: %s\n", dir)
	}
	cmd.Printf("  API base URL: %s\n", cfg.API.BaseURL)
	cmd.Printf("  Response cache: %t (ttl %ds)\n", cfg.API.Cache.Enabled, cfg.API.Cache.TTLSeconds)
	cmd.Printf("  Vehicle type: %s\n", cfg.Estimator.VehicleType)
	cmd.Printf("  Time range: %s\n", cfg.Estimator.TimeRange)
	cmd.Printf("  Poll intervals: footprint %s, emissions %s\n",
		cfg.Monitor.FootprintInterval, cfg.Monitor.EmissionsInterval)
	if cfg.MQTT.Enabled {
		cmd.Printf("  MQTT feed: %s (topic %s)\n", cfg.MQTT.Broker, cfg.MQTT.Topic)
	} else {
		cmd.Println("  MQTT feed: disabled")
	}
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if len(cfg.Estimator.Factors) > 0 {
		cmd.Printf("  Custom vehicle factors: %d\n", len(cfg.Estimator.Factors))
	}
}
