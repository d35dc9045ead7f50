package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ecodetect/ecodetect/internal/config"
)

// NewConfigShowCmd prints the effective configuration. Secrets are omitted
// from JSON output by the config struct tags and masked in YAML output.
func NewConfigShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Example: `  ecodetect config show
  ecodetect config show --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *config.GetGlobalConfig()
			if cfg.API.Token != "" {
				cfg.API.Token = "********"
			}
			if cfg.MQTT.Password != "" {
				cfg.MQTT.Password = "********"
			}

			switch output {
			case "yaml", "":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(&cfg); err != nil {
					return fmt.Errorf("encoding configuration: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(&cfg)
			default:
				return fmt.Errorf("%w: %q (use yaml or json)", errUnknownFormat, output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}
