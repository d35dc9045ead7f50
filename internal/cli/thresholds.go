package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/thresholds"
	"github.com/ecodetect/ecodetect/internal/tui"
)

var errBadRange = constError("range must be two values: low,high")

// newThresholdsCmd creates the thresholds command group.
func newThresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Read, update and check the sensor alert thresholds",
	}
	cmd.AddCommand(newThresholdsGetCmd(), newThresholdsSetCmd(), newThresholdsCheckCmd())
	return cmd
}

func newThresholdsGetCmd() *cobra.Command {
	var (
		output string
		local  bool
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the active thresholds",
		Example: `  ecodetect thresholds get
  ecodetect thresholds get --local --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetGlobalConfig()
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}

			limits := cfg.Monitor.Thresholds
			if !local {
				client, clientErr := newAPIClient(ctx, cfg)
				if clientErr != nil {
					return clientErr
				}
				if limits, err = client.Thresholds(ctx); err != nil {
					return fmt.Errorf("fetching thresholds: %w", err)
				}
			}
			return renderThresholds(cmd, format, limits)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "show the configured thresholds instead of the backend's")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table, json or ndjson")
	return cmd
}

func newThresholdsSetCmd() *cobra.Command {
	var (
		temperature []float64
		humidity    []float64
		flowRate    float64
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the backend thresholds",
		Long: `Updates the backend alert thresholds. Values not given on the command line
keep their current backend setting.`,
		Example: `  ecodetect thresholds set --temperature-range 18,26
  ecodetect thresholds set --humidity-range 35,55 --flow-rate 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetGlobalConfig()
			audit := newAuditContext(ctx, "thresholds set", map[string]string{
				"temperature_range": fmt.Sprint(temperature),
				"humidity_range":    fmt.Sprint(humidity),
			})

			client, err := newAPIClient(ctx, cfg)
			if err != nil {
				return err
			}
			limits, err := client.Thresholds(ctx)
			if err != nil {
				audit.logFailure(ctx, err)
				return fmt.Errorf("fetching current thresholds: %w", err)
			}

			if cmd.Flags().Changed("temperature-range") {
				if limits.TemperatureRange, err = toRange(temperature); err != nil {
					return fmt.Errorf("--temperature-range: %w", err)
				}
			}
			if cmd.Flags().Changed("humidity-range") {
				if limits.HumidityRange, err = toRange(humidity); err != nil {
					return fmt.Errorf("--humidity-range: %w", err)
				}
			}
			if cmd.Flags().Changed("flow-rate") {
				limits.FlowRateThreshold = flowRate
			}

			if err = client.SetThresholds(ctx, limits); err != nil {
				audit.logFailure(ctx, err)
				return fmt.Errorf("updating thresholds: %w", err)
			}
			audit.logSuccess(ctx, "", limits.FlowRateThreshold)
			cmd.Println("Thresholds updated")
			return renderThresholds(cmd, OutputTable, limits)
		},
	}
	cmd.Flags().Float64SliceVar(&temperature, "temperature-range", nil, "temperature band in °C as low,high")
	cmd.Flags().Float64SliceVar(&humidity, "humidity-range", nil, "humidity band in % as low,high")
	cmd.Flags().Float64Var(&flowRate, "flow-rate", 0, "water flow alert level in L/min")
	return cmd
}

func newThresholdsCheckCmd() *cobra.Command {
	var params footprintParams
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the latest reading against the thresholds",
		Long: `Checks the latest sensor reading and water flow against the alert thresholds.
A snapshot file is checked against the configured thresholds; online checks use
the backend's. Exits with status 2 when any threshold is breached.`,
		Example: `  ecodetect thresholds check
  ecodetect thresholds check --snapshot reading.json --water-flow 12`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetGlobalConfig()
			params.hasWater = cmd.Flags().Changed("water-flow")
			if params.hasWater && params.snapshot == "" {
				return errWaterFlowNeedsSnapshot
			}
			format, err := resolveOutputFormat(params.output)
			if err != nil {
				return err
			}

			out, err := collectFootprint(ctx, cfg, params)
			if err != nil {
				return err
			}
			if format == OutputTable {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderBreaches(out.Breaches))
			} else if err = writeStructured(cmd.OutOrStdout(), format, out.Breaches); err != nil {
				return err
			}
			return checkBreaches(out.Breaches)
		},
	}
	cmd.Flags().StringVar(&params.snapshot, "snapshot", "", "sensor reading file to check instead of the backend")
	cmd.Flags().Float64Var(&params.waterFlow, "water-flow", 0, "water flow in L/min, overriding the snapshot's flow_rate")
	cmd.Flags().StringVarP(&params.output, "output", "o", "", "output format: table, json or ndjson")
	return cmd
}

func toRange(v []float64) (thresholds.Range, error) {
	if len(v) != 2 {
		return thresholds.Range{}, errBadRange
	}
	return thresholds.Range{v[0], v[1]}, nil
}

func renderThresholds(cmd *cobra.Command, format OutputFormat, t thresholds.Thresholds) error {
	if format != OutputTable {
		return writeStructured(cmd.OutOrStdout(), format, t)
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%-22s %g .. %g °C\n", "Temperature range", t.TemperatureRange.Low(), t.TemperatureRange.High())
	_, _ = fmt.Fprintf(w, "%-22s %g .. %g %%\n", "Humidity range", t.HumidityRange.Low(), t.HumidityRange.High())
	_, _ = fmt.Fprintf(w, "%-22s %g L/min\n", "Flow rate threshold", t.FlowRateThreshold)
	return nil
}
