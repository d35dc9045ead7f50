package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/ingest"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/monitor"
	"github.com/ecodetect/ecodetect/internal/thresholds"
	"github.com/ecodetect/ecodetect/internal/tui"
)

var errWaterFlowNeedsSnapshot = constError("--water-flow requires --snapshot")

// footprintParams holds the footprint command flags.
type footprintParams struct {
	snapshot  string
	waterFlow float64
	hasWater  bool
	output    string
}

// footprintOutput is the structured form of a footprint run.
type footprintOutput struct {
	Footprint *estimator.FootprintResult `json:"footprint"`
	Impact    estimator.ImpactLevel      `json:"impact,omitempty"`
	Breaches  []thresholds.Breach        `json:"breaches"`
	Failures  []string                   `json:"failures,omitempty"`
}

// NewFootprintCmd creates the footprint command.
func NewFootprintCmd() *cobra.Command {
	var params footprintParams

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Estimate the current environmental impact percentage",
		Long: `Estimates the 0-100% environmental impact from the latest sensor reading.

Online, the backend's carbon footprint is used when it reports one; otherwise the
value is computed locally from temperature, water flow, altitude and pressure.
With --snapshot the reading is loaded from a JSON or NDJSON file and no backend
is contacted.`,
		Example: `  ecodetect footprint
  ecodetect footprint --snapshot reading.json --water-flow 5.5
  ecodetect footprint --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.hasWater = cmd.Flags().Changed("water-flow")
			if params.hasWater && params.snapshot == "" {
				return errWaterFlowNeedsSnapshot
			}
			return runFootprint(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.snapshot, "snapshot", "", "sensor reading file (.json or .ndjson); skips the backend")
	cmd.Flags().Float64Var(&params.waterFlow, "water-flow", 0, "water flow in L/min, overriding the snapshot's flow_rate")
	cmd.Flags().StringVarP(&params.output, "output", "o", "", "output format: table, json or ndjson")

	return cmd
}

func runFootprint(cmd *cobra.Command, params footprintParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	auditParams := map[string]string{"snapshot": params.snapshot}
	if params.hasWater {
		auditParams["water_flow"] = strconv.FormatFloat(params.waterFlow, 'f', -1, 64)
	}
	audit := newAuditContext(ctx, "footprint", auditParams)

	format, err := resolveOutputFormat(params.output)
	if err != nil {
		return err
	}

	out, err := collectFootprint(ctx, cfg, params)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("footprint estimation failed")
		audit.logFailure(ctx, err)
		return err
	}

	if out.Footprint != nil {
		audit.logSuccess(ctx, string(out.Footprint.Source), out.Footprint.Percent)
	} else {
		audit.logSuccess(ctx, "", 0)
	}
	return renderFootprint(cmd, format, out)
}

// collectFootprint runs the estimate either against a snapshot file or
// against one monitor poll of the backend.
func collectFootprint(ctx context.Context, cfg *config.Config, params footprintParams) (footprintOutput, error) {
	est, err := newEstimator(cfg)
	if err != nil {
		return footprintOutput{}, err
	}

	if params.snapshot != "" {
		reading, loadErr := ingest.LoadSnapshot(ctx, params.snapshot)
		if loadErr != nil {
			return footprintOutput{}, loadErr
		}
		flow := reading.FlowRate
		if params.hasWater {
			flow = &params.waterFlow
		}
		snapshot := reading.Snapshot()
		out := footprintOutput{Breaches: cfg.Monitor.Thresholds.Check(snapshot, flow)}
		if result, ok := est.EstimateFootprint(nil, snapshot, flow); ok {
			out.Footprint = &result
		}
		return withImpact(out), nil
	}

	client, err := newAPIClient(ctx, cfg)
	if err != nil {
		return footprintOutput{}, err
	}
	m, err := monitor.New(client, est, monitor.Options{
		Store:  client,
		Limits: cfg.Monitor.Thresholds,
	})
	if err != nil {
		return footprintOutput{}, err
	}
	u := m.PollFootprint(ctx)
	return withImpact(footprintOutput{
		Footprint: u.Footprint,
		Breaches:  u.Breaches,
		Failures:  u.Failures,
	}), nil
}

func withImpact(out footprintOutput) footprintOutput {
	if out.Footprint != nil {
		out.Impact = estimator.RateImpact(out.Footprint.Percent)
	}
	if out.Breaches == nil {
		out.Breaches = []thresholds.Breach{}
	}
	return out
}

func renderFootprint(cmd *cobra.Command, format OutputFormat, out footprintOutput) error {
	if format != OutputTable {
		return writeStructured(cmd.OutOrStdout(), format, out)
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, tui.RenderFootprint(out.Footprint, out.Footprint != nil))
	if len(out.Breaches) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, tui.RenderBreaches(out.Breaches))
	}
	for _, f := range out.Failures {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s unavailable\n", f)
	}
	return nil
}
