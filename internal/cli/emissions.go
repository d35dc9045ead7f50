package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/greenops"
	"github.com/ecodetect/ecodetect/internal/ingest"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/monitor"
	"github.com/ecodetect/ecodetect/internal/tui"
)

// emissionsParams holds the emissions command flags.
type emissionsParams struct {
	history     string
	vehicleType string
	timeRange   string
	offline     bool
	timeline    bool
	safety      bool
	output      string
}

// emissionsOutput is the structured form of an emissions run.
type emissionsOutput struct {
	Tier        estimator.Tier              `json:"tier"`
	VehicleType estimator.VehicleType       `json:"vehicle_type"`
	TimeRange   estimator.TimeRange         `json:"time_range"`
	Result      estimator.EmissionsResult   `json:"result"`
	ScoreBand   estimator.ScoreBand         `json:"score_band"`
	Safety      *estimator.SafetySummary    `json:"safety,omitempty"`
	Timeline    []estimator.TimelinePoint   `json:"timeline,omitempty"`
	Equivalents *greenops.EquivalencyOutput `json:"equivalents,omitempty"`
	Failures    []string                    `json:"failures,omitempty"`
}

// NewEmissionsCmd creates the emissions command.
func NewEmissionsCmd() *cobra.Command {
	var params emissionsParams

	cmd := &cobra.Command{
		Use:   "emissions",
		Short: "Estimate vehicle CO2 emissions for a time range",
		Long: `Estimates vehicle CO2 emissions using the first available source:

  1. the backend's emissions summary for the range
  2. a local estimate from the movement history
  3. the built-in sample dataset for the range

With --history the movement history is read from a JSON or NDJSON file and the
backend is not contacted. --offline skips the backend entirely, which without a
history yields the sample dataset.`,
		Example: `  ecodetect emissions --range week --vehicle-type SMALL_DIESEL
  ecodetect emissions --history drive.ndjson --safety --timeline
  ecodetect emissions --offline --range month --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEmissions(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.history, "history", "", "movement history file (.json or .ndjson); skips the backend")
	cmd.Flags().StringVar(&params.vehicleType, "vehicle-type", "", "vehicle type, e.g. MEDIUM_PETROL (default from config)")
	cmd.Flags().StringVar(&params.timeRange, "range", "", "time range: day, week or month (default from config)")
	cmd.Flags().BoolVar(&params.offline, "offline", false, "do not contact the backend")
	cmd.Flags().BoolVar(&params.timeline, "timeline", false, "include the per-sample impact timeline")
	cmd.Flags().BoolVar(&params.safety, "safety", false, "include the drive safety summary")
	cmd.Flags().StringVarP(&params.output, "output", "o", "", "output format: table, json or ndjson")

	return cmd
}

func runEmissions(cmd *cobra.Command, params emissionsParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	audit := newAuditContext(ctx, "emissions", map[string]string{
		"history":      params.history,
		"vehicle_type": params.vehicleType,
		"range":        params.timeRange,
	})

	format, err := resolveOutputFormat(params.output)
	if err != nil {
		return err
	}

	out, err := collectEmissions(ctx, cfg, params)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("emissions estimation failed")
		audit.logFailure(ctx, err)
		return err
	}
	audit.logSuccess(ctx, out.Tier.String(), out.Result.TotalCO2Kg)

	return renderEmissions(cmd, format, out)
}

func collectEmissions(ctx context.Context, cfg *config.Config, params emissionsParams) (emissionsOutput, error) {
	est, err := newEstimator(cfg)
	if err != nil {
		return emissionsOutput{}, err
	}
	vehicle, tr, err := vehicleAndRange(est, cfg, params.vehicleType, params.timeRange)
	if err != nil {
		return emissionsOutput{}, err
	}

	var (
		estimate estimator.Estimate
		history  []estimator.MovementSample
		failures []string
	)
	switch {
	case params.history != "":
		history, err = ingest.LoadHistory(ctx, params.history)
		if err != nil {
			return emissionsOutput{}, err
		}
		estimate = est.EstimateEmissions(nil, history, vehicle, tr)
	case params.offline:
		estimate = est.EstimateEmissions(nil, nil, vehicle, tr)
	default:
		client, clientErr := newAPIClient(ctx, cfg)
		if clientErr != nil {
			return emissionsOutput{}, clientErr
		}
		m, monErr := monitor.New(client, est, monitor.Options{Vehicle: vehicle, Range: tr})
		if monErr != nil {
			return emissionsOutput{}, monErr
		}
		u := m.PollEmissions(ctx)
		estimate = *u.Emissions
		history = u.History
		failures = u.Failures
	}

	out := emissionsOutput{
		Tier:        estimate.Tier,
		VehicleType: vehicle,
		TimeRange:   tr,
		Result:      estimate.Result,
		ScoreBand:   estimator.RateScore(estimate.Result.DrivingEfficiencyScore),
		Failures:    failures,
	}
	if params.safety && len(history) > 0 {
		summary := estimator.SummarizeSafety(history)
		out.Safety = &summary
	}
	if params.timeline && len(history) > 0 {
		out.Timeline = estimator.Timeline(history)
	}
	if eq, eqErr := greenops.CalculateKg(estimate.Result.TotalCO2Kg); eqErr == nil && !eq.IsEmpty {
		out.Equivalents = &eq
	}
	return out, nil
}

func renderEmissions(cmd *cobra.Command, format OutputFormat, out emissionsOutput) error {
	w := cmd.OutOrStdout()
	switch format {
	case OutputJSON:
		return writeStructured(w, format, out)
	case OutputNDJSON:
		// Timeline points follow the summary, one per line.
		points := out.Timeline
		out.Timeline = nil
		if err := writeStructured(w, format, out); err != nil {
			return err
		}
		for _, p := range points {
			if err := writeStructured(w, format, p); err != nil {
				return err
			}
		}
		return nil
	default:
	}

	_, _ = fmt.Fprintln(w, tui.RenderEmissions(estimator.Estimate{Tier: out.Tier, Result: out.Result},
		out.VehicleType, out.TimeRange))
	if out.Safety != nil {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, tui.RenderSafety(*out.Safety))
	}
	if len(out.Timeline) > 0 {
		_, _ = fmt.Fprintln(w)
		writeTimeline(w, out.Timeline)
	}
	if len(out.Failures) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s unavailable\n", strings.Join(out.Failures, ", "))
	}
	return nil
}

func writeTimeline(w io.Writer, points []estimator.TimelinePoint) {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Impact
	}
	_, _ = fmt.Fprintln(w, tui.RenderTitle("Impact timeline"))
	_, _ = fmt.Fprintln(w, tui.Sparkline(values))
	for _, p := range points {
		ts := p.Sample.Timestamp
		if ts == "" {
			ts = "-"
		}
		_, _ = fmt.Fprintf(w, "%-28s %-14s %6.1f\n", ts, p.Sample.MovementType, p.Impact)
	}
}
