package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/ingest"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/monitor"
	"github.com/ecodetect/ecodetect/internal/thresholds"
	"github.com/ecodetect/ecodetect/internal/tui"
)

// watchParams holds the watch command flags.
type watchParams struct {
	vehicleType       string
	timeRange         string
	footprintInterval time.Duration
	emissionsInterval time.Duration
	mqtt              bool
	plain             bool
}

// watchRecord is one NDJSON line of plain watch output.
type watchRecord struct {
	Kind      monitor.Kind               `json:"kind"`
	At        time.Time                  `json:"at"`
	Footprint *estimator.FootprintResult `json:"footprint,omitempty"`
	Fresh     bool                       `json:"fresh,omitempty"`
	Breaches  []thresholds.Breach        `json:"breaches,omitempty"`
	Emissions *estimator.Estimate        `json:"emissions,omitempty"`
	Failures  []string                   `json:"failures,omitempty"`
}

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var params watchParams

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously monitor footprint and emissions",
		Long: `Polls the backend on two timers, the footprint every 10 seconds and the
emissions every 60 seconds by default, and shows the results in a live terminal
dashboard. When stdout is not a terminal, or with --plain, each update is written
as one JSON line instead.

With --mqtt (or mqtt.enabled in the configuration) sensor readings pushed by the
device over MQTT replace the polled sensor-data endpoint.`,
		Example: `  ecodetect watch
  ecodetect watch --mqtt --vehicle-type MEDIUM_HYBRID
  ecodetect watch --plain --footprint-interval 5s > updates.ndjson`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.vehicleType, "vehicle-type", "", "vehicle type (default from config)")
	cmd.Flags().StringVar(&params.timeRange, "range", "", "time range: day, week or month (default from config)")
	cmd.Flags().DurationVar(&params.footprintInterval, "footprint-interval", 0, "footprint poll interval (default from config)")
	cmd.Flags().DurationVar(&params.emissionsInterval, "emissions-interval", 0, "emissions poll interval (default from config)")
	cmd.Flags().BoolVar(&params.mqtt, "mqtt", false, "subscribe to the device MQTT topic")
	cmd.Flags().BoolVar(&params.plain, "plain", false, "write NDJSON updates instead of the dashboard")

	return cmd
}

func runWatch(cmd *cobra.Command, params watchParams) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	est, err := newEstimator(cfg)
	if err != nil {
		return err
	}
	vehicle, tr, err := vehicleAndRange(est, cfg, params.vehicleType, params.timeRange)
	if err != nil {
		return err
	}
	client, err := newAPIClient(ctx, cfg)
	if err != nil {
		return err
	}

	opts := monitor.Options{
		FootprintInterval: firstPositive(params.footprintInterval, cfg.Monitor.FootprintInterval),
		EmissionsInterval: firstPositive(params.emissionsInterval, cfg.Monitor.EmissionsInterval),
		Vehicle:           vehicle,
		Range:             tr,
		Store:             client,
		Limits:            cfg.Monitor.Thresholds,
	}

	var feed *ingest.MQTTFeed
	if params.mqtt || cfg.MQTT.Enabled {
		feed, err = ingest.NewMQTTFeed(ingest.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		})
		if err != nil {
			return fmt.Errorf("configuring MQTT feed: %w", err)
		}
		opts.Feed = feed
	}

	m, err := monitor.New(client, est, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(gctx) })
	if feed != nil {
		g.Go(func() error {
			if feedErr := feed.Start(gctx); feedErr != nil {
				log.Warn().Ctx(gctx).Err(feedErr).
					Str("broker", cfg.MQTT.Broker).
					Msg("MQTT feed unavailable, polling sensor data instead")
			}
			return nil
		})
	}

	var uiErr error
	if params.plain || !isTerminal(os.Stdout) {
		uiErr = streamUpdates(cmd.OutOrStdout(), m.Updates())
	} else {
		model := tui.NewDashboardModel(gctx, m.Updates(), m, vehicle, tr)
		_, uiErr = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
		if errors.Is(uiErr, tea.ErrProgramKilled) {
			uiErr = nil
		}
	}
	cancel()

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return uiErr
}

// streamUpdates writes each update as an NDJSON line until the channel closes.
func streamUpdates(w io.Writer, updates <-chan monitor.Update) error {
	for u := range updates {
		rec := watchRecord{
			Kind:      u.Kind,
			At:        u.At,
			Footprint: u.Footprint,
			Fresh:     u.Fresh,
			Breaches:  u.Breaches,
			Emissions: u.Emissions,
			Failures:  u.Failures,
		}
		if err := writeStructured(w, OutputNDJSON, rec); err != nil {
			return err
		}
	}
	return nil
}

func firstPositive(ds ...time.Duration) time.Duration {
	for _, d := range ds {
		if d > 0 {
			return d
		}
	}
	return 0
}
