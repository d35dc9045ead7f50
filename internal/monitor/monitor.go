// Package monitor polls the sensor backend on fixed intervals and turns the
// readings into footprint and emissions estimates.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/sensorapi"
	"github.com/ecodetect/ecodetect/internal/thresholds"
)

// Default polling intervals.
const (
	DefaultFootprintInterval = 10 * time.Second
	DefaultEmissionsInterval = 60 * time.Second
	DefaultFeedRefresh       = time.Second
	updateBuffer             = 8
)

type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidOptions is returned by New.
const ErrInvalidOptions = constError("invalid monitor options")

// Kind tells which poll produced an Update.
type Kind string

// Update kinds.
const (
	KindFootprint Kind = "footprint"
	KindEmissions Kind = "emissions"
)

// SnapshotFeed supplies pushed sensor readings, such as an MQTT subscription.
// Each value on Updates triggers a footprint poll.
type SnapshotFeed interface {
	Latest() (*sensorapi.SensorReading, time.Time, bool)
	Updates() <-chan sensorapi.SensorReading
}

// Update is the outcome of one poll.
type Update struct {
	Kind Kind
	At   time.Time

	// Footprint is the value to display. When the poll produced no result
	// it carries the previous value and Fresh is false.
	Footprint *estimator.FootprintResult
	Fresh     bool
	Reading   *sensorapi.SensorReading
	WaterFlow *float64
	Breaches  []thresholds.Breach

	Emissions *estimator.Estimate
	History   []estimator.MovementSample

	// Failures lists upstream fetches that failed during the poll.
	Failures []string
}

// Options configures a Monitor.
type Options struct {
	FootprintInterval time.Duration
	EmissionsInterval time.Duration
	Vehicle           estimator.VehicleType
	Range             estimator.TimeRange

	// Thresholds are fetched from Store each footprint poll when set,
	// falling back to the last known record, then to Limits.
	Store  sensorapi.ThresholdStore
	Limits thresholds.Thresholds

	// Feed replaces the polled sensor-data endpoint when it has a reading.
	Feed SnapshotFeed
	// FeedRefresh is the minimum gap between footprint polls triggered by
	// feed readings.
	FeedRefresh time.Duration
}

// Monitor drives periodic estimation.
type Monitor struct {
	src  sensorapi.SensorDataSource
	est  *estimator.Estimator
	opts Options

	updates chan Update

	mu         sync.Mutex
	last       *estimator.FootprintResult
	lastLimits thresholds.Thresholds
}

// New validates opts and fills defaults.
func New(src sensorapi.SensorDataSource, est *estimator.Estimator, opts Options) (*Monitor, error) {
	if src == nil || est == nil {
		return nil, fmt.Errorf("%w: source and estimator are required", ErrInvalidOptions)
	}
	if opts.FootprintInterval == 0 {
		opts.FootprintInterval = DefaultFootprintInterval
	}
	if opts.EmissionsInterval == 0 {
		opts.EmissionsInterval = DefaultEmissionsInterval
	}
	if opts.FeedRefresh == 0 {
		opts.FeedRefresh = DefaultFeedRefresh
	}
	if opts.FootprintInterval < 0 || opts.EmissionsInterval < 0 || opts.FeedRefresh < 0 {
		return nil, fmt.Errorf("%w: intervals must be positive", ErrInvalidOptions)
	}
	if opts.Vehicle == "" {
		opts.Vehicle = estimator.DefaultType
	}
	if opts.Range == "" {
		opts.Range = estimator.RangeDay
	}
	if !opts.Range.IsValid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidOptions, estimator.ErrInvalidTimeRange, opts.Range)
	}
	if opts.Limits == (thresholds.Thresholds{}) {
		opts.Limits = thresholds.Default()
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return &Monitor{
		src:        src,
		est:        est,
		opts:       opts,
		updates:    make(chan Update, updateBuffer),
		lastLimits: opts.Limits,
	}, nil
}

// Updates is closed when Run returns.
func (m *Monitor) Updates() <-chan Update { return m.updates }

// Run polls both estimates immediately and then on their intervals until
// ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.updates)
	log := logging.FromContext(ctx)

	log.Info().Ctx(ctx).
		Str("component", "monitor").
		Dur("footprint_interval", m.opts.FootprintInterval).
		Dur("emissions_interval", m.opts.EmissionsInterval).
		Str("vehicle_type", string(m.opts.Vehicle)).
		Str("time_range", string(m.opts.Range)).
		Msg("monitor started")

	footprint := time.NewTicker(m.opts.FootprintInterval)
	defer footprint.Stop()
	emissions := time.NewTicker(m.opts.EmissionsInterval)
	defer emissions.Stop()

	var pushed <-chan sensorapi.SensorReading
	if m.opts.Feed != nil {
		pushed = m.opts.Feed.Updates()
	}

	if !m.publish(ctx, m.PollFootprint(ctx)) || !m.publish(ctx, m.PollEmissions(ctx)) {
		return nil
	}
	lastFootprint := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info().Ctx(ctx).Str("component", "monitor").Msg("monitor stopped")
			return nil
		case <-footprint.C:
			if !m.publish(ctx, m.PollFootprint(ctx)) {
				return nil
			}
			lastFootprint = time.Now()
		case _, ok := <-pushed:
			if !ok {
				pushed = nil
				continue
			}
			// Readings inside the refresh gap are still picked up through
			// Latest on the next poll.
			if time.Since(lastFootprint) < m.opts.FeedRefresh {
				continue
			}
			if !m.publish(ctx, m.PollFootprint(ctx)) {
				return nil
			}
			lastFootprint = time.Now()
		case <-emissions.C:
			if !m.publish(ctx, m.PollEmissions(ctx)) {
				return nil
			}
		}
	}
}

func (m *Monitor) publish(ctx context.Context, u Update) bool {
	select {
	case m.updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

// PollFootprint fetches the snapshot, water usage, remote footprint and
// thresholds concurrently. Failed fetches become absent inputs.
func (m *Monitor) PollFootprint(ctx context.Context) Update {
	log := logging.FromContext(ctx)
	u := Update{Kind: KindFootprint, At: time.Now()}

	var (
		reading  *sensorapi.SensorReading
		water    *estimator.WaterFlowReading
		remote   *estimator.RemoteFootprint
		limits   *thresholds.Thresholds
		failMu   sync.Mutex
		failures []string
	)
	fail := func(what string, err error) {
		log.Warn().Ctx(ctx).
			Str("component", "monitor").
			Str("operation", "poll_footprint").
			Str("fetch", what).
			Err(err).
			Msg("upstream fetch failed, continuing without it")
		failMu.Lock()
		failures = append(failures, what)
		failMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if m.opts.Feed != nil {
			if r, _, ok := m.opts.Feed.Latest(); ok {
				reading = r
				return nil
			}
		}
		r, err := m.src.SensorData(gctx)
		if err != nil {
			fail("sensor-data", err)
			return nil
		}
		reading = r
		return nil
	})
	g.Go(func() error {
		w, err := m.src.WaterUsage(gctx)
		if err != nil {
			fail("water-usage", err)
			return nil
		}
		water = w
		return nil
	})
	g.Go(func() error {
		fp, err := m.src.CarbonFootprint(gctx)
		if err != nil {
			fail("carbon-footprint", err)
			return nil
		}
		remote = fp
		return nil
	})
	if m.opts.Store != nil {
		g.Go(func() error {
			t, err := m.opts.Store.Thresholds(gctx)
			if err != nil {
				fail("thresholds", err)
				return nil
			}
			if vErr := t.Validate(); vErr != nil {
				fail("thresholds", vErr)
				return nil
			}
			limits = &t
			return nil
		})
	}
	_ = g.Wait()

	var snapshot estimator.SensorSnapshot
	if reading != nil {
		snapshot = reading.Snapshot()
		if reading.FlowRate != nil && water == nil {
			water = &estimator.WaterFlowReading{FlowRate: *reading.FlowRate}
		}
	}
	var flow *float64
	if water != nil {
		v := water.FlowRate
		flow = &v
	}

	result, ok := m.est.EstimateFootprint(remote, snapshot, flow)

	m.mu.Lock()
	if ok {
		m.last = &result
	}
	if limits != nil {
		m.lastLimits = *limits
	}
	if m.last != nil {
		cp := *m.last
		u.Footprint = &cp
	}
	active := m.lastLimits
	m.mu.Unlock()

	u.Fresh = ok
	u.Reading = reading
	u.WaterFlow = flow
	u.Failures = failures
	u.Breaches = active.Check(snapshot, flow)

	ev := log.Debug().Ctx(ctx).
		Str("component", "monitor").
		Str("operation", "poll_footprint").
		Bool("fresh", ok).
		Int("breaches", len(u.Breaches))
	if u.Footprint != nil {
		ev = ev.Float64("footprint", u.Footprint.Percent).Str("source", string(u.Footprint.Source))
	}
	ev.Msg("footprint poll complete")
	return u
}

// PollEmissions fetches the remote summary and the movement history
// concurrently and runs the tiered estimate.
func (m *Monitor) PollEmissions(ctx context.Context) Update {
	log := logging.FromContext(ctx)
	u := Update{Kind: KindEmissions, At: time.Now()}

	var (
		remote   *estimator.EmissionsResult
		history  []estimator.MovementSample
		failMu   sync.Mutex
		failures []string
	)
	fail := func(what string, err error) {
		log.Warn().Ctx(ctx).
			Str("component", "monitor").
			Str("operation", "poll_emissions").
			Str("fetch", what).
			Err(err).
			Msg("upstream fetch failed, continuing without it")
		failMu.Lock()
		failures = append(failures, what)
		failMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := m.src.VehicleEmissions(gctx, m.opts.Range)
		if err != nil {
			fail("vehicle-emissions", err)
			return nil
		}
		remote = r
		return nil
	})
	g.Go(func() error {
		h, err := m.src.VehicleMovementHistory(gctx, m.opts.Range.Hours())
		if err != nil {
			fail("vehicle-movement-history", err)
			return nil
		}
		history = h
		return nil
	})
	_ = g.Wait()

	est := m.est.EstimateEmissions(remote, history, m.opts.Vehicle, m.opts.Range)
	u.Emissions = &est
	u.History = history
	u.Failures = failures

	log.Debug().Ctx(ctx).
		Str("component", "monitor").
		Str("operation", "poll_emissions").
		Str("tier", est.Tier.String()).
		Int("samples", len(history)).
		Float64("total_co2", est.Result.TotalCO2Kg).
		Msg("emissions poll complete")
	return u
}
