package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ecodetect/ecodetect/internal/cache"
	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/sensorapi"
)

// auditContext holds common context for audit logging within a command.
type auditContext struct {
	logger  logging.AuditLogger
	traceID string
	params  map[string]string
	start   time.Time
	command string
}

// newAuditContext creates a new audit context.
func newAuditContext(ctx context.Context, command string, params map[string]string) *auditContext {
	return &auditContext{
		logger:  logging.AuditLoggerFromContext(ctx),
		traceID: logging.TraceIDFromContext(ctx),
		params:  params,
		start:   time.Now(),
		command: command,
	}
}

// logFailure logs an audit entry for a failed operation.
func (a *auditContext) logFailure(ctx context.Context, err error) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithError(err.Error()).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// logSuccess logs an audit entry tagged with the tier or source that produced result.
func (a *auditContext) logSuccess(ctx context.Context, tier string, result float64) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithSuccess(tier, result).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// newEstimator builds the estimator from the estimator section of cfg.
func newEstimator(cfg *config.Config) (*estimator.Estimator, error) {
	ecfg, err := cfg.Estimator.ToEstimatorConfig()
	if err != nil {
		return nil, err
	}
	return estimator.New(ecfg)
}

// newCacheStore opens the response cache. A disabled cache yields a store
// that the client skips.
func newCacheStore(cfg *config.Config) (*cache.FileStore, error) {
	if !cfg.API.Cache.Enabled || cfg.API.Cache.TTLSeconds == 0 {
		return cache.NewFileStore(cache.Options{Enabled: false})
	}
	dir, err := config.GetCacheDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	return cache.NewFileStore(cache.Options{
		Directory: dir,
		Enabled:   true,
		TTL:       time.Duration(cfg.API.Cache.TTLSeconds) * time.Second,
		MaxSizeMB: cfg.API.Cache.MaxSizeMB,
	})
}

// newAPIClient builds the backend client with the response cache attached.
func newAPIClient(ctx context.Context, cfg *config.Config) (*sensorapi.Client, error) {
	log := logging.FromContext(ctx)

	store, err := newCacheStore(cfg)
	if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("response cache unavailable, continuing without it")
		store = nil
	}
	client, err := sensorapi.New(sensorapi.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
		Cache:   store,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}
	log.Debug().Ctx(ctx).Str("base_url", client.BaseURL()).Msg("API client ready")
	return client, nil
}

// vehicleAndRange resolves the vehicle type and time range, preferring flag
// values over configuration.
func vehicleAndRange(
	est *estimator.Estimator, cfg *config.Config, vehicleFlag, rangeFlag string,
) (estimator.VehicleType, estimator.TimeRange, error) {
	vehicleRaw := cfg.Estimator.VehicleType
	if vehicleFlag != "" {
		vehicleRaw = vehicleFlag
	}
	vehicle, err := est.Factors().ParseVehicleType(vehicleRaw)
	if err != nil {
		return "", "", err
	}

	rangeRaw := cfg.Estimator.TimeRange
	if rangeFlag != "" {
		rangeRaw = rangeFlag
	}
	tr, err := estimator.ParseTimeRange(rangeRaw)
	if err != nil {
		return "", "", err
	}
	return vehicle, tr, nil
}
