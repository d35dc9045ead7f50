// Package sensorapi is an HTTP client for the EcoDetect sensor backend.
package sensorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ecodetect/ecodetect/internal/cache"
	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/thresholds"
)

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
const (
	ErrInvalidBaseURL    = constError("invalid base URL")
	ErrUnexpectedStatus  = constError("unexpected HTTP status")
	ErrMalformedResponse = constError("malformed response")

	errMissingTotal = constError("missing total_co2")
)

// Backend endpoint paths.
const (
	PathSensorData      = "/api/sensor-data"
	PathWaterUsage      = "/api/water-usage"
	PathCarbonFootprint = "/api/carbon-footprint"
	PathMovement        = "/api/vehicle-movement"
	PathMovementHistory = "/api/vehicle-movement-history"
	PathEmissions       = "/api/vehicle-emissions"
	PathGetThresholds   = "/api/get-thresholds"
	PathSetThresholds   = "/api/set-thresholds"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

const maxBodyBytes = 4 << 20

// SensorDataSource provides the upstream readings the estimators consume.
type SensorDataSource interface {
	SensorData(ctx context.Context) (*SensorReading, error)
	WaterUsage(ctx context.Context) (*estimator.WaterFlowReading, error)
	CarbonFootprint(ctx context.Context) (*estimator.RemoteFootprint, error)
	VehicleMovement(ctx context.Context) (*estimator.MovementSample, error)
	VehicleMovementHistory(ctx context.Context, hours int) ([]estimator.MovementSample, error)
	VehicleEmissions(ctx context.Context, tr estimator.TimeRange) (*estimator.EmissionsResult, error)
}

// ThresholdStore reads and writes the alert thresholds record.
type ThresholdStore interface {
	Thresholds(ctx context.Context) (thresholds.Thresholds, error)
	SetThresholds(ctx context.Context, t thresholds.Thresholds) error
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Cache stores responses of the history and emissions endpoints.
	// Nil disables caching.
	Cache *cache.FileStore
}

// Client talks to the backend REST API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
	cache *cache.FileStore
}

var (
	_ SensorDataSource = (*Client)(nil)
	_ ThresholdStore   = (*Client)(nil)
)

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{base: u, token: opts.Token, http: hc, cache: opts.Cache}, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.base.String() }

// SensorData fetches the latest environmental reading.
func (c *Client) SensorData(ctx context.Context) (*SensorReading, error) {
	var out SensorReading
	if err := c.getJSON(ctx, PathSensorData, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaterUsage fetches the current water-flow reading.
func (c *Client) WaterUsage(ctx context.Context) (*estimator.WaterFlowReading, error) {
	var out estimator.WaterFlowReading
	if err := c.getJSON(ctx, PathWaterUsage, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CarbonFootprint fetches the server-computed footprint.
func (c *Client) CarbonFootprint(ctx context.Context) (*estimator.RemoteFootprint, error) {
	var out estimator.RemoteFootprint
	if err := c.getJSON(ctx, PathCarbonFootprint, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VehicleMovement fetches the latest classified movement sample.
func (c *Client) VehicleMovement(ctx context.Context) (*estimator.MovementSample, error) {
	var out estimator.MovementSample
	if err := c.getJSON(ctx, PathMovement, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VehicleMovementHistory fetches the samples of the last hours.
func (c *Client) VehicleMovementHistory(ctx context.Context, hours int) ([]estimator.MovementSample, error) {
	params := map[string]string{"hours": strconv.Itoa(max(hours, 1))}
	var samples []estimator.MovementSample
	err := c.get(ctx, PathMovementHistory, params, true, func(raw []byte) error {
		var err error
		samples, err = decodeHistory(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// VehicleEmissions fetches the server-side emissions summary for tr.
// A body without a total_co2 field is malformed, so callers fall through to
// the next estimation tier instead of trusting a zero result.
func (c *Client) VehicleEmissions(ctx context.Context, tr estimator.TimeRange) (*estimator.EmissionsResult, error) {
	var out *estimator.EmissionsResult
	err := c.get(ctx, PathEmissions, map[string]string{"range": string(tr)}, true, func(raw []byte) error {
		var err error
		out, err = decodeEmissions(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Thresholds fetches the alert thresholds.
func (c *Client) Thresholds(ctx context.Context) (thresholds.Thresholds, error) {
	var out thresholds.Thresholds
	if err := c.getJSON(ctx, PathGetThresholds, nil, false, &out); err != nil {
		return thresholds.Thresholds{}, err
	}
	return out, nil
}

// SetThresholds validates t and stores it on the backend.
func (c *Client) SetThresholds(ctx context.Context, t thresholds.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding thresholds: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, PathSetThresholds, nil, body)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, cacheable bool, dst any) error {
	return c.get(ctx, path, params, cacheable, func(raw []byte) error {
		return json.Unmarshal(raw, dst)
	})
}

// get fetches path and hands the body to decode. Only bodies that decode
// cleanly are written to the cache; a cached body that no longer decodes is
// refetched.
func (c *Client) get(
	ctx context.Context,
	path string,
	params map[string]string,
	cacheable bool,
	decode func([]byte) error,
) error {
	log := logging.FromContext(ctx)
	useCache := cacheable && c.cache != nil && c.cache.IsEnabled()

	var key string
	if useCache {
		key = cache.Key(path, params)
		entry, err := c.cache.Get(key)
		switch {
		case err == nil:
			if decErr := decode(entry.Data); decErr == nil {
				log.Debug().Ctx(ctx).
					Str("component", "sensorapi").
					Str("path", path).
					Msg("cache hit")
				return nil
			}
			log.Warn().Ctx(ctx).
				Str("component", "sensorapi").
				Str("path", path).
				Msg("discarding undecodable cache entry")
		case !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheExpired):
			log.Warn().Ctx(ctx).
				Str("component", "sensorapi").
				Err(err).
				Msg("cache read failed")
		}
	}

	raw, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	if err := decode(raw); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, path, err)
	}

	if useCache {
		if setErr := c.cache.Set(key, raw); setErr != nil {
			log.Warn().Ctx(ctx).
				Str("component", "sensorapi").
				Err(setErr).
				Msg("cache write failed")
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body []byte) ([]byte, error) {
	log := logging.FromContext(ctx)

	u := *c.base
	u.Path = c.base.Path + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug().Ctx(ctx).
		Str("component", "sensorapi").
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration_ms", time.Since(start)).
		Msg("backend request")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	return raw, nil
}
