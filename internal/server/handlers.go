package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecodetect/ecodetect/internal/batch"
	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/greenops"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/thresholds"
	"github.com/ecodetect/ecodetect/pkg/version"
)

const (
	errInvalidBody  = "invalid request body"
	sourceNone      = "none"
	batchChunkItems = 25
)

// FootprintRequest carries the inputs of one footprint estimate.
type FootprintRequest struct {
	CarbonFootprint *float64                 `json:"carbon_footprint,omitempty"`
	Snapshot        estimator.SensorSnapshot `json:"snapshot"`
	WaterFlow       *float64                 `json:"water_flow,omitempty"`
	Thresholds      *thresholds.Thresholds   `json:"thresholds,omitempty"`
}

// FootprintResponse reports the estimate. Footprint is null when the inputs
// were insufficient.
type FootprintResponse struct {
	Footprint *estimator.FootprintResult `json:"footprint"`
	Impact    estimator.ImpactLevel      `json:"impact,omitempty"`
	Breaches  []thresholds.Breach        `json:"breaches,omitempty"`
}

// EmissionsRequest carries the inputs of one emissions estimate.
type EmissionsRequest struct {
	Remote      *estimator.EmissionsResult `json:"remote,omitempty"`
	History     []estimator.MovementSample `json:"history"`
	VehicleType string                     `json:"vehicle_type,omitempty"`
	TimeRange   string                     `json:"time_range,omitempty"`
}

// EmissionsResponse is the tiered estimate plus derived labels.
type EmissionsResponse struct {
	Tier        estimator.Tier              `json:"tier"`
	Result      estimator.EmissionsResult   `json:"result"`
	ScoreBand   estimator.ScoreBand         `json:"score_band"`
	Safety      *estimator.SafetySummary    `json:"safety,omitempty"`
	Equivalents *greenops.EquivalencyOutput `json:"equivalents,omitempty"`
}

// BatchRequest holds many emissions requests.
type BatchRequest struct {
	Requests []EmissionsRequest `json:"requests"`
}

// BatchItem is the outcome of one batch entry; exactly one of Estimate and
// Error is set.
type BatchItem struct {
	Index    int                `json:"index"`
	Estimate *EmissionsResponse `json:"estimate,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// BatchResponse lists outcomes in request order.
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// VehicleFactor is one row of the emission factor table.
type VehicleFactor struct {
	Type       estimator.VehicleType `json:"type"`
	GramsPerKm int                   `json:"grams_per_km"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleVehicleTypes(w http.ResponseWriter, _ *http.Request) {
	factors := s.est.Factors()
	out := make([]VehicleFactor, 0, len(factors))
	for _, v := range factors.Types() {
		out = append(out, VehicleFactor{Type: v, GramsPerKm: factors[v]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicle_types": out})
}

func (s *Server) handleFootprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req FootprintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Thresholds != nil {
		if err := req.Thresholds.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	start := time.Now()
	var remote *estimator.RemoteFootprint
	if req.CarbonFootprint != nil {
		remote = &estimator.RemoteFootprint{CarbonFootprint: req.CarbonFootprint}
	}
	result, ok := s.est.EstimateFootprint(remote, req.Snapshot, req.WaterFlow)

	resp := FootprintResponse{}
	source := sourceNone
	if ok {
		resp.Footprint = &result
		resp.Impact = estimator.RateImpact(result.Percent)
		source = string(result.Source)
	}
	s.metrics.observeFootprint(source, start)

	if req.Thresholds != nil {
		resp.Breaches = req.Thresholds.Check(req.Snapshot, req.WaterFlow)
	}

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("operation", "footprint").
		Str("source", source).
		Msg("footprint estimated")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEmissions(w http.ResponseWriter, r *http.Request) {
	var req EmissionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.estimateEmissions(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests must not be empty")
		return
	}
	if len(req.Requests) > s.opts.MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(req.Requests), s.opts.MaxBatchSize))
		return
	}
	s.metrics.batchItems.Observe(float64(len(req.Requests)))

	proc, err := batch.NewProcessor[EmissionsRequest](min(batchChunkItems, s.opts.MaxBatchSize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results, err := batch.Map(ctx, proc, req.Requests, s.opts.BatchConcurrency, s.estimateEmissions)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	resp := BatchResponse{Results: make([]BatchItem, len(results))}
	for i, res := range results {
		item := BatchItem{Index: res.Index}
		if res.Err != nil {
			item.Error = res.Err.Error()
			resp.Failed++
		} else {
			item.Estimate = res.Value
			resp.Succeeded++
		}
		resp.Results[i] = item
	}

	logging.FromContext(ctx).Info().Ctx(ctx).
		Str("operation", "emissions_batch").
		Int("succeeded", resp.Succeeded).
		Int("failed", resp.Failed).
		Msg("batch estimated")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) estimateEmissions(ctx context.Context, req EmissionsRequest) (*EmissionsResponse, error) {
	vehicle := estimator.DefaultType
	if strings.TrimSpace(req.VehicleType) != "" {
		v, err := s.est.Factors().ParseVehicleType(req.VehicleType)
		if err != nil {
			return nil, err
		}
		vehicle = v
	}
	tr := estimator.RangeDay
	if strings.TrimSpace(req.TimeRange) != "" {
		parsed, err := estimator.ParseTimeRange(req.TimeRange)
		if err != nil {
			return nil, err
		}
		tr = parsed
	}

	start := time.Now()
	est := s.est.EstimateEmissions(req.Remote, req.History, vehicle, tr)
	s.metrics.observeEmissions(est.Tier.String(), start)

	resp := &EmissionsResponse{
		Tier:      est.Tier,
		Result:    est.Result,
		ScoreBand: estimator.RateScore(est.Result.DrivingEfficiencyScore),
	}
	if len(req.History) > 0 {
		summary := estimator.SummarizeSafety(req.History)
		resp.Safety = &summary
	}
	if eq, err := greenops.CalculateKg(est.Result.TotalCO2Kg); err == nil && !eq.IsEmpty {
		resp.Equivalents = &eq
	}

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("operation", "emissions").
		Str("tier", est.Tier.String()).
		Str("vehicle_type", string(vehicle)).
		Str("time_range", string(tr)).
		Msg("emissions estimated")
	return resp, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%s: body exceeds %d bytes", errInvalidBody, maxErr.Limit)
		}
		return fmt.Errorf("%s: %w", errInvalidBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
