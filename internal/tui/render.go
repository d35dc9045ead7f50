package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/greenops"
	"github.com/ecodetect/ecodetect/internal/thresholds"
)

const sparkRunes = "▁▂▃▄▅▆▇█"

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-22s", label)) + valueStyle.Render(value)
}

// RenderTitle renders a boxed heading.
func RenderTitle(title string) string {
	return titleStyle.Render(title)
}

// RenderFootprint renders a footprint panel. A nil result renders a
// placeholder.
func RenderFootprint(result *estimator.FootprintResult, fresh bool) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("CARBON FOOTPRINT"))
	sb.WriteString("\n")
	if result == nil {
		sb.WriteString(mutedStyle.Render("waiting for temperature and water flow readings"))
		return sb.String()
	}

	level := estimator.RateImpact(result.Percent)
	pct := lipgloss.NewStyle().Foreground(impactColor(level)).Bold(true).
		Render(fmt.Sprintf("%.1f%%", result.Percent))
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-22s", "Impact")) + pct + " " + mutedStyle.Render(string(level)))
	sb.WriteString("\n")
	sb.WriteString(row("Source", sourceLabel(result.Source)))
	if !fresh {
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render("showing last known value"))
	}
	return sb.String()
}

func sourceLabel(s estimator.Source) string {
	if s == estimator.SourceAPI {
		return "server"
	}
	return "local estimate"
}

// RenderEmissions renders the emissions summary with breakdown, events,
// trend and equivalents.
func RenderEmissions(est estimator.Estimate, vehicle estimator.VehicleType, tr estimator.TimeRange) string {
	r := est.Result
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("VEHICLE EMISSIONS (%s)", strings.ToUpper(string(tr)))))
	sb.WriteString("\n")
	sb.WriteString(row("Total CO2", greenops.FormatKg(r.TotalCO2Kg)))
	sb.WriteString("\n")
	sb.WriteString(row("Distance", greenops.FormatFloat(r.DistanceKm, 1)+" km"))
	sb.WriteString("\n")
	avg := "n/a"
	if r.AvgCO2PerKm != nil {
		avg = greenops.FormatFloat(*r.AvgCO2PerKm, 1) + " g/km"
	}
	sb.WriteString(row("Average", avg))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-22s", "Eco-driving score")) + RenderScore(r.DrivingEfficiencyScore))
	sb.WriteString("\n")
	if vehicle != "" {
		sb.WriteString(row("Vehicle", string(vehicle)))
		sb.WriteString("\n")
	}
	sb.WriteString(row("Data", tierLabel(est.Tier)))
	sb.WriteString("\n\n")

	sb.WriteString(headerStyle.Render("ECO-DRIVING EVENTS"))
	sb.WriteString("\n")
	sb.WriteString(row("Harsh braking", fmt.Sprintf("%d", r.Events.HarshBraking)))
	sb.WriteString("\n")
	sb.WriteString(row("Rapid acceleration", fmt.Sprintf("%d", r.Events.RapidAcceleration)))
	sb.WriteString("\n")
	sb.WriteString(row("Idle time", fmt.Sprintf("%g min", r.Events.IdleTimeMinutes)))

	if b := r.Breakdown; b != nil {
		sb.WriteString("\n\n")
		sb.WriteString(headerStyle.Render("BREAKDOWN"))
		sb.WriteString("\n")
		sb.WriteString(row("Distance based", greenops.FormatKg(b.BaseEmissions)))
		sb.WriteString("\n")
		sb.WriteString(row("Driving behaviour", greenops.FormatKg(b.BehaviorPenalties)))
	}

	if len(r.Trend) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(headerStyle.Render("TREND"))
		sb.WriteString("\n")
		sb.WriteString(RenderTrend(r.Trend))
	}

	if eq, err := greenops.CalculateKg(r.TotalCO2Kg); err == nil && !eq.IsEmpty {
		sb.WriteString("\n\n")
		sb.WriteString(mutedStyle.Render(IconLeaf + " " + eq.DisplayText))
	}
	return sb.String()
}

func tierLabel(t estimator.Tier) string {
	switch t {
	case estimator.TierRemote:
		return "server"
	case estimator.TierLocal:
		return "local estimate"
	default:
		return "sample data"
	}
}

// RenderScore colours a driving score by its band.
func RenderScore(score int) string {
	band := estimator.RateScore(score)
	return lipgloss.NewStyle().Foreground(bandColor(band)).Bold(true).
		Render(fmt.Sprintf("%d/100", score)) + " " + mutedStyle.Render(string(band))
}

// Sparkline maps values onto block characters scaled between their min and max.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	runes := []rune(sparkRunes)
	var sb strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(runes)-1)))
		}
		sb.WriteRune(runes[idx])
	}
	return sb.String()
}

// RenderTrend renders the trend as a sparkline with its date span.
func RenderTrend(points []estimator.TrendPoint) string {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.CO2
	}
	span := points[0].Date
	if len(points) > 1 {
		span += " .. " + points[len(points)-1].Date
	}
	return valueStyle.Render(Sparkline(values)) + "  " + mutedStyle.Render(span)
}

// RenderBreaches lists threshold breaches, or an all-clear line.
func RenderBreaches(breaches []thresholds.Breach) string {
	if len(breaches) == 0 {
		return lipgloss.NewStyle().Foreground(ColorOK).Render(IconOK + " all readings within thresholds")
	}
	warn := lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	lines := make([]string, 0, len(breaches))
	for _, b := range breaches {
		lines = append(lines, warn.Render(IconWarning+" "+b.String()))
	}
	return strings.Join(lines, "\n")
}

// RenderSafety renders a drive safety summary.
func RenderSafety(s estimator.SafetySummary) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("DRIVE SAFETY"))
	sb.WriteString("\n")
	sb.WriteString(row("Harsh braking", fmt.Sprintf("%d", s.HarshBraking)))
	sb.WriteString("\n")
	sb.WriteString(row("Rapid acceleration", fmt.Sprintf("%d", s.RapidAcceleration)))
	sb.WriteString("\n")
	sb.WriteString(row("Rough road", fmt.Sprintf("%d", s.RoughRoad)))
	sb.WriteString("\n")
	sb.WriteString(row("Total events", fmt.Sprintf("%d", s.Total)))
	return sb.String()
}

// RenderEquivalents lists every everyday comparison for kg of CO2.
func RenderEquivalents(kg float64) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("EQUIVALENT TO"))
	eq, err := greenops.CalculateKg(kg)
	if err != nil || eq.IsEmpty {
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render("amount too small to compare"))
		return sb.String()
	}
	for _, r := range eq.Results {
		sb.WriteString("\n")
		sb.WriteString(row(r.FormattedValue, r.Label))
	}
	return sb.String()
}
