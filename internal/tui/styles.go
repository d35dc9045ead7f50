package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

// Palette.
const (
	ColorHeader   = lipgloss.Color("39")
	ColorLabel    = lipgloss.Color("245")
	ColorValue    = lipgloss.Color("255")
	ColorMuted    = lipgloss.Color("240")
	ColorBorder   = lipgloss.Color("62")
	ColorOK       = lipgloss.Color("42")
	ColorWarning  = lipgloss.Color("214")
	ColorCritical = lipgloss.Color("196")
)

// Status icons.
const (
	IconOK      = "✓"
	IconWarning = "⚠"
	IconLeaf    = "🌿"
)

//nolint:gochecknoglobals // shared read-only styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeader).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

func bandColor(b estimator.ScoreBand) lipgloss.Color {
	switch b {
	case estimator.BandGood:
		return ColorOK
	case estimator.BandFair:
		return ColorWarning
	default:
		return ColorCritical
	}
}

func impactColor(l estimator.ImpactLevel) lipgloss.Color {
	switch l {
	case estimator.ImpactLow:
		return ColorOK
	case estimator.ImpactModerate:
		return ColorWarning
	default:
		return ColorCritical
	}
}
