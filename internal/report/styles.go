package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	succeededStyle = lipgloss.NewStyle().Foreground(colorGreen)
	failedStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	skippedStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim)
)

func statusStyle(s orchestrator.Status) lipgloss.Style {
	switch s {
	case orchestrator.StatusSucceeded:
		return succeededStyle
	case orchestrator.StatusFailed:
		return failedStyle
	case orchestrator.StatusSkipped:
		return skippedStyle
	default:
		return dimStyle
	}
}
