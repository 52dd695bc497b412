package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
)

// Output styling shared by the table-rendering commands. Styles are applied
// to already-padded cells so ANSI escapes never skew column widths.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")) // Purple
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))            // Medium gray
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))            // Green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))            // Yellow
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))            // Red
	plainStyle  = lipgloss.NewStyle()
)

// tierStyle colours a tier by crawl urgency.
func tierStyle(t domain.PriorityTier) lipgloss.Style {
	switch t {
	case domain.TierHigh:
		return okStyle
	case domain.TierLow:
		return mutedStyle
	default:
		return plainStyle
	}
}

// runStatusStyle colours a run outcome.
func runStatusStyle(s domain.RunStatus) lipgloss.Style {
	switch s {
	case domain.RunSuccess:
		return okStyle
	case domain.RunPartial:
		return warnStyle
	case domain.RunFailed:
		return errStyle
	default:
		return plainStyle
	}
}

// enabledStyle colours a source enablement marker.
func enabledStyle(enabled bool) lipgloss.Style {
	if enabled {
		return okStyle
	}
	return mutedStyle
}
