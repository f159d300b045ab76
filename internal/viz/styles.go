package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func headerStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1)
}

func graphStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0)
}

func statusStyle(t Theme, paused bool) lipgloss.Style {
	if paused {
		return lipgloss.NewStyle().Bold(true).Foreground(t.Paused)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(t.Running)
}

// ProgressBar renders a fixed-width bar for a ratio in [0,1].
func ProgressBar(ratio float64, width int) string {
	filled := int(ratio * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}
