package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the preview's chrome. LED colors are never themed.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Running lipgloss.Color
	Paused  lipgloss.Color
}

var (
	ThemePine = Theme{
		Name:    "pine",
		Primary: lipgloss.Color("#3ddc84"),
		Accent:  lipgloss.Color("#ffd700"),
		Muted:   lipgloss.Color("#4a6b55"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffaa00"),
	}

	ThemeFrost = Theme{
		Name:    "frost",
		Primary: lipgloss.Color("#00ccff"),
		Accent:  lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Running: lipgloss.Color("#00ffcc"),
		Paused:  lipgloss.Color("#ffcc00"),
	}

	ThemeEmber = Theme{
		Name:    "ember",
		Primary: lipgloss.Color("#ff6b3d"),
		Accent:  lipgloss.Color("#feca57"),
		Muted:   lipgloss.Color("#8b6b5c"),
		Running: lipgloss.Color("#5fd068"),
		Paused:  lipgloss.Color("#ffc048"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Muted:   lipgloss.Color("#888888"),
		Running: lipgloss.Color("#00ff00"),
		Paused:  lipgloss.Color("#ffaa00"),
	}

	Themes = []Theme{ThemePine, ThemeFrost, ThemeEmber, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to pine.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePine
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}
