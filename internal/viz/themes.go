package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view.
type Theme struct {
	Name    string
	Fluid   lipgloss.Color
	Frame   lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Good    lipgloss.Color
	Warning lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeOcean = Theme{
		Name:    "ocean",
		Fluid:   lipgloss.Color("#00a8cc"),
		Frame:   lipgloss.Color("#4488aa"),
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Good:    lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeLava = Theme{
		Name:    "lava",
		Fluid:   lipgloss.Color("#ff6b3d"),
		Frame:   lipgloss.Color("#8b6b8c"),
		Accent:  lipgloss.Color("#feca57"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Good:    lipgloss.Color("#5fd068"),
		Warning: lipgloss.Color("#ffc048"),
		Bad:     lipgloss.Color("#ff4757"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Fluid:   lipgloss.Color("#00ff00"),
		Frame:   lipgloss.Color("#005500"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Good:    lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Fluid:   lipgloss.Color("#ffffff"),
		Frame:   lipgloss.Color("#888888"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Good:    lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeOcean, ThemeLava, ThemeRetro, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to ocean.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeOcean
}

// NextTheme returns the theme after t in Themes.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
