package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the particle canvas and HUD.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Debug   lipgloss.Color
	Muted   lipgloss.Color
}

var (
	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Debug:   lipgloss.Color("#ff4444"),
		Muted:   lipgloss.Color("#888888"),
	}

	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Debug:   lipgloss.Color("#ffff00"),
		Muted:   lipgloss.Color("#666666"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#e0f0ff"),
		Accent:  lipgloss.Color("#00a8cc"),
		Debug:   lipgloss.Color("#ffd700"),
		Muted:   lipgloss.Color("#4488aa"),
	}

	Themes = []Theme{ThemeMinimal, ThemeCyberpunk, ThemeOcean}
)

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// nextTheme returns the theme after cur in Themes, wrapping around.
func nextTheme(cur Theme) Theme {
	for i, t := range Themes {
		if t.Name == cur.Name {
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
