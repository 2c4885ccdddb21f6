package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the interactive shell.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
}

var (
	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeRetro = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Secondary: lipgloss.Color("#00a8cc"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Error:     lipgloss.Color("#ff4444"),
	}

	Themes = []Theme{ThemeMinimal, ThemeRetro, ThemeOcean}
)

// GetTheme returns the named theme, or the minimal one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMinimal
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Styles are the lipgloss styles the shell draws with.
type Styles struct {
	Preview lipgloss.Style
	Prompt  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Preview: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Foreground(t.Primary),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		Output: lipgloss.NewStyle().Foreground(t.Text),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Status: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}
