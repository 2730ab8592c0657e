package render

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// DefaultTheme is the theme used when none is configured
const DefaultTheme = "tokyonight"

// Theme is the colour scheme of the interface
type Theme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var themes = map[string]Theme{
	"tokyonight": {
		Name:        "tokyonight",
		Description: "Tokyo Night, dark with blue accents",
		Background:  "#1a1b26", Surface: "#24283b", Border: "#414868",
		Primary: "#7aa2f7", Secondary: "#9ece6a", Accent: "#bb9af7", Warning: "#e0af68", Error: "#f7768e",
		Text: "#c0caf5", TextDim: "#565f89", TextMute: "#3b4261",
	},
	"catppuccin": {
		Name:        "catppuccin",
		Description: "Catppuccin Mocha, warm pastels",
		Background:  "#1e1e2e", Surface: "#313244", Border: "#45475a",
		Primary: "#89b4fa", Secondary: "#a6e3a1", Accent: "#cba6f7", Warning: "#f9e2af", Error: "#f38ba8",
		Text: "#cdd6f4", TextDim: "#6c7086", TextMute: "#45475a",
	},
	"hive": {
		Name:        "hive",
		Description: "Hive, amber on charcoal",
		Background:  "#17161a", Surface: "#232127", Border: "#3d3a42",
		Primary: "#f5a524", Secondary: "#7bd88f", Accent: "#fc9867", Warning: "#ffd866", Error: "#ff6188",
		Text: "#fcfcfa", TextDim: "#939293", TextMute: "#5b595c",
	},
	"nord": {
		Name:        "nord",
		Description: "Nord, cool arctic tones",
		Background:  "#2e3440", Surface: "#3b4252", Border: "#4c566a",
		Primary: "#88c0d0", Secondary: "#a3be8c", Accent: "#b48ead", Warning: "#ebcb8b", Error: "#bf616a",
		Text: "#eceff4", TextDim: "#7b88a1", TextMute: "#4c566a",
	},
}

// ThemeByName returns the named theme
func ThemeByName(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// ThemeOrDefault returns the named theme, or the default one when the name
// is unknown.
func ThemeOrDefault(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[DefaultTheme]
}

// ThemeNames returns the theme names, sorted
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
