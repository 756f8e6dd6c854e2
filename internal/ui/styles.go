package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/pdd/internal/config"
)

// Default bar colours, overridable from the [theme] config table.
const (
	defaultGreen  = "#a6e3a1"
	defaultBlue   = "#89b4fa"
	defaultYellow = "#f9e2af"
	defaultMuted  = "#5a6278"
)

// NewBarStyles builds bar styles from the theme, falling back to the default
// palette for unset colours.
func NewBarStyles(tc config.ThemeConfig) *BarStyles {
	pick := func(v *string, def string) lipgloss.Color {
		if v != nil {
			return lipgloss.Color(*v)
		}
		return lipgloss.Color(def)
	}
	return &BarStyles{
		Filled:  lipgloss.NewStyle().Foreground(pick(tc.Green, defaultGreen)),
		Percent: lipgloss.NewStyle().Bold(true).Foreground(pick(tc.Yellow, defaultYellow)),
		Rate:    lipgloss.NewStyle().Foreground(pick(tc.Blue, defaultBlue)),
		ETA:     lipgloss.NewStyle().Foreground(pick(tc.Muted, defaultMuted)),
	}
}
