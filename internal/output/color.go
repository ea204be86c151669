// Package output provides styled terminal rendering helpers.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorPositive marks positive sentiment.
	ColorPositive = lipgloss.Color("#66bb6a")

	// ColorNegative marks negative sentiment and errors.
	ColorNegative = lipgloss.Color("#ef5350")

	// ColorNeutral marks neutral sentiment.
	ColorNeutral = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles.
var (
	StyleHeader   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StylePositive = lipgloss.NewStyle().Foreground(ColorPositive)
	StyleNegative = lipgloss.NewStyle().Foreground(ColorNegative)
	StyleNeutral  = lipgloss.NewStyle().Foreground(ColorNeutral)
	StyleMuted    = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold     = lipgloss.NewStyle().Bold(true)

	// StyleLabel pads metric labels.
	StyleLabel = lipgloss.NewStyle().Width(24)

	// StyleTab highlights the active dashboard tab.
	StyleTab = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(ColorPrimary)
)

// SetNoColor disables or enables color output globally.
// When disabled, all package-level styles are reassigned to unstyled renderers.
func SetNoColor(disabled bool) {
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StylePositive = plain
		StyleNegative = plain
		StyleNeutral = plain
		StyleMuted = plain
		StyleBold = plain
		StyleLabel = plain.Width(24)
		StyleTab = plain
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// AutoColor disables color when stdout is not a terminal or NO_COLOR is set.
func AutoColor() {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(os.Stdout) {
		SetNoColor(true)
	}
}
