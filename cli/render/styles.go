package render

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	warningColor = lipgloss.Color("#F59E0B") // Amber
)

// Styles for table output. --no-color bypasses them entirely.
var (
	// HeaderStyle for table column headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// MutedStyle for secondary detail such as counts.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// WarningStyle for data-quality notices (e.g. an empty discovery set).
	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)
)
