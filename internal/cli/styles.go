package cli

import "github.com/charmbracelet/lipgloss"

var (
	AccentColor  = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	SubtleColor  = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	ChangedStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
)
