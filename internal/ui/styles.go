package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FF8C42")
	amber  = lipgloss.Color("#FFB84D")
	muted  = lipgloss.Color("#6B7280")
	red    = lipgloss.Color("#FF4757")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(amber)

	// ChangeStyle mirrors the highlight fill written into the workbook.
	ChangeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF99"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
)
