package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dd3fc")).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0")).
			Width(18)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("#e4e4ec")).
				Bold(true)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060")).
			Bold(true)

	messageBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1e1e2a")).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))
)
