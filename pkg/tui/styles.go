package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C6FF7")
	colorUser    = lipgloss.Color("#4FB0C6")
	colorError   = lipgloss.Color("#E06C75")
	colorText    = lipgloss.Color("#E6E6E6")
	colorTextDim = lipgloss.Color("#8A8A8A")
	colorBorder  = lipgloss.Color("#3C3C4A")
)

var (
	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	hintStyle     = lipgloss.NewStyle().Foreground(colorTextDim).Italic(true)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorUser)
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	timeStyle           = lipgloss.NewStyle().Foreground(colorTextDim)
	messageStyle        = lipgloss.NewStyle().Foreground(colorText).PaddingLeft(2)
	errorMessageStyle   = lipgloss.NewStyle().Foreground(colorError).PaddingLeft(2)
	cursorStyle         = lipgloss.NewStyle().Foreground(colorPrimary)

	inputPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	loadingStyle = lipgloss.NewStyle().Foreground(colorPrimary)
)
