package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/filedash/filedash/internal/events"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF80"))

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#A0A0A0"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEB3B"))

	emptyTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	noticeStyles = map[events.NoticeLevel]lipgloss.Style{
		events.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		events.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")),
		events.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	}

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(1, 3).
			Width(56)

	inputDialogStyle = dialogStyle.
				BorderForeground(lipgloss.Color("#00FFFF"))

	dialogTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FF6B6B")).
				MarginBottom(1)

	helpDialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFEB3B")).
			Padding(1, 2)
)

func tableStyles() table.Styles {
	return table.Styles{
		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			BorderBottom(true).
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Bold(true),
		Cell: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")),
	}
}
