package nav

import "github.com/charmbracelet/lipgloss"

var (
	colorActive      = lipgloss.Color("#003160")
	colorInactive    = lipgloss.Color("#6B7280")
	colorDestructive = lipgloss.Color("#EF4444")
	colorBorder      = lipgloss.Color("#E5E7EB")

	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorBorder)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(colorInactive)

	activeItemStyle = itemStyle.
			Foreground(colorActive).
			Bold(true)

	cursorItemStyle = lipgloss.NewStyle().Underline(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorDestructive)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	menuTitleStyle = lipgloss.NewStyle().Bold(true)

	logoutStyle = lipgloss.NewStyle().Foreground(colorDestructive)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActive).
			Padding(0, 1)

	destructiveToastStyle = toastStyle.
				BorderForeground(colorDestructive).
				Foreground(colorDestructive)
)
