package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	SyncError = lipgloss.Color("#FF6B6B")
	Completed = lipgloss.Color("#95E1A3")

	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	ColumnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	ColumnFocusedStyle = ColumnStyle.
				BorderForeground(Primary)

	ColumnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Text)

	ProjectHeaderStyle = lipgloss.NewStyle().
				Bold(true)

	ItemSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	BannerStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(SyncError).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// swatch renders a colored bullet for a project color
func swatch(color string) string {
	if color == "" {
		return HelpStyle.Render("●")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
