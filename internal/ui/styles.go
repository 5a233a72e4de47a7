package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Header   lipgloss.Style
	Item     lipgloss.Style
	Cursor   lipgloss.Style
	Info     lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Faint    lipgloss.Style
	Disabled lipgloss.Style
	Badge    lipgloss.Style
	Box      lipgloss.Style
	Spinner  lipgloss.Style
	Notice   lipgloss.Style
}

func defaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Title:    base.Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Subtitle: base.Faint(true),
		Header:   base.Bold(true).MarginTop(1),
		Item:     base.Foreground(lipgloss.Color("#D1D5DB")),
		Cursor:   base.Bold(true).Foreground(lipgloss.Color("#22D3EE")),
		Info:     base.Foreground(lipgloss.Color("#A3A3A3")),
		Success:  base.Foreground(lipgloss.Color("#22C55E")),
		Error:    base.Foreground(lipgloss.Color("#EF4444")),
		Warning:  base.Foreground(lipgloss.Color("#F59E0B")),
		Faint:    base.Faint(true),
		Disabled: base.Faint(true).Strikethrough(true),
		Badge:    base.Bold(true).Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#60A5FA")).Padding(0, 1),
		Box:      base.Padding(0, 1),
		Spinner:  base.Foreground(lipgloss.Color("#22D3EE")),
		Notice:   base.Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}
