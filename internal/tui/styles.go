package tui

import "github.com/charmbracelet/lipgloss"

type theme int

const (
	themeDark theme = iota
	themeLight
)

func (t theme) toggle() theme {
	if t == themeDark {
		return themeLight
	}
	return themeDark
}

type palette struct {
	fg, dim, accent, active, inactive, selBg, border, errFg lipgloss.Color
}

var palettes = map[theme]palette{
	themeDark: {
		fg:       lipgloss.Color("#c0caf5"),
		dim:      lipgloss.Color("#565f89"),
		accent:   lipgloss.Color("#7aa2f7"),
		active:   lipgloss.Color("#9ece6a"),
		inactive: lipgloss.Color("#f7768e"),
		selBg:    lipgloss.Color("#283457"),
		border:   lipgloss.Color("#3b4261"),
		errFg:    lipgloss.Color("#f7768e"),
	},
	themeLight: {
		fg:       lipgloss.Color("#343b58"),
		dim:      lipgloss.Color("#8c8fa1"),
		accent:   lipgloss.Color("#34548a"),
		active:   lipgloss.Color("#33635c"),
		inactive: lipgloss.Color("#8c4351"),
		selBg:    lipgloss.Color("#d5d6db"),
		border:   lipgloss.Color("#9699a3"),
		errFg:    lipgloss.Color("#8c4351"),
	},
}

type styles struct {
	title    lipgloss.Style
	user     lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	dim      lipgloss.Style
	active   lipgloss.Style
	inactive lipgloss.Style
	selected lipgloss.Style
	header   lipgloss.Style
	err      lipgloss.Style
	popup    lipgloss.Style
	loginBox lipgloss.Style
}

func newStyles(t theme) styles {
	p := palettes[t]
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		user:     lipgloss.NewStyle().Foreground(p.fg),
		label:    lipgloss.NewStyle().Foreground(p.dim),
		value:    lipgloss.NewStyle().Foreground(p.fg),
		dim:      lipgloss.NewStyle().Foreground(p.dim),
		active:   lipgloss.NewStyle().Bold(true).Foreground(p.active),
		inactive: lipgloss.NewStyle().Bold(true).Foreground(p.inactive),
		selected: lipgloss.NewStyle().Background(p.selBg),
		header:   lipgloss.NewStyle().Foreground(p.dim).Underline(true),
		err:      lipgloss.NewStyle().Foreground(p.errFg),
		popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Foreground(p.fg).
			Align(lipgloss.Center).
			Width(popupWidth - 2).
			Height(popupHeight - 2),
		loginBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 3),
	}
}
