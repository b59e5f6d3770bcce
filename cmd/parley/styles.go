package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	idle      lipgloss.Style
	connect   lipgloss.Style
	active    lipgloss.Style
	errored   lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	text      lipgloss.Style
	empty     lipgloss.Style
	help      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		idle:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		connect:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		active:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		errored:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")),
		text:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		empty:     lipgloss.NewStyle().Faint(true),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
