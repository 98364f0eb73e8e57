package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sandevgo/teammate/internal/config"
)

// styles groups the lipgloss styles built from the ui config section.
// ANSI palette indexes keep it readable on any terminal theme.
type styles struct {
	title     lipgloss.Style
	speaker   lipgloss.Style
	persona   lipgloss.Style
	reference lipgloss.Style
	status    lipgloss.Style
	statusOn  lipgloss.Style
	statusOff lipgloss.Style
	help      lipgloss.Style
}

func newStyles(cfg config.UIConfig) styles {
	return styles{
		title:     lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.AccentColor)).Bold(true),
		speaker:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.SpeakerColor)).Bold(true),
		persona:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.PersonaColor)).Bold(true),
		reference: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ReferenceColor)),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.AccentColor)),
		statusOn:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		statusOff: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
