package status

import (
	"github.com/BitForged/Compass/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	user     lipgloss.Style
	detail   lipgloss.Style
	label    lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	admin    lipgloss.Style
	severity map[domain.Severity]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		user:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		admin:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		severity: map[domain.Severity]lipgloss.Style{
			domain.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#38bdf8")),
			domain.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")),
			domain.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#facc15")),
			domain.SeverityError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f87171")),
		},
	}
}

func (s styles) forSeverity(severity domain.Severity) lipgloss.Style {
	if style, ok := s.severity[severity]; ok {
		return style
	}
	return s.severity[domain.SeverityInfo]
}
