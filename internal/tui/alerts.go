package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AlertGroup is one severity bucket of personalized alerts.
type AlertGroup struct {
	Severity string
	Messages []string
}

var alertHeadings = map[string]string{
	"urgent":        "Urgent",
	"important":     "Important",
	"informational": "For your information",
	"opportunities": "Opportunities",
}

var (
	alertUrgentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	alertHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	alertFooterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// RenderAlerts lays out severity-grouped alert messages with an optional
// summary line and suggested actions footer.
func RenderAlerts(title string, groups []AlertGroup, summary string, actions []string) string {
	var s strings.Builder
	if title != "" {
		s.WriteString(cardTitleStyle.Render(title) + "\n")
	}
	for _, g := range groups {
		if len(g.Messages) == 0 {
			continue
		}
		heading := alertHeadings[g.Severity]
		if heading == "" {
			heading = g.Severity
		}
		style := alertHeadingStyle
		if g.Severity == "urgent" {
			style = alertUrgentStyle
		}
		s.WriteString(style.Render(heading) + "\n")
		for _, msg := range g.Messages {
			s.WriteString("  • " + msg + "\n")
		}
	}
	if summary != "" {
		s.WriteString(summary + "\n")
	}
	for _, action := range actions {
		s.WriteString(alertFooterStyle.Render("→ "+action) + "\n")
	}
	return strings.TrimRight(s.String(), "\n")
}
