package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FundCard is one display-ready recommended fund. Fields are preformatted
// strings so missing metrics can show as "N/A" instead of zero.
type FundCard struct {
	Name         string
	NAV          string
	Return365D   string
	ReturnYTD    string
	ExpenseRatio string
	RiskProfile  string
	Pricing      string
}

// RankedItem is one row of a scored recommendation list.
type RankedItem struct {
	Rank           int
	Name           string
	Score          float64
	Rationale      string
	ExpectedReturn string
}

var (
	cardTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	cardBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	cardLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardAdviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	rankStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

// RenderFundCards lays out recommended funds as bordered cards with an
// optional advice footer.
func RenderFundCards(title, description string, cards []FundCard, advice string) string {
	var s strings.Builder
	if title != "" {
		s.WriteString(cardTitleStyle.Render(title) + "\n")
	}
	if description != "" {
		s.WriteString(description + "\n")
	}
	for _, card := range cards {
		var body strings.Builder
		body.WriteString(lipgloss.NewStyle().Bold(true).Render(card.Name) + "\n")
		body.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			cardLabelStyle.Render("NAV:"), card.NAV,
			cardLabelStyle.Render("1Y:"), card.Return365D))
		body.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			cardLabelStyle.Render("YTD:"), card.ReturnYTD,
			cardLabelStyle.Render("Expense:"), card.ExpenseRatio))
		body.WriteString(fmt.Sprintf("%s %s   %s %s",
			cardLabelStyle.Render("Risk:"), card.RiskProfile,
			cardLabelStyle.Render("Pricing:"), card.Pricing))
		s.WriteString(cardBorderStyle.Render(body.String()) + "\n")
	}
	if advice != "" {
		s.WriteString(cardAdviceStyle.Render(advice))
	}
	return strings.TrimRight(s.String(), "\n")
}

// RenderRankedFunds lays out a scored shortlist as compact numbered rows.
func RenderRankedFunds(title string, items []RankedItem, strategy string) string {
	var s strings.Builder
	if title != "" {
		s.WriteString(cardTitleStyle.Render(title) + "\n")
	}
	for _, item := range items {
		s.WriteString(fmt.Sprintf("%s %s  %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", item.Rank)),
			lipgloss.NewStyle().Bold(true).Render(item.Name),
			cardLabelStyle.Render(fmt.Sprintf("score %s", FormatMetric(item.Score)))))
		if item.ExpectedReturn != "" {
			s.WriteString(fmt.Sprintf("   expected return: %s\n", item.ExpectedReturn))
		}
		if item.Rationale != "" {
			s.WriteString("   " + cardAdviceStyle.Render(item.Rationale) + "\n")
		}
	}
	if strategy != "" {
		s.WriteString(cardAdviceStyle.Render(strategy))
	}
	return strings.TrimRight(s.String(), "\n")
}
