package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChartEntry is one labeled value in a bar chart.
type ChartEntry struct {
	Label string
	Value float64
}

// BarChart renders labeled values as horizontal bars, largest first.
type BarChart struct {
	Title   string
	Unit    string
	Entries []ChartEntry
	Width   int
}

// NewBarChart sorts entries descending by value. Ties keep their incoming
// order so repeated renders of the same payload are byte-identical.
func NewBarChart(title, unit string, entries []ChartEntry) BarChart {
	sorted := make([]ChartEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	return BarChart{Title: title, Unit: unit, Entries: sorted, Width: 72}
}

// Stats returns min, max, and mean of the entry values.
func (c BarChart) Stats() (min, max, avg float64) {
	if len(c.Entries) == 0 {
		return 0, 0, 0
	}
	min, max = c.Entries[0].Value, c.Entries[0].Value
	var sum float64
	for _, e := range c.Entries {
		if e.Value < min {
			min = e.Value
		}
		if e.Value > max {
			max = e.Value
		}
		sum += e.Value
	}
	return min, max, sum / float64(len(c.Entries))
}

var (
	chartTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	topBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	barStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	chartHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (c BarChart) View() string {
	if len(c.Entries) == 0 {
		return ""
	}

	var s strings.Builder
	if c.Title != "" {
		s.WriteString(chartTitleStyle.Render(c.Title) + "\n")
	}

	labelWidth := 0
	for _, e := range c.Entries {
		if w := lipgloss.Width(e.Label); w > labelWidth {
			labelWidth = w
		}
	}
	if labelWidth > 28 {
		labelWidth = 28
	}

	_, max, _ := c.Stats()
	barSpace := c.Width - labelWidth - 12
	if barSpace < 10 {
		barSpace = 10
	}

	for i, e := range c.Entries {
		label := e.Label
		if lipgloss.Width(label) > labelWidth {
			label = label[:labelWidth-1] + "…"
		}

		// Linear scaling against the largest value. Anything positive gets
		// at least one cell so small entries stay visible.
		barLen := 0
		if max > 0 && e.Value > 0 {
			barLen = int(float64(barSpace) * e.Value / max)
			if barLen < 1 {
				barLen = 1
			}
		}
		bar := strings.Repeat("█", barLen)
		if i == 0 {
			bar = topBarStyle.Render(bar)
		} else {
			bar = barStyle.Render(bar)
		}

		value := FormatMetric(e.Value)
		if c.Unit != "" {
			value += c.Unit
		}
		s.WriteString(fmt.Sprintf("%-*s %s %s\n", labelWidth, label, bar, value))
	}

	min, max, avg := c.Stats()
	s.WriteString(chartHintStyle.Render(fmt.Sprintf(
		"min %s  max %s  avg %s", FormatMetric(min), FormatMetric(max), FormatMetric(avg))))
	return s.String()
}

// FormatMetric renders a value with one truncated decimal. Values above a
// thousand collapse to K shorthand ("12500" becomes "12.5K").
func FormatMetric(v float64) string {
	if math.Abs(v) > 1000 {
		return truncate1(v/1000) + "K"
	}
	return truncate1(v)
}

// truncate1 keeps one decimal without rounding, so 7.49 stays "7.4".
func truncate1(v float64) string {
	t := math.Trunc(v*10) / 10
	return fmt.Sprintf("%.1f", t)
}
