package tui

import (
	"strings"
	"testing"
)

func TestNewBarChartSortsDescendingWithStableTies(t *testing.T) {
	chart := NewBarChart("Returns", "%", []ChartEntry{
		{Label: "Alpha", Value: 5.0},
		{Label: "Bravo", Value: 12.0},
		{Label: "Charlie", Value: 5.0},
		{Label: "Delta", Value: 8.0},
	})

	got := make([]string, 0, len(chart.Entries))
	for _, e := range chart.Entries {
		got = append(got, e.Label)
	}
	want := []string{"Bravo", "Delta", "Alpha", "Charlie"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestBarChartStats(t *testing.T) {
	chart := NewBarChart("", "", []ChartEntry{
		{Label: "A", Value: 10},
		{Label: "B", Value: 4},
		{Label: "C", Value: 1},
	})
	min, max, avg := chart.Stats()
	if min != 1 || max != 10 || avg != 5 {
		t.Fatalf("expected min=1 max=10 avg=5, got min=%v max=%v avg=%v", min, max, avg)
	}
}

func TestBarChartViewScalesBarsLinearly(t *testing.T) {
	chart := NewBarChart("", "%", []ChartEntry{
		{Label: "Big", Value: 10},
		{Label: "Half", Value: 5},
		{Label: "Tiny", Value: 0.01},
	})
	view := chart.View()

	var bigBar, halfBar, tinyBar int
	for _, line := range strings.Split(view, "\n") {
		n := strings.Count(line, "█")
		switch {
		case strings.Contains(line, "Big"):
			bigBar = n
		case strings.Contains(line, "Half"):
			halfBar = n
		case strings.Contains(line, "Tiny"):
			tinyBar = n
		}
	}

	if bigBar == 0 {
		t.Fatalf("expected a bar for the largest entry")
	}
	if halfBar < bigBar/2-1 || halfBar > bigBar/2+1 {
		t.Fatalf("expected half-value bar near %d cells, got %d", bigBar/2, halfBar)
	}
	if tinyBar < 1 {
		t.Fatalf("expected a minimum visible bar for a small positive value, got %d", tinyBar)
	}
}

func TestBarChartViewIncludesStatsLine(t *testing.T) {
	chart := NewBarChart("T", "", []ChartEntry{
		{Label: "A", Value: 3},
		{Label: "B", Value: 1},
	})
	view := chart.View()
	if !strings.Contains(view, "min 1.0") || !strings.Contains(view, "max 3.0") || !strings.Contains(view, "avg 2.0") {
		t.Fatalf("expected stats footer in view, got:\n%s", view)
	}
}

func TestFormatMetricTruncatesOneDecimal(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{7.49, "7.4"},
		{7.0, "7.0"},
		{-3.99, "-3.9"},
		{0, "0.0"},
		{999.99, "999.9"},
		{12500, "12.5K"},
		{1000, "1000.0"},
		{1000.5, "1.0K"},
		{2560000, "2560.0K"},
	}
	for _, tc := range cases {
		if got := FormatMetric(tc.in); got != tc.want {
			t.Errorf("FormatMetric(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
