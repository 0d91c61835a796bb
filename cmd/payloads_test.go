package cmd

import (
	"encoding/json"
	"testing"
)

func TestFundInfoToleratesLooseNAVEncodings(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{`{"name": "A", "nav": 152.3}`, f64(152.3)},
		{`{"name": "B", "nav": "1,234.5"}`, f64(1234.5)},
		{`{"name": "C", "nav": "N/A"}`, nil},
		{`{"name": "D"}`, nil},
	}
	for _, tc := range cases {
		var fund FundInfo
		if err := json.Unmarshal([]byte(tc.in), &fund); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		switch {
		case tc.want == nil && fund.NAV != nil:
			t.Errorf("%s: expected nil NAV, got %v", tc.in, *fund.NAV)
		case tc.want != nil && (fund.NAV == nil || *fund.NAV != *tc.want):
			t.Errorf("%s: expected NAV %v, got %v", tc.in, *tc.want, fund.NAV)
		}
	}
}

func f64(v float64) *float64 { return &v }

func TestPerformanceEntriesPreferLongestPeriod(t *testing.T) {
	data := `{"type": "performance_analysis", "chart_data": {"type": "line",
		"xAxis": ["30D", "90D", "365D"],
		"series": [
			{"fund_name": "Alpha", "30D": 1.2, "90D": 3.4, "365D": 11.8},
			{"fund_name": "Beta", "30D": 0.5, "90D": 2.0}
		],
		"yAxis": "Return (%)"}}`
	payload, err := parsePayload(KindPerformance, []byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entries := payload.Performance.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Label != "Alpha" || entries[0].Value != 11.8 {
		t.Fatalf("expected Alpha's 365D value, got %+v", entries[0])
	}
	// Beta has no 365D column, so the next longest period wins.
	if entries[1].Label != "Beta" || entries[1].Value != 2.0 {
		t.Fatalf("expected Beta's 90D value, got %+v", entries[1])
	}
}

func TestPerformanceValidationNeedsTwoPeriods(t *testing.T) {
	data := `{"type": "performance_analysis", "chart_data": {"xAxis": ["30D"],
		"series": [{"fund_name": "Alpha", "30D": 1.2}]}}`
	if _, err := parsePayload(KindPerformance, []byte(data)); err == nil {
		t.Fatalf("expected a single-period payload to be rejected")
	}
}

func TestSeriesChartEntriesZipToShortestSide(t *testing.T) {
	chart := SeriesChart{
		XAxis:  []string{"A", "B", "C"},
		Series: []NamedSeries{{Name: "s", Data: []float64{1, 2}}},
	}
	entries := chart.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected entries truncated to data length, got %d", len(entries))
	}
	if entries[1].Label != "B" || entries[1].Value != 2 {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}
}

func TestOpportunityScanEntriesNeedScores(t *testing.T) {
	data := `{"type": "opportunity_scan", "opportunities": [
		{"name": "Alpha", "opportunity_score": 8.1},
		{"name": "NoScore"},
		{"name": "Beta", "opportunity_score": "6.4"}]}`
	payload, err := parsePayload(KindOpportunityScan, []byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entries := payload.OpportunityScan.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected unscored rows skipped, got %d entries", len(entries))
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{12.5, 12.5, true},
		{"12.5", 12.5, true},
		{"1,250.75", 1250.75, true},
		{"8.2%", 8.2, true},
		{"N/A", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := coerceFloat(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("coerceFloat(%v) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRowValuePrefersYAxisColumn(t *testing.T) {
	row := map[string]any{"Fund Name": "Alpha", "Expense": 0.5, "Return": 12.0}
	got, ok := rowValue(row, "Return (%)")
	if !ok || got != 12.0 {
		t.Fatalf("expected the Return column to win, got (%v, %v)", got, ok)
	}
}
