package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fundchat-cli/internal/tui"
)

// PayloadKind discriminates the structured payloads the backend embeds in
// assistant replies.
type PayloadKind string

const (
	KindComparison           PayloadKind = "comparison"
	KindPerformance          PayloadKind = "performance_analysis"
	KindRecommendation       PayloadKind = "recommendation"
	KindSmartRecommendation  PayloadKind = "smart_recommendation"
	KindMarketInsights       PayloadKind = "market_insights"
	KindConsistency          PayloadKind = "consistency_analysis"
	KindCorrelation          PayloadKind = "correlation_analysis"
	KindPortfolio            PayloadKind = "portfolio"
	KindFeeAnalysis          PayloadKind = "fee_analysis"
	KindFundScreening        PayloadKind = "fund_screening"
	KindOpportunityScan      PayloadKind = "opportunity_scan"
	KindSmartAlerts          PayloadKind = "smart_alerts"
	KindLeadCollection       PayloadKind = "lead_collection"
	KindQuiz                 PayloadKind = "quiz"
	KindLeadSubmitted        PayloadKind = "lead_submitted"
	KindLeadDeclined         PayloadKind = "lead_declined"
	KindLeadCollectionDecl   PayloadKind = "lead_collection_declined"
	KindLeadAlreadySubmitted PayloadKind = "lead_already_submitted"
)

var structuredKinds = map[PayloadKind]struct{}{
	KindComparison:           {},
	KindPerformance:          {},
	KindRecommendation:       {},
	KindSmartRecommendation:  {},
	KindMarketInsights:       {},
	KindConsistency:          {},
	KindCorrelation:          {},
	KindPortfolio:            {},
	KindFeeAnalysis:          {},
	KindFundScreening:        {},
	KindOpportunityScan:      {},
	KindSmartAlerts:          {},
	KindLeadCollection:       {},
	KindQuiz:                 {},
	KindLeadSubmitted:        {},
	KindLeadDeclined:         {},
	KindLeadCollectionDecl:   {},
	KindLeadAlreadySubmitted: {},
}

func isStructuredKind(kind PayloadKind) bool {
	_, ok := structuredKinds[kind]
	return ok
}

// Payload is the tagged union: exactly one variant is set, matching Kind.
type Payload struct {
	Kind PayloadKind

	Comparison          *ComparisonPayload
	Performance         *PerformancePayload
	Recommendation      *RecommendationPayload
	SmartRecommendation *SmartRecommendationPayload
	MarketInsights      *MarketInsightsPayload
	Consistency         *ConsistencyPayload
	Correlation         *CorrelationPayload
	Portfolio           *PortfolioPayload
	FeeAnalysis         *FeeAnalysisPayload
	FundScreening       *FundScreeningPayload
	OpportunityScan     *OpportunityScanPayload
	SmartAlerts         *SmartAlertsPayload
	LeadCollection      *LeadCollectionPayload
	Quiz                *QuizPayload
	LeadNotice          *LeadNoticePayload
}

// NamedSeries is one line/bar series in a chart_data block.
type NamedSeries struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// SeriesChart is the common chart_data shape with labeled x values.
type SeriesChart struct {
	Type   string        `json:"type"`
	XAxis  []string      `json:"xAxis"`
	Series []NamedSeries `json:"series"`
	YAxis  string        `json:"yAxis"`
}

// Entries pairs the x labels with the first series' values.
func (c *SeriesChart) Entries() []tui.ChartEntry {
	if c == nil || len(c.Series) == 0 {
		return nil
	}
	data := c.Series[0].Data
	n := len(c.XAxis)
	if len(data) < n {
		n = len(data)
	}
	entries := make([]tui.ChartEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, tui.ChartEntry{Label: c.XAxis[i], Value: data[i]})
	}
	return entries
}

// ComparisonPayload carries rows of fund metrics for a side-by-side chart.
// Rows are loosely shaped maps; Entries picks the name and metric columns.
type ComparisonPayload struct {
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle"`
	XAxis    string           `json:"xAxis"`
	YAxis    string           `json:"yAxis"`
	Data     []map[string]any `json:"data"`
}

var nameKeys = []string{"Fund Name", "fund_name", "name", "Name", "label", "fund"}

func rowLabel(row map[string]any) string {
	for _, key := range nameKeys {
		if v, ok := row[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	// Any string value serves as a last resort.
	for _, v := range row {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func rowValue(row map[string]any, metric string) (float64, bool) {
	// Prefer the column named by the y axis ("Return (%)" matches "Return").
	base := strings.TrimSpace(metric)
	if i := strings.Index(base, " ("); i > 0 {
		base = base[:i]
	}
	if base != "" {
		for k, v := range row {
			if strings.EqualFold(k, base) || strings.EqualFold(k, metric) {
				if f, ok := coerceFloat(v); ok {
					return f, true
				}
			}
		}
	}
	for _, v := range row {
		if f, ok := coerceFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func (p *ComparisonPayload) Entries() []tui.ChartEntry {
	entries := make([]tui.ChartEntry, 0, len(p.Data))
	for _, row := range p.Data {
		label := rowLabel(row)
		value, ok := rowValue(row, p.YAxis)
		if label == "" || !ok {
			continue
		}
		entries = append(entries, tui.ChartEntry{Label: label, Value: value})
	}
	return entries
}

func (p *ComparisonPayload) validate() error {
	if len(p.Entries()) < 2 {
		return fmt.Errorf("comparison needs at least 2 data points")
	}
	return nil
}

// PerformancePayload carries multi-period returns per fund.
type PerformancePayload struct {
	Title     string `json:"title"`
	ChartData struct {
		Type   string           `json:"type"`
		XAxis  []string         `json:"xAxis"`
		Series []map[string]any `json:"series"`
		YAxis  string           `json:"yAxis"`
	} `json:"chart_data"`
	Insights       []string `json:"insights"`
	Recommendation string   `json:"recommendation"`
}

// Entries reduces each fund's period series to one headline value: the
// longest period present, falling back to the mean of the numeric columns.
func (p *PerformancePayload) Entries() []tui.ChartEntry {
	entries := make([]tui.ChartEntry, 0, len(p.ChartData.Series))
	for _, fund := range p.ChartData.Series {
		label := rowLabel(fund)
		if label == "" {
			continue
		}
		var value float64
		found := false
		for i := len(p.ChartData.XAxis) - 1; i >= 0; i-- {
			if f, ok := coerceFloat(fund[p.ChartData.XAxis[i]]); ok {
				value = f
				found = true
				break
			}
		}
		if !found {
			var sum float64
			var n int
			for k, v := range fund {
				if k == "fund_name" || k == "name" {
					continue
				}
				if f, ok := coerceFloat(v); ok {
					sum += f
					n++
				}
			}
			if n == 0 {
				continue
			}
			value = sum / float64(n)
		}
		entries = append(entries, tui.ChartEntry{Label: label, Value: value})
	}
	return entries
}

func (p *PerformancePayload) validate() error {
	if len(p.ChartData.Series) == 0 {
		return fmt.Errorf("performance analysis needs at least one fund series")
	}
	if len(p.ChartData.XAxis) < 2 {
		return fmt.Errorf("performance analysis needs at least 2 time periods")
	}
	return nil
}

// FundInfo is one recommended fund card.
type FundInfo struct {
	Name        string `json:"name"`
	NAV         *float64
	Performance struct {
		Return365D *float64 `json:"return_365d"`
		ReturnYTD  *float64 `json:"return_ytd"`
	} `json:"performance"`
	Fees struct {
		ExpenseRatio  *float64 `json:"expense_ratio"`
		ManagementFee *float64 `json:"management_fee"`
	} `json:"fees"`
	Details struct {
		RiskProfile      string `json:"risk_profile"`
		PricingMechanism string `json:"pricing_mechanism"`
	} `json:"details"`
}

// UnmarshalJSON tolerates "N/A" and numeric strings in the nav column.
func (f *FundInfo) UnmarshalJSON(data []byte) error {
	type alias FundInfo
	aux := struct {
		*alias
		NAV any `json:"nav"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if v, ok := coerceFloat(aux.NAV); ok {
		f.NAV = &v
	}
	return nil
}

// RecommendationPayload carries the fund cards for a risk profile.
type RecommendationPayload struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	RiskProfile      string     `json:"risk_profile"`
	RecommendedFunds []FundInfo `json:"recommended_funds"`
	InvestmentAdvice string     `json:"investment_advice"`
}

func (p *RecommendationPayload) validate() error {
	if len(p.RecommendedFunds) == 0 {
		return fmt.Errorf("recommendation needs a non-empty recommended_funds list")
	}
	return nil
}

// RankedFund is one entry of a smart recommendation.
type RankedFund struct {
	Rank           int            `json:"rank"`
	Fund           map[string]any `json:"fund"`
	Score          float64        `json:"score"`
	Rationale      string         `json:"rationale"`
	ExpectedReturn string         `json:"expected_return"`
}

// SmartRecommendationPayload carries a compact ranked list.
type SmartRecommendationPayload struct {
	Title              string            `json:"title"`
	Criteria           map[string]string `json:"criteria"`
	Recommendations    []RankedFund      `json:"recommendations"`
	InvestmentStrategy string            `json:"investment_strategy"`
}

func (p *SmartRecommendationPayload) validate() error {
	if len(p.Recommendations) == 0 {
		return fmt.Errorf("smart recommendation needs a non-empty recommendations list")
	}
	return nil
}

// MarketInsightsPayload carries the top-performer chart and summary.
type MarketInsightsPayload struct {
	Title     string      `json:"title"`
	ChartData SeriesChart `json:"chart_data"`
	Summary   string      `json:"summary"`
}

func (p *MarketInsightsPayload) validate() error {
	if len(p.ChartData.Entries()) < 2 {
		return fmt.Errorf("market insights need at least 2 data points")
	}
	return nil
}

// ConsistencyPayload ranks funds by consistency score.
type ConsistencyPayload struct {
	Title          string      `json:"title"`
	ChartData      SeriesChart `json:"chart_data"`
	Insights       []string    `json:"insights"`
	Recommendation string      `json:"recommendation"`
}

func (p *ConsistencyPayload) validate() error {
	if len(p.ChartData.Entries()) == 0 {
		return fmt.Errorf("consistency analysis needs at least one ranked fund")
	}
	return nil
}

// CorrelationPayload charts pairwise fund correlations.
type CorrelationPayload struct {
	Title                string      `json:"title"`
	ChartData            SeriesChart `json:"chart_data"`
	DiversificationScore float64     `json:"diversification_score"`
	Insights             []string    `json:"insights"`
	Recommendation       string      `json:"recommendation"`
}

func (p *CorrelationPayload) validate() error {
	if len(p.ChartData.Entries()) == 0 {
		return fmt.Errorf("correlation analysis needs at least one fund pair")
	}
	return nil
}

// AllocationItem is one slice of a portfolio.
type AllocationItem struct {
	FundName   string  `json:"fund_name"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

// PortfolioPayload carries a diversified allocation.
type PortfolioPayload struct {
	Title             string           `json:"title"`
	TotalInvestment   string           `json:"total_investment"`
	Allocation        []AllocationItem `json:"allocation"`
	RebalancingAdvice string           `json:"rebalancing_advice"`
}

func (p *PortfolioPayload) Entries() []tui.ChartEntry {
	entries := make([]tui.ChartEntry, 0, len(p.Allocation))
	for _, item := range p.Allocation {
		if item.FundName == "" {
			continue
		}
		entries = append(entries, tui.ChartEntry{Label: item.FundName, Value: item.Percentage})
	}
	return entries
}

func (p *PortfolioPayload) validate() error {
	if len(p.Entries()) == 0 {
		return fmt.Errorf("portfolio needs a non-empty allocation")
	}
	return nil
}

// FeeAnalysisPayload charts cost comparisons across funds.
type FeeAnalysisPayload struct {
	Title     string      `json:"title"`
	ChartData SeriesChart `json:"chart_data"`
	Insights  []string    `json:"insights"`
}

func (p *FeeAnalysisPayload) validate() error {
	if len(p.ChartData.Entries()) < 2 {
		return fmt.Errorf("fee analysis needs at least 2 data points")
	}
	return nil
}

// FundScreeningPayload lists the funds passing a criteria screen, each with
// a screening score.
type FundScreeningPayload struct {
	Title              string           `json:"title"`
	CriteriaApplied    map[string]any   `json:"criteria_applied"`
	TotalFundsScreened int              `json:"total_funds_screened"`
	FundsMatching      int              `json:"funds_matching"`
	ScreenedFunds      []map[string]any `json:"screened_funds"`
	NextSteps          string           `json:"next_steps"`
}

func (p *FundScreeningPayload) Entries() []tui.ChartEntry {
	entries := make([]tui.ChartEntry, 0, len(p.ScreenedFunds))
	for _, row := range p.ScreenedFunds {
		label := rowLabel(row)
		if label == "" {
			continue
		}
		if f, ok := coerceFloat(row["screening_score"]); ok {
			entries = append(entries, tui.ChartEntry{Label: label, Value: f})
		}
	}
	return entries
}

func (p *FundScreeningPayload) validate() error {
	if len(p.Entries()) == 0 {
		return fmt.Errorf("fund screening found no scoreable funds")
	}
	return nil
}

// SmartAlertsPayload groups personalized alerts by severity. Keys follow the
// backend: urgent, important, informational, opportunities.
type SmartAlertsPayload struct {
	Title            string              `json:"title"`
	UserProfile      map[string]any      `json:"user_profile"`
	Alerts           map[string][]string `json:"alerts"`
	AlertSummary     string              `json:"alert_summary"`
	SuggestedActions []string            `json:"suggested_actions"`
}

func (p *SmartAlertsPayload) validate() error {
	for _, msgs := range p.Alerts {
		if len(msgs) > 0 {
			return nil
		}
	}
	return fmt.Errorf("smart alerts carried no alert messages")
}

// OpportunityScanPayload lists funds flagged as opportunities.
type OpportunityScanPayload struct {
	Title         string           `json:"title"`
	Opportunities []map[string]any `json:"opportunities"`
	AlertLevel    string           `json:"alert_level"`
	NextAction    string           `json:"next_action"`
}

func (p *OpportunityScanPayload) Entries() []tui.ChartEntry {
	entries := make([]tui.ChartEntry, 0, len(p.Opportunities))
	for _, row := range p.Opportunities {
		label := rowLabel(row)
		if label == "" {
			continue
		}
		if f, ok := coerceFloat(row["opportunity_score"]); ok {
			entries = append(entries, tui.ChartEntry{Label: label, Value: f})
		}
	}
	return entries
}

func (p *OpportunityScanPayload) validate() error {
	if len(p.Entries()) == 0 {
		return fmt.Errorf("opportunity scan found no scoreable funds")
	}
	return nil
}

// LeadCollectionPayload fully describes the consultation form.
type LeadCollectionPayload struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	FormFields    []tui.FormField `json:"form_fields"`
	SubmitText    string          `json:"submit_text"`
	PrivacyNote   string          `json:"privacy_note"`
	DeclineOption string          `json:"decline_option"`
}

func (p *LeadCollectionPayload) validate() error {
	if p.Title == "" {
		return fmt.Errorf("lead collection needs a title")
	}
	if len(p.FormFields) == 0 {
		return fmt.Errorf("lead collection needs form_fields")
	}
	if p.SubmitText == "" {
		return fmt.Errorf("lead collection needs submit_text")
	}
	return nil
}

// QuizQuestion is one backend-described quiz prompt. The rendered quiz is
// client-fixed; the payload is kept for its title and description.
type QuizQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

// QuizPayload announces the risk-profile questionnaire.
type QuizPayload struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuizQuestion `json:"questions"`
	SubmitText  string         `json:"submit_text"`
}

// LeadNoticePayload covers the post-submission echo kinds, which carry only
// a confirmation message.
type LeadNoticePayload struct {
	Message string `json:"message"`
}

func (p *LeadNoticePayload) validate() error {
	if p.Message == "" {
		return fmt.Errorf("lead notice needs a message")
	}
	return nil
}

// parsePayload unmarshals and validates one variant. A payload that does not
// satisfy its variant's minimum shape is rejected so the classifier can fall
// back instead of trusting optional fields at render time.
func parsePayload(kind PayloadKind, data []byte) (*Payload, error) {
	p := &Payload{Kind: kind}
	switch kind {
	case KindComparison:
		var v ComparisonPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.Comparison = &v
	case KindPerformance:
		var v PerformancePayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.Performance = &v
	case KindRecommendation:
		var v RecommendationPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.Recommendation = &v
	case KindSmartRecommendation:
		var v SmartRecommendationPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.SmartRecommendation = &v
	case KindMarketInsights:
		var v MarketInsightsPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.MarketInsights = &v
	case KindConsistency:
		var v ConsistencyPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.Consistency = &v
	case KindCorrelation:
		var v CorrelationPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.Correlation = &v
	case KindPortfolio:
		var v PortfolioPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.Portfolio = &v
	case KindFeeAnalysis:
		var v FeeAnalysisPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.FeeAnalysis = &v
	case KindFundScreening:
		var v FundScreeningPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.FundScreening = &v
	case KindSmartAlerts:
		var v SmartAlertsPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.SmartAlerts = &v
	case KindOpportunityScan:
		var v OpportunityScanPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.OpportunityScan = &v
	case KindLeadCollection:
		var v LeadCollectionPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.LeadCollection = &v
	case KindQuiz:
		var v QuizPayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		p.Quiz = &v
	case KindLeadSubmitted, KindLeadDeclined, KindLeadCollectionDecl, KindLeadAlreadySubmitted:
		var v LeadNoticePayload
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		p.LeadNotice = &v
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
	return p, nil
}

// coerceFloat converts the loose numeric encodings the backend emits:
// float64, int, and strings with commas or percent signs. "N/A" and "-"
// yield false.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(n, ",", ""), "%", ""))
		if clean == "" || clean == "N/A" || clean == "-" {
			return 0, false
		}
		f, err := strconv.ParseFloat(clean, 64)
		return f, err == nil
	}
	return 0, false
}
