package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Classified is the result of splitting a reply into prose and payload.
// Payload is nil for plain text replies.
type Classified struct {
	DisplayText string
	Payload     *Payload
}

// Captions shown when a reply is pure JSON with no leading prose.
var kindCaptions = map[PayloadKind]string{
	KindComparison:          "Here is the comparison you asked for.",
	KindPerformance:         "Here is the performance breakdown.",
	KindRecommendation:      "Here are some funds that fit your profile.",
	KindSmartRecommendation: "Here are my top picks for your criteria.",
	KindMarketInsights:      "Here is a look at the current market.",
	KindConsistency:         "Here is how consistently these funds perform.",
	KindCorrelation:         "Here is how these funds move together.",
	KindPortfolio:           "Here is a portfolio built for you.",
	KindFeeAnalysis:         "Here is the cost breakdown.",
	KindFundScreening:       "Here are the funds that passed your screen.",
	KindOpportunityScan:     "Here is what the scan turned up.",
	KindSmartAlerts:         "Here are your personalized alerts.",
	KindLeadCollection:      "I can arrange a consultation for you.",
}

// classify splits a raw assistant reply into display prose and a typed
// payload. The backend hints at the payload kind via response_type; replies
// without a recognized hint pass through verbatim.
func classify(raw, responseType string) Classified {
	kind := PayloadKind(responseType)
	if responseType == "" || !isStructuredKind(kind) {
		return Classified{DisplayText: raw}
	}

	if jsonStr, start, ok := extractTypedJSON(raw, kind); ok {
		payload, err := parsePayload(kind, []byte(jsonStr))
		if err == nil {
			return Classified{
				DisplayText: displayTextFor(kind, raw[:start]),
				Payload:     payload,
			}
		}
		logDebug(fmt.Sprintf("payload %q failed validation: %v", kind, err))
	}

	// No embedded JSON survived. For chart kinds, try to salvage a chart
	// from the prose itself before giving up; a recommendation can still be
	// rebuilt from a numbered fund list.
	if isChartKind(kind) {
		if payload := chartFromProse(raw); payload != nil {
			return Classified{DisplayText: strings.TrimSpace(raw), Payload: payload}
		}
	}
	if kind == KindRecommendation {
		if payload := recommendationFromProse(raw); payload != nil {
			return Classified{DisplayText: strings.TrimSpace(raw), Payload: payload}
		}
	}
	return Classified{DisplayText: raw}
}

func isChartKind(kind PayloadKind) bool {
	switch kind {
	case KindComparison, KindPerformance, KindMarketInsights, KindConsistency,
		KindCorrelation, KindFeeAnalysis:
		return true
	}
	return false
}

func displayTextFor(kind PayloadKind, prefix string) string {
	if kind == KindQuiz {
		return ""
	}
	if text := strings.TrimSpace(prefix); text != "" {
		return text
	}
	return kindCaptions[kind]
}

// extractTypedJSON finds the first JSON object in raw whose leading member is
// "type": "<kind>" and returns it with its start offset. The scan is a plain
// brace-depth walk that ignores braces inside strings.
func extractTypedJSON(raw string, kind PayloadKind) (jsonStr string, start int, ok bool) {
	marker := regexp.MustCompile(`^\{\s*"type"\s*:\s*"` + regexp.QuoteMeta(string(kind)) + `"`)

	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		if !marker.MatchString(raw[i:]) {
			continue
		}
		if end, found := matchBraces(raw, i); found {
			return raw[i : end+1], i, true
		}
		// Unbalanced object, likely a truncated reply. Nothing after this
		// point can balance either.
		return "", 0, false
	}
	return "", 0, false
}

// matchBraces returns the index of the brace closing the object opened at
// start. Quoted strings and escape sequences do not affect the depth count.
func matchBraces(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// Prose fallbacks: replies sometimes describe numbers instead of attaching a
// payload. Two shapes are worth charting: "<label>: 12.3%" lines and
// numbered fund lists like "1. Some Fund - 12.3%".
var (
	percentLineRe = regexp.MustCompile(`(?m)^[\s\-\*•]*([A-Za-z][^:\n]{0,60}?)\s*:\s*(-?\d+(?:\.\d+)?)\s*%`)
	numberedRe    = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+([A-Za-z][^-:\n]{0,60}?)\s*[-–]\s*(-?\d+(?:\.\d+)?)\s*%`)
)

// chartFromProse extracts label/percent pairs from plain text. A chart needs
// at least two entries to mean anything.
func chartFromProse(raw string) *Payload {
	matches := percentLineRe.FindAllStringSubmatch(raw, -1)
	if len(matches) < 2 {
		matches = numberedRe.FindAllStringSubmatch(raw, -1)
	}
	if len(matches) < 2 {
		return nil
	}

	data := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		data = append(data, map[string]any{
			"name":  strings.TrimSpace(m[1]),
			"value": value,
		})
	}
	if len(data) < 2 {
		return nil
	}

	comparison := &ComparisonPayload{YAxis: "%", Data: data}
	return &Payload{Kind: KindComparison, Comparison: comparison}
}

// recommendationFromProse rebuilds a minimal recommendation from a numbered
// fund list like "1. Alpha Growth - 12.3%". The percent is kept as the
// annual return; other card fields stay unknown.
func recommendationFromProse(raw string) *Payload {
	matches := numberedRe.FindAllStringSubmatch(raw, -1)
	if len(matches) < 2 {
		return nil
	}

	funds := make([]FundInfo, 0, len(matches))
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		ret := value
		fund := FundInfo{Name: strings.TrimSpace(m[1])}
		fund.Performance.Return365D = &ret
		funds = append(funds, fund)
	}
	if len(funds) < 2 {
		return nil
	}

	rec := &RecommendationPayload{RecommendedFunds: funds}
	return &Payload{Kind: KindRecommendation, Recommendation: rec}
}
