package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fundchat-cli/cmd/config"
	uitk "fundchat-cli/internal/tui"

	"github.com/spf13/cobra"
)

var chatNewSession bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a single message to the advisor and print the reply",
	Long: `Send one message to the advisory backend without opening the
interactive panel. The reply is printed to stdout, including any chart or
fund cards the advisor attaches. The conversation session is shared with the
interactive panel, so follow-up questions keep their context.

Run without a message to open the interactive panel instead.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			runChatTUI()
			return
		}
		runChatOnce(strings.Join(args, " "))
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatNewSession, "new-session", false, "Start a fresh conversation session")
	rootCmd.AddCommand(chatCmd)
}

func runChatOnce(message string) {
	client, cfg := buildClient()

	sessionID := ""
	if !chatNewSession {
		if existing, err := readSessionContext(); err == nil && existing != nil {
			sessionID = existing.SessionID
		}
	}

	reply, err := client.SendMessage(message, sessionID, cfg.UserContext)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if reply.SessionID != "" && reply.SessionID != sessionID {
		if err := writeSessionContext(reply.SessionID); err != nil {
			logDebug(fmt.Sprintf("failed to persist session: %v", err))
		}
	}

	classified := classify(reply.Response, reply.ResponseType)
	if classified.DisplayText != "" {
		fmt.Println(classified.DisplayText)
	}
	if view := renderPayloadForStdout(classified.Payload); view != "" {
		fmt.Println()
		fmt.Println(view)
	}
}

// renderPayloadForStdout renders chart and card payloads for one-shot output.
// Interactive payloads print a hint instead: the quiz and the consultation
// form need the panel.
func renderPayloadForStdout(p *Payload) string {
	if p == nil {
		return ""
	}
	switch p.Kind {
	case KindComparison:
		return uitk.NewBarChart(p.Comparison.Title, unitFor(p.Comparison.YAxis), p.Comparison.Entries()).View()
	case KindPerformance:
		perf := p.Performance
		view := uitk.NewBarChart(perf.Title, unitFor(perf.ChartData.YAxis), perf.Entries()).View()
		return withInsights(view, perf.Insights, perf.Recommendation)
	case KindRecommendation:
		rec := p.Recommendation
		return uitk.RenderFundCards(rec.Title, rec.Description, fundCardsFrom(rec.RecommendedFunds), rec.InvestmentAdvice)
	case KindSmartRecommendation:
		smart := p.SmartRecommendation
		return uitk.RenderRankedFunds(smart.Title, rankedItemsFrom(smart.Recommendations), smart.InvestmentStrategy)
	case KindMarketInsights:
		mi := p.MarketInsights
		view := uitk.NewBarChart(mi.Title, unitFor(mi.ChartData.YAxis), mi.ChartData.Entries()).View()
		return withInsights(view, nil, mi.Summary)
	case KindConsistency:
		cons := p.Consistency
		view := uitk.NewBarChart(cons.Title, unitFor(cons.ChartData.YAxis), cons.ChartData.Entries()).View()
		return withInsights(view, cons.Insights, cons.Recommendation)
	case KindCorrelation:
		corr := p.Correlation
		return uitk.NewBarChart(corr.Title, "", corr.ChartData.Entries()).View()
	case KindPortfolio:
		pf := p.Portfolio
		view := uitk.NewBarChart(pf.Title, "%", pf.Entries()).View()
		return withInsights(view, nil, pf.RebalancingAdvice)
	case KindFeeAnalysis:
		fee := p.FeeAnalysis
		view := uitk.NewBarChart(fee.Title, unitFor(fee.ChartData.YAxis), fee.ChartData.Entries()).View()
		return withInsights(view, fee.Insights, "")
	case KindFundScreening:
		scr := p.FundScreening
		view := uitk.NewBarChart(scr.Title, "", scr.Entries()).View()
		var extra []string
		if scr.TotalFundsScreened > 0 {
			extra = append(extra, fmt.Sprintf("%d of %d funds matched", scr.FundsMatching, scr.TotalFundsScreened))
		}
		return withInsights(view, extra, scr.NextSteps)
	case KindOpportunityScan:
		scan := p.OpportunityScan
		return withInsights(uitk.NewBarChart(scan.Title, "", scan.Entries()).View(), nil, scan.NextAction)
	case KindSmartAlerts:
		al := p.SmartAlerts
		return uitk.RenderAlerts(al.Title, alertGroupsFrom(al.Alerts), al.AlertSummary, al.SuggestedActions)
	case KindQuiz:
		return "The advisor offered the risk-profile quiz. Run 'fundchat' to take it interactively."
	case KindLeadCollection:
		return "The advisor offered a consultation. Run 'fundchat' to fill in the form."
	case KindLeadSubmitted, KindLeadDeclined, KindLeadCollectionDecl, KindLeadAlreadySubmitted:
		return p.LeadNotice.Message
	}
	return ""
}

// buildClient resolves config and constructs the backend client shared by
// the non-interactive commands.
func buildClient() (*AdvisorClient, *config.ServerConfig) {
	cfg, err := config.GetServerConfig(getEffectiveCWD(), serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		timeout = requestTimeout
	}
	return newAdvisorClient(cfg.URL, timeout, nil), cfg
}
