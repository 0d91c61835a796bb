package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"fundchat-cli/cmd/config"
	uitk "fundchat-cli/internal/tui"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"
)

var (
	advisorPrompt = "💬 Advisor:"
	userPrompt    = "> "
)

const gap = "\n\n"

// Message is one entry of the append-only conversation log. Roles: "user",
// "assistant", "widget" (pre-rendered chart or card block), "client" (local
// notices), and "error".
type Message struct {
	ID           string
	Role         string
	Content      string
	Timestamp    string
	ResponseType string
}

// advisorAPI is the surface of AdvisorClient the TUI needs. Tests substitute
// a fake.
type advisorAPI interface {
	SendMessage(message, sessionID string, userContext map[string]string) (*ChatReply, error)
	FetchHistory(sessionID string) (*SessionHistory, error)
	ClearSession(sessionID string) error
	CheckHealth() (*HealthPayload, error)
	ListTools() (*ToolsPayload, error)
}

type (
	replyMsg         struct{ reply *ChatReply }
	sendErrMsg       struct{ err error }
	tickMsg          struct{}
	healthTickMsg    struct{}
	serverHealthMsg  struct{ health *HealthPayload }
	toolsMsg         struct {
		tools *ToolsPayload
		err   error
	}
	configChangedMsg struct {
		cfg  config.ServerConfig
		file string
	}
)

type chatModel struct {
	client    advisorAPI
	cfg       config.ServerConfig
	sessionID string

	messages   []Message
	history    []string
	histIndex  int
	thinking   bool
	thinkFrame int
	lastReply  string

	// Panel visibility. The conversation keeps running while collapsed;
	// replies arriving then bump the unread counter.
	isOpen bool
	unread int

	serverHealth *HealthPayload
	serverOnline bool

	width      int
	termHeight int
	err        error

	spin     spinner.Model
	viewport viewport.Model
	textarea textarea.Model
	toast    uitk.ToastModel
	quiz     uitk.QuizModel
	leadForm uitk.LeadFormModel

	// Controller decouples data/state updates from the UI model
	controller *Controller

	watchCh chan tea.Msg
}

// runChatTUI starts the Bubble Tea chat panel.
func runChatTUI() {
	cfg, err := config.GetServerConfig(getEffectiveCWD(), serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		timeout = requestTimeout
	}
	client := newAdvisorClient(cfg.URL, timeout, nil)

	m := newChatModel(client, *cfg)

	// Live config reload: edits to fundchat.yaml and friends take effect
	// without restarting the panel.
	if watcher, err := watchConfig(getEffectiveCWD(), m.watchCh); err == nil {
		defer watcher.Close()
	} else {
		logDebug(fmt.Sprintf("config watcher unavailable: %v", err))
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
	}
}

func newChatModel(client advisorAPI, cfg config.ServerConfig) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about funds, returns, or portfolios..."
	ta.Focus()
	ta.Prompt = userPrompt
	ta.SetWidth(30)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(30, 5)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// Restore the previous session and its transcript if one was persisted,
	// otherwise start a fresh client-generated session.
	sessionID := newSessionID()
	var messages []Message
	var history []string
	if existing, err := readSessionContext(); err == nil && existing != nil {
		sessionID = existing.SessionID
		logDebug(fmt.Sprintf("Restored session ID: %s", sessionID))
		if hist, err := client.FetchHistory(sessionID); err == nil {
			for _, msg := range hist.Messages {
				switch msg.Role {
				case "user":
					history = append(history, msg.Content)
					messages = append(messages, Message{Role: "user", Content: msg.Content})
				case "assistant":
					messages = append(messages, Message{Role: "assistant", Content: msg.Content})
				}
			}
		}
	}
	if len(messages) == 0 {
		messages = append(messages, Message{
			Role:    "client",
			Content: "Hi! Ask me about funds, returns, fees, or portfolios. Type '/help' for commands.",
		})
	}

	width, _, _ := term.GetSize(uintptr(os.Stdout.Fd()))

	vp.SetContent(renderChatContent(chatModel{messages: messages}))

	ctrl := NewController(State{}, cfg.MinServerVersion)

	return chatModel{
		client:     client,
		cfg:        cfg,
		sessionID:  sessionID,
		messages:   messages,
		history:    history,
		histIndex:  len(history),
		isOpen:     true,
		spin:       s,
		textarea:   ta,
		viewport:   vp,
		width:      width,
		toast:      uitk.NewToastModel(),
		quiz:       uitk.NewQuizModel(),
		leadForm:   uitk.NewLeadFormModel(),
		controller: ctrl,
		watchCh:    make(chan tea.Msg, 4),
	}
}

func (m chatModel) healthInterval() time.Duration {
	if m.cfg.HealthIntervalSeconds > 0 {
		return time.Duration(m.cfg.HealthIntervalSeconds) * time.Second
	}
	return 30 * time.Second
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, checkHealthCmd(m.client), healthTickCmd(m.healthInterval()), listen(m.watchCh))
}

func checkHealthCmd(client advisorAPI) tea.Cmd {
	return func() tea.Msg {
		health, err := client.CheckHealth()
		if err != nil {
			logDebug(fmt.Sprintf("health check failed: %v", err))
			return serverHealthMsg{health: nil}
		}
		return serverHealthMsg{health: health}
	}
}

// healthTickCmd schedules the next poll. Polling runs whether or not the
// panel is open.
func healthTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return healthTickMsg{} })
}

func thinkingCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// sendCmd runs one chat exchange off the UI goroutine.
func sendCmd(client advisorAPI, text, sessionID string, userContext map[string]string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.SendMessage(text, sessionID, userContext)
		if err != nil {
			return sendErrMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}

// dispatch starts a send. Visible sends append the user message to the log
// optimistically; hidden sends carry protocol messages the user never typed,
// like form submissions.
func (m *chatModel) dispatch(text string, visible bool) tea.Cmd {
	if visible {
		m.history = append(m.history, text)
		m.histIndex = len(m.history)
		m.messages = append(m.messages, Message{
			ID:        uuid.NewString(),
			Role:      "user",
			Content:   text,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	m.thinking = true
	return tea.Batch(sendCmd(m.client, text, m.sessionID, m.cfg.UserContext), thinkingCmd())
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		cmd   tea.Cmd
		cmds  []tea.Cmd
	)

	modalActive := m.quiz.IsActive() || m.leadForm.IsActive()

	// Route messages to the modal widgets (they ignore most when inactive)
	m.quiz, cmd = m.quiz.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.leadForm, cmd = m.leadForm.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	// Lock chat input while a modal widget is up
	if modalActive {
		m.textarea.Blur()
	} else if m.isOpen && !m.textarea.Focused() {
		m.textarea.Focus()
	}
	if !modalActive && m.isOpen {
		m.textarea, tiCmd = m.textarea.Update(msg)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	m.toast, cmd = m.toast.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, vpCmd, tiCmd, cmd)

	headerHeight := lipgloss.Height(renderInfoBar(m))
	footerHeight := lipgloss.Height(renderChatInput(m))

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		newHeight := msg.Height - footerHeight - headerHeight
		if newHeight < 1 {
			newHeight = 1
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = newHeight

		newWidth := msg.Width - 2
		if newWidth < 10 {
			newWidth = 10
		}
		m.textarea.SetWidth(newWidth)
		m.width = msg.Width
		m.termHeight = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+o":
			// Modal widgets own the screen; don't collapse underneath them.
			if modalActive {
				return m, tea.Batch(cmds...)
			}
			m.isOpen = !m.isOpen
			if m.isOpen {
				m.unread = 0
				m.refreshViewportBottom()
			}
			return m, tea.Batch(cmds...)

		case "ctrl+y":
			if modalActive {
				return m, tea.Batch(cmds...)
			}
			if m.lastReply == "" {
				cmds = append(cmds, uitk.ShowToastCmd("Nothing to copy yet"))
				return m, tea.Batch(cmds...)
			}
			if err := clipboard.WriteAll(m.lastReply); err != nil {
				cmds = append(cmds, uitk.ShowToastCmd("Copy failed"))
			} else {
				cmds = append(cmds, uitk.ShowToastCmd("Copied last reply"))
			}
			return m, tea.Batch(cmds...)

		case "esc":
			// Modals handle their own ESC
			return m, tea.Batch(cmds...)

		case "up":
			if modalActive || !m.isOpen {
				return m, tea.Batch(cmds...)
			}
			if m.histIndex > 0 {
				m.histIndex--
				m.textarea.SetValue(m.history[m.histIndex])
				m.textarea.CursorEnd()
			}

		case "down":
			if modalActive || !m.isOpen {
				return m, tea.Batch(cmds...)
			}
			if m.histIndex < len(m.history)-1 {
				m.histIndex++
				m.textarea.SetValue(m.history[m.histIndex])
				m.textarea.CursorEnd()
			} else {
				m.histIndex = len(m.history)
				m.textarea.SetValue("")
			}

		case "enter":
			if modalActive || !m.isOpen {
				return m, tea.Batch(cmds...)
			}
			m.err = nil
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" || m.thinking {
				break
			}

			if strings.HasPrefix(text, "/") {
				return m.handleSlashCommand(text, cmds)
			}

			m.textarea.SetValue("")
			cmds = append(cmds, m.dispatch(text, true))
		}

	case replyMsg:
		m.thinking = false
		reply := msg.reply

		// Adopt the server-assigned session id so the next turn continues
		// the same conversation.
		if reply.SessionID != "" && reply.SessionID != m.sessionID {
			m.sessionID = reply.SessionID
			if err := writeSessionContext(m.sessionID); err != nil {
				logDebug(fmt.Sprintf("failed to persist session: %v", err))
			}
		}

		classified := classify(reply.Response, reply.ResponseType)
		if classified.DisplayText != "" {
			m.messages = append(m.messages, Message{
				ID:           reply.MessageID,
				Role:         "assistant",
				Content:      classified.DisplayText,
				Timestamp:    reply.Timestamp,
				ResponseType: reply.ResponseType,
			})
			m.lastReply = classified.DisplayText
		}
		if widgetCmd := m.applyPayload(classified.Payload); widgetCmd != nil {
			cmds = append(cmds, widgetCmd)
		}
		if !m.isOpen {
			m.unread++
		}

	case sendErrMsg:
		m.thinking = false
		m.err = msg.err
		logDebug(fmt.Sprintf("send failed: %v", msg.err))
		m.messages = append(m.messages, Message{
			Role:    "assistant",
			Content: "Sorry, I could not process that right now. Please try again in a moment.",
		})
		m.messages = append(m.messages, Message{Role: "error", Content: msg.err.Error()})
		cmds = append(cmds, uitk.ShowToastCmd("Backend unavailable"))
		if !m.isOpen {
			m.unread++
		}

	case tickMsg:
		if m.thinking {
			m.thinkFrame = (m.thinkFrame + 1) % 3
			cmds = append(cmds, thinkingCmd())
		}

	case healthTickMsg:
		cmds = append(cmds, checkHealthCmd(m.client), healthTickCmd(m.healthInterval()))

	case serverHealthMsg:
		// Delegate to controller to update state and emit a unified StateUpdateMsg
		cmds = append(cmds, m.controller.UpdateServerHealth(msg.health))

	case StateUpdateMsg:
		m.serverHealth = msg.NewState.ServerHealth
		m.serverOnline = msg.NewState.ServerOnline
		if strings.TrimSpace(msg.Notice) != "" {
			m.messages = append(m.messages, Message{Role: "client", Content: msg.Notice})
		}

	case toolsMsg:
		if msg.err != nil {
			m.messages = append(m.messages, Message{Role: "error", Content: msg.err.Error()})
		} else {
			var b strings.Builder
			b.WriteString("The advisor can help with:")
			for _, tool := range msg.tools.Tools {
				b.WriteString("\n  • " + strings.ReplaceAll(tool, "_", " "))
			}
			if msg.tools.Description != "" {
				b.WriteString("\n" + msg.tools.Description)
			}
			m.messages = append(m.messages, Message{Role: "client", Content: b.String()})
		}

	case configChangedMsg:
		m.cfg = msg.cfg
		timeout := time.Duration(msg.cfg.TimeoutSeconds) * time.Second
		if requestTimeout > 0 {
			timeout = requestTimeout
		}
		m.client = newAdvisorClient(msg.cfg.URL, timeout, nil)
		m.messages = append(m.messages, Message{
			Role:    "client",
			Content: fmt.Sprintf("Configuration reloaded from %s (server: %s)", msg.file, msg.cfg.URL),
		})
		cmds = append(cmds, checkHealthCmd(m.client), listen(m.watchCh))

	case uitk.QuizCompletedMsg:
		cmds = append(cmds, m.dispatch(msg.Summary, true))

	case uitk.QuizDismissedMsg:
		m.messages = append(m.messages, Message{Role: "client", Content: "Quiz closed. Ask again any time."})

	case uitk.LeadSubmitMsg:
		data, err := json.Marshal(msg.Data)
		if err != nil {
			m.messages = append(m.messages, Message{Role: "error", Content: "Could not encode your details."})
			break
		}
		m.messages = append(m.messages, Message{Role: "client", Content: "Sending your details..."})
		cmds = append(cmds, m.dispatch("LEAD_SUBMIT: "+string(data), false))

	case uitk.LeadDeclineMsg:
		cmds = append(cmds, m.dispatch("LEAD_DECLINE", false))

	case uitk.LeadCloseMsg:
		cmds = append(cmds, m.dispatch("LEAD_CLOSE", false))
	}

	m.refreshViewportBottom()

	return m, tea.Batch(cmds...)
}

func (m chatModel) handleSlashCommand(text string, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.ToLower(text))
	switch fields[0] {
	case "/help":
		m.messages = append(m.messages, Message{Role: "client", Content: "Commands:\n" +
			"  /help - Show this help\n" +
			"  /clear - Start a fresh conversation\n" +
			"  /tools - List what the advisor can do\n" +
			"  /status - Show backend connection status\n" +
			"  /exit - Exit\n\n" +
			"Hotkeys:\n" +
			"  Ctrl+O - Collapse/expand the chat panel\n" +
			"  Ctrl+Y - Copy the last reply\n" +
			"  Up/Down - Browse message history"})
		m.textarea.SetValue("")

	case "/clear":
		oldSession := m.sessionID
		m.sessionID = newSessionID()
		if err := writeSessionContext(m.sessionID); err != nil {
			logDebug(fmt.Sprintf("failed to persist session: %v", err))
		}
		m.messages = []Message{{Role: "client", Content: "Conversation cleared. New session started."}}
		m.history = nil
		m.histIndex = 0
		m.lastReply = ""
		m.thinking = false
		m.textarea.SetValue("")
		if oldSession != "" {
			// Best effort: the old server-side session is discarded async.
			client := m.client
			cmds = append(cmds, func() tea.Msg {
				if err := client.ClearSession(oldSession); err != nil {
					logDebug(fmt.Sprintf("failed to clear server session: %v", err))
				}
				return nil
			})
		}
		m.refreshViewportBottom()

	case "/tools":
		m.textarea.SetValue("")
		client := m.client
		cmds = append(cmds, func() tea.Msg {
			tools, err := client.ListTools()
			return toolsMsg{tools: tools, err: err}
		})

	case "/status":
		m.messages = append(m.messages, Message{Role: "client", Content: renderServerStatus(m.cfg.URL, m.serverHealth)})
		m.textarea.SetValue("")

	case "/exit", "/quit":
		return m, tea.Quit

	default:
		m.messages = append(m.messages, Message{
			Role:    "client",
			Content: fmt.Sprintf("Unknown command '%s'. Type '/help' for available commands.", fields[0]),
		})
		m.textarea.SetValue("")
	}
	m.refreshViewportBottom()
	return m, tea.Batch(cmds...)
}

// applyPayload turns a structured payload into transcript widgets or opens a
// modal. It returns a command when the payload needs async follow-up.
func (m *chatModel) applyPayload(p *Payload) tea.Cmd {
	if p == nil {
		return nil
	}

	appendWidget := func(view string) {
		if view != "" {
			m.messages = append(m.messages, Message{Role: "widget", Content: view})
		}
	}

	switch p.Kind {
	case KindComparison:
		c := p.Comparison
		appendWidget(uitk.NewBarChart(c.Title, unitFor(c.YAxis), c.Entries()).View())

	case KindPerformance:
		perf := p.Performance
		view := uitk.NewBarChart(perf.Title, unitFor(perf.ChartData.YAxis), perf.Entries()).View()
		appendWidget(withInsights(view, perf.Insights, perf.Recommendation))

	case KindRecommendation:
		rec := p.Recommendation
		appendWidget(uitk.RenderFundCards(rec.Title, rec.Description, fundCardsFrom(rec.RecommendedFunds), rec.InvestmentAdvice))

	case KindSmartRecommendation:
		smart := p.SmartRecommendation
		appendWidget(uitk.RenderRankedFunds(smart.Title, rankedItemsFrom(smart.Recommendations), smart.InvestmentStrategy))

	case KindMarketInsights:
		mi := p.MarketInsights
		view := uitk.NewBarChart(mi.Title, unitFor(mi.ChartData.YAxis), mi.ChartData.Entries()).View()
		appendWidget(withInsights(view, nil, mi.Summary))

	case KindConsistency:
		cons := p.Consistency
		view := uitk.NewBarChart(cons.Title, unitFor(cons.ChartData.YAxis), cons.ChartData.Entries()).View()
		appendWidget(withInsights(view, cons.Insights, cons.Recommendation))

	case KindCorrelation:
		corr := p.Correlation
		view := uitk.NewBarChart(corr.Title, "", corr.ChartData.Entries()).View()
		extra := corr.Insights
		if corr.DiversificationScore != 0 {
			extra = append([]string{fmt.Sprintf("Diversification score: %s", uitk.FormatMetric(corr.DiversificationScore))}, extra...)
		}
		appendWidget(withInsights(view, extra, corr.Recommendation))

	case KindPortfolio:
		pf := p.Portfolio
		view := uitk.NewBarChart(pf.Title, "%", pf.Entries()).View()
		var extra []string
		if pf.TotalInvestment != "" {
			extra = append(extra, "Total investment: "+pf.TotalInvestment)
		}
		appendWidget(withInsights(view, extra, pf.RebalancingAdvice))

	case KindFeeAnalysis:
		fee := p.FeeAnalysis
		view := uitk.NewBarChart(fee.Title, unitFor(fee.ChartData.YAxis), fee.ChartData.Entries()).View()
		appendWidget(withInsights(view, fee.Insights, ""))

	case KindFundScreening:
		scr := p.FundScreening
		view := uitk.NewBarChart(scr.Title, "", scr.Entries()).View()
		var extra []string
		if scr.TotalFundsScreened > 0 {
			extra = append(extra, fmt.Sprintf("%d of %d funds matched", scr.FundsMatching, scr.TotalFundsScreened))
		}
		appendWidget(withInsights(view, extra, scr.NextSteps))

	case KindOpportunityScan:
		scan := p.OpportunityScan
		view := uitk.NewBarChart(scan.Title, "", scan.Entries()).View()
		appendWidget(withInsights(view, nil, scan.NextAction))

	case KindSmartAlerts:
		al := p.SmartAlerts
		appendWidget(uitk.RenderAlerts(al.Title, alertGroupsFrom(al.Alerts), al.AlertSummary, al.SuggestedActions))

	case KindQuiz:
		title := ""
		if p.Quiz != nil {
			title = p.Quiz.Title
		}
		m.quiz.Open(title)

	case KindLeadCollection:
		lead := p.LeadCollection
		m.leadForm.Open(lead.Title, lead.Description, lead.FormFields,
			lead.SubmitText, lead.PrivacyNote, lead.DeclineOption)

	case KindLeadSubmitted, KindLeadDeclined, KindLeadCollectionDecl, KindLeadAlreadySubmitted:
		m.messages = append(m.messages, Message{Role: "client", Content: p.LeadNotice.Message})
	}
	return nil
}

// alertSeverities fixes the display order of smart-alert buckets.
var alertSeverities = []string{"urgent", "important", "informational", "opportunities"}

func alertGroupsFrom(alerts map[string][]string) []uitk.AlertGroup {
	groups := make([]uitk.AlertGroup, 0, len(alertSeverities))
	for _, severity := range alertSeverities {
		if msgs := alerts[severity]; len(msgs) > 0 {
			groups = append(groups, uitk.AlertGroup{Severity: severity, Messages: msgs})
		}
	}
	return groups
}

// unitFor extracts a short unit suffix from a y-axis label like "Return (%)".
func unitFor(yAxis string) string {
	if strings.Contains(yAxis, "%") {
		return "%"
	}
	return ""
}

func withInsights(view string, insights []string, footer string) string {
	var b strings.Builder
	b.WriteString(view)
	for _, ins := range insights {
		b.WriteString("\n• " + ins)
	}
	if footer != "" {
		b.WriteString("\n" + footer)
	}
	return b.String()
}

func fundCardsFrom(funds []FundInfo) []uitk.FundCard {
	fmtPct := func(v *float64) string {
		if v == nil {
			return "N/A"
		}
		return uitk.FormatMetric(*v) + "%"
	}
	cards := make([]uitk.FundCard, 0, len(funds))
	for _, f := range funds {
		nav := "N/A"
		if f.NAV != nil {
			nav = fmt.Sprintf("%.2f", *f.NAV)
		}
		risk := f.Details.RiskProfile
		if risk == "" {
			risk = "N/A"
		}
		pricing := f.Details.PricingMechanism
		if pricing == "" {
			pricing = "N/A"
		}
		cards = append(cards, uitk.FundCard{
			Name:         f.Name,
			NAV:          nav,
			Return365D:   fmtPct(f.Performance.Return365D),
			ReturnYTD:    fmtPct(f.Performance.ReturnYTD),
			ExpenseRatio: fmtPct(f.Fees.ExpenseRatio),
			RiskProfile:  risk,
			Pricing:      pricing,
		})
	}
	return cards
}

func rankedItemsFrom(recs []RankedFund) []uitk.RankedItem {
	items := make([]uitk.RankedItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, uitk.RankedItem{
			Rank:           r.Rank,
			Name:           rowLabel(r.Fund),
			Score:          r.Score,
			Rationale:      r.Rationale,
			ExpectedReturn: r.ExpectedReturn,
		})
	}
	return items
}

func renderServerStatus(serverURL string, health *HealthPayload) string {
	if health == nil {
		return fmt.Sprintf("Backend: %s\nStatus: ✗ offline", serverURL)
	}
	line := fmt.Sprintf("Backend: %s\nStatus: ● %s", serverURL, health.Status)
	if health.Version != "" {
		line += fmt.Sprintf("\nVersion: %s", health.Version)
	}
	return line
}

func renderChatContent(m chatModel) string {
	var b strings.Builder

	baseStyle := lipgloss.NewStyle()
	for _, message := range m.messages {
		var line string
		switch message.Role {
		case "assistant":
			labelStyle := baseStyle.Foreground(lipgloss.Color("11"))
			line = labelStyle.Render(advisorPrompt) + " " + message.Content + "\n"
		case "user":
			style := baseStyle.Foreground(lipgloss.Color("#ccc"))
			line = style.Bold(true).Render("> ") + style.Render(message.Content)
		case "widget":
			line = message.Content + "\n"
		case "error":
			line = baseStyle.Foreground(lipgloss.Color("9")).Render(message.Content)
		case "client":
			line = baseStyle.Foreground(lipgloss.Color("#666666")).Render(message.Content)
		}
		b.WriteString(line + "\n")
	}

	if m.thinking {
		dots := m.thinkFrame + 1
		thinkingText := advisorPrompt + " " + m.spin.View() + "Thinking" + strings.Repeat(".", dots)
		width := m.width - 2
		if width < 10 {
			width = 10
		}
		wrappedThinking := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Width(width).Render(thinkingText)
		b.WriteString(wrappedThinking + gap)
	}

	return b.String()
}

// setViewportContent updates the viewport with the current chat rendering.
func (m *chatModel) setViewportContent() {
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(renderChatContent(*m)))
}

// refreshViewportBottom updates the viewport and scrolls to the bottom.
func (m *chatModel) refreshViewportBottom() {
	m.setViewportContent()
	m.viewport.GotoBottom()
}

func renderChatInput(m chatModel) string {
	var b strings.Builder

	b.WriteString(gap)

	cbStyle := lipgloss.NewStyle().
		MarginBottom(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63"))

	b.WriteString(cbStyle.Render(m.textarea.View()))

	helpText := "/help for commands | Up/Down: history | Ctrl+O: collapse | Ctrl+Y: copy reply"
	b.WriteString("\n")
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	wrappedHelp := lipgloss.NewStyle().Faint(true).Width(width).Render(helpText)
	b.WriteString(wrappedHelp)
	b.WriteString("\n")

	return b.String()
}

func renderInfoBar(m chatModel) string {
	statusIcon := "✗ offline"
	bgColor := "#6c757d"
	if m.serverOnline {
		statusIcon = "● online"
		bgColor = "#28a745"
	}

	session := "none"
	if m.sessionID != "" {
		session = m.sessionID
		if len(session) > 8 {
			session = session[:8]
		}
	}

	serverHost := strings.TrimPrefix(strings.TrimPrefix(m.cfg.URL, "https://"), "http://")

	statusLine := fmt.Sprintf("💬 FUND ADVISOR | Session: %s | %s | %s", session, statusIcon, serverHost)

	style := lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color("#ffffff")).
		PaddingLeft(1).
		PaddingRight(1)

	if m.width > 2 && lipgloss.Width(statusLine) > m.width-2 {
		maxLen := m.width - 5
		if maxLen > 0 && maxLen < len(statusLine) {
			statusLine = statusLine[:maxLen] + "..."
		}
	}

	return style.Render(statusLine)
}

// renderCollapsedBadge is the one-line stand-in shown while the panel is
// closed: a presence dot, an unread counter, and the reopen hint.
func renderCollapsedBadge(m chatModel) string {
	dot := "○"
	if m.serverOnline {
		dot = "●"
	}
	badge := fmt.Sprintf("%s Fund Advisor", dot)
	if m.unread > 0 {
		badge += fmt.Sprintf(" (%d new)", m.unread)
	}
	badge += "  [Ctrl+O to open]"
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("86")).
		Padding(0, 2)
	return style.Render(badge)
}

func (m chatModel) View() string {
	if !m.isOpen {
		return renderCollapsedBadge(m)
	}

	var b strings.Builder
	modalActive := m.quiz.IsActive() || m.leadForm.IsActive()

	if modalActive {
		dim := lipgloss.NewStyle().Faint(true)
		b.WriteString(dim.Render(m.viewport.View()))
		b.WriteString("\n")
		if m.quiz.IsActive() {
			b.WriteString(m.quiz.View())
		} else {
			b.WriteString(m.leadForm.View())
		}
		b.WriteString("\n")
		shadow := m
		shadow.textarea.Blur()
		b.WriteString(dim.Render(renderChatInput(shadow)))
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString(renderChatInput(m))
	}

	b.WriteString(renderInfoBar(m))

	if v := m.toast.View(); v != "" {
		b.WriteString("\n")
		b.WriteString(v)
	}

	return b.String()
}
