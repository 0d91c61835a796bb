package cmd

import (
	"strings"
	"testing"
	"time"

	"fundchat-cli/cmd/config"
	uitk "fundchat-cli/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeAdvisor records calls and plays back canned replies. A non-zero delay
// simulates backend latency.
type fakeAdvisor struct {
	sent     []string
	sessions []string
	cleared  []string
	reply    *ChatReply
	sendErr  error
	health   *HealthPayload
	history  *SessionHistory
	delay    time.Duration
}

func (f *fakeAdvisor) SendMessage(message, sessionID string, userContext map[string]string) (*ChatReply, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.sent = append(f.sent, message)
	f.sessions = append(f.sessions, sessionID)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.reply != nil {
		return f.reply, nil
	}
	return &ChatReply{
		Response:  "ok",
		SessionID: "sess-new",
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}, nil
}

func (f *fakeAdvisor) FetchHistory(sessionID string) (*SessionHistory, error) {
	if f.history != nil {
		return f.history, nil
	}
	return &SessionHistory{}, nil
}

func (f *fakeAdvisor) ClearSession(sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return nil
}

func (f *fakeAdvisor) CheckHealth() (*HealthPayload, error) {
	if f.health != nil {
		return f.health, nil
	}
	return nil, transportErr("health", "offline")
}

func (f *fakeAdvisor) ListTools() (*ToolsPayload, error) {
	return &ToolsPayload{Tools: []string{"compare_funds"}}, nil
}

func newTestModel(t *testing.T, fake *fakeAdvisor) chatModel {
	t.Helper()
	withTempDataDir(t)
	cfg := config.ServerConfig{
		URL:                   "http://localhost:8022",
		TimeoutSeconds:        1,
		HealthIntervalSeconds: 30,
	}
	return newChatModel(fake, cfg)
}

func enterKey() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func updateChat(t *testing.T, m chatModel, msg tea.Msg) (chatModel, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	chat, ok := model.(chatModel)
	if !ok {
		t.Fatalf("expected chatModel, got %T", model)
	}
	return chat, cmd
}

// drainCmd executes a command tree and collects the produced messages.
func drainCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			out = append(out, drainCmd(sub)...)
		}
		return out
	}
	if msg != nil {
		out = append(out, msg)
	}
	return out
}

func lastMessage(m chatModel) Message {
	return m.messages[len(m.messages)-1]
}

func TestSendAppendsUserMessageOptimistically(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	m.textarea.SetValue("compare the equity funds")
	m, _ = updateChat(t, m, enterKey())

	if !m.thinking {
		t.Fatalf("expected thinking state after send")
	}
	if m.textarea.Value() != "" {
		t.Fatalf("expected input cleared, got %q", m.textarea.Value())
	}
	last := lastMessage(m)
	if last.Role != "user" || last.Content != "compare the equity funds" {
		t.Fatalf("expected optimistic user message, got %+v", last)
	}
	if len(m.history) != 1 || m.history[0] != "compare the equity funds" {
		t.Fatalf("expected history updated, got %+v", m.history)
	}
}

func TestSendGuardBlocksConcurrentSends(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	m.textarea.SetValue("first question")
	m, _ = updateChat(t, m, enterKey())
	before := len(m.messages)

	// A second enter while the reply is pending must be a no-op.
	m.textarea.SetValue("second question")
	m, _ = updateChat(t, m, enterKey())

	if len(m.messages) != before {
		t.Fatalf("expected no new message while thinking, got %d -> %d", before, len(m.messages))
	}
	if len(m.history) != 1 {
		t.Fatalf("expected history unchanged, got %+v", m.history)
	}
}

func TestReplyAppendsAssistantMessageAndAdoptsSession(t *testing.T) {
	fake := &fakeAdvisor{reply: &ChatReply{Response: "Happy to help.", SessionID: "sess-42"}}
	m := newTestModel(t, fake)

	m.textarea.SetValue("hello")
	m, cmd := updateChat(t, m, enterKey())
	var reply tea.Msg
	for _, msg := range drainCmd(cmd) {
		if r, ok := msg.(replyMsg); ok {
			reply = r
		}
	}
	if reply == nil {
		t.Fatalf("expected a replyMsg from the send command")
	}
	m, _ = updateChat(t, m, reply)

	if m.thinking {
		t.Fatalf("expected thinking cleared after reply")
	}
	last := lastMessage(m)
	if last.Role != "assistant" || last.Content != "Happy to help." {
		t.Fatalf("expected assistant message, got %+v", last)
	}
	if m.sessionID != "sess-42" {
		t.Fatalf("expected adopted session id, got %q", m.sessionID)
	}
	persisted, err := readSessionContext()
	if err != nil || persisted == nil || persisted.SessionID != "sess-42" {
		t.Fatalf("expected session persisted, got %+v (%v)", persisted, err)
	}
}

func TestSendErrorAppendsApologyAndUnblocks(t *testing.T) {
	fake := &fakeAdvisor{sendErr: transportErr("send", "the advisory service could not be reached")}
	m := newTestModel(t, fake)

	m.textarea.SetValue("hello")
	m, cmd := updateChat(t, m, enterKey())
	for _, msg := range drainCmd(cmd) {
		if e, ok := msg.(sendErrMsg); ok {
			m, _ = updateChat(t, m, e)
		}
	}

	if m.thinking {
		t.Fatalf("expected thinking cleared after error")
	}
	var sawApology, sawError bool
	for _, msg := range m.messages {
		if msg.Role == "assistant" && strings.Contains(msg.Content, "Sorry") {
			sawApology = true
		}
		if msg.Role == "error" {
			sawError = true
		}
	}
	if !sawApology || !sawError {
		t.Fatalf("expected apology and error messages, got %+v", m.messages)
	}
	// The optimistic user message stays in the log.
	if m.messages[1].Role != "user" {
		t.Fatalf("expected user message preserved, got %+v", m.messages[1])
	}
}

func TestUserTimestampPrecedesReplyTimestamp(t *testing.T) {
	fake := &fakeAdvisor{delay: 20 * time.Millisecond}
	m := newTestModel(t, fake)

	m.textarea.SetValue("how did my funds do")
	m, cmd := updateChat(t, m, enterKey())
	for _, msg := range drainCmd(cmd) {
		if r, ok := msg.(replyMsg); ok {
			m, _ = updateChat(t, m, r)
		}
	}

	var userAt, replyAt time.Time
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			parsed, err := time.Parse(time.RFC3339, msg.Timestamp)
			if err != nil {
				t.Fatalf("unparseable user timestamp %q: %v", msg.Timestamp, err)
			}
			userAt = parsed
		case "assistant":
			parsed, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
			if err != nil {
				t.Fatalf("unparseable reply timestamp %q: %v", msg.Timestamp, err)
			}
			replyAt = parsed
		}
	}
	if userAt.IsZero() || replyAt.IsZero() {
		t.Fatalf("expected both messages stamped, got %+v", m.messages)
	}
	if !replyAt.After(userAt) {
		t.Fatalf("expected the user message stamped before its reply: user %v, reply %v", userAt, replyAt)
	}
}

func TestSlowBackendKeepsOptimisticOrdering(t *testing.T) {
	fake := &fakeAdvisor{delay: 150 * time.Millisecond}
	m := newTestModel(t, fake)

	m.textarea.SetValue("screen funds for me")
	m, cmd := updateChat(t, m, enterKey())

	// The user message is logged before the backend is even contacted.
	if last := lastMessage(m); last.Role != "user" || last.Content != "screen funds for me" {
		t.Fatalf("expected optimistic user message, got %+v", last)
	}
	if len(fake.sent) != 0 {
		t.Fatalf("expected no backend call before the command runs, got %+v", fake.sent)
	}
	if !m.thinking {
		t.Fatalf("expected thinking state while the reply is pending")
	}

	var reply tea.Msg
	for _, msg := range drainCmd(cmd) {
		if r, ok := msg.(replyMsg); ok {
			reply = r
		}
	}
	if reply == nil {
		t.Fatalf("expected a replyMsg despite the slow backend")
	}
	m, _ = updateChat(t, m, reply)

	if m.thinking {
		t.Fatalf("expected thinking cleared after the late reply")
	}
	userIdx, replyIdx := -1, -1
	for i, msg := range m.messages {
		switch msg.Role {
		case "user":
			userIdx = i
		case "assistant":
			replyIdx = i
		}
	}
	if userIdx == -1 || replyIdx == -1 || userIdx > replyIdx {
		t.Fatalf("expected the user message to precede its reply, got user=%d reply=%d", userIdx, replyIdx)
	}
}

func TestClearStartsFreshSession(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)
	m.sessionID = "old-session"
	m.history = []string{"earlier question"}
	m.messages = append(m.messages, Message{Role: "user", Content: "earlier question"})

	m.textarea.SetValue("/clear")
	m, cmd := updateChat(t, m, enterKey())
	drainCmd(cmd)

	if m.sessionID == "" || m.sessionID == "old-session" {
		t.Fatalf("expected a fresh session id, got %q", m.sessionID)
	}
	if len(m.messages) != 1 || m.messages[0].Role != "client" {
		t.Fatalf("expected transcript reset, got %+v", m.messages)
	}
	if len(m.history) != 0 {
		t.Fatalf("expected history reset, got %+v", m.history)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "old-session" {
		t.Fatalf("expected old server session cleared, got %+v", fake.cleared)
	}
}

func TestCollapsedPanelCountsUnread(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	m, _ = updateChat(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.isOpen {
		t.Fatalf("expected panel collapsed after ctrl+o")
	}

	m, _ = updateChat(t, m, replyMsg{reply: &ChatReply{Response: "news", SessionID: "s"}})
	if m.unread != 1 {
		t.Fatalf("expected 1 unread reply, got %d", m.unread)
	}
	if !strings.Contains(m.View(), "(1 new)") {
		t.Fatalf("expected unread badge in collapsed view:\n%s", m.View())
	}

	m, _ = updateChat(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if !m.isOpen || m.unread != 0 {
		t.Fatalf("expected reopened panel with unread reset, got open=%v unread=%d", m.isOpen, m.unread)
	}
}

func TestCollapsedPanelIgnoresTyping(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)
	m, _ = updateChat(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})

	m.textarea.SetValue("should not send")
	before := len(fake.sent)
	m, _ = updateChat(t, m, enterKey())
	if m.thinking || len(fake.sent) != before {
		t.Fatalf("expected enter ignored while collapsed")
	}
}

func TestChartReplyAppendsWidget(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	reply := &ChatReply{
		Response:     "Here you go: " + comparisonJSON,
		SessionID:    "s",
		ResponseType: "comparison",
	}
	m, _ = updateChat(t, m, replyMsg{reply: reply})

	last := lastMessage(m)
	if last.Role != "widget" {
		t.Fatalf("expected a widget message, got %+v", last)
	}
	if !strings.Contains(last.Content, "Global Equity") || !strings.Contains(last.Content, "█") {
		t.Fatalf("expected a rendered bar chart, got:\n%s", last.Content)
	}
	// The prose before the JSON is the assistant message.
	assistant := m.messages[len(m.messages)-2]
	if assistant.Role != "assistant" || assistant.Content != "Here you go:" {
		t.Fatalf("expected prose prefix as assistant message, got %+v", assistant)
	}
}

func TestSmartAlertsReplyAppendsWidget(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	raw := `{"type": "smart_alerts", "title": "Investment Alerts", ` +
		`"alerts": {"urgent": ["Fee change on Alpha Growth"]}, ` +
		`"suggested_actions": ["Review urgent alerts immediately"]}`
	m, _ = updateChat(t, m, replyMsg{reply: &ChatReply{Response: raw, SessionID: "s", ResponseType: "smart_alerts"}})

	last := lastMessage(m)
	if last.Role != "widget" {
		t.Fatalf("expected a widget message, got %+v", last)
	}
	if !strings.Contains(last.Content, "Urgent") || !strings.Contains(last.Content, "Fee change on Alpha Growth") {
		t.Fatalf("expected rendered alerts, got:\n%s", last.Content)
	}
}

func TestLeadCollectionReplyOpensForm(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	raw := `{"type": "lead_collection", "title": "Talk to an Advisor", ` +
		`"form_fields": [{"id": "name", "label": "Name", "type": "text", "required": true}], ` +
		`"submit_text": "Submit", "decline_option": "No thanks"}`
	m, _ = updateChat(t, m, replyMsg{reply: &ChatReply{Response: raw, SessionID: "s", ResponseType: "lead_collection"}})

	if !m.leadForm.IsActive() {
		t.Fatalf("expected lead form opened")
	}
}

func TestLeadSubmitSendsSentinelWithoutUserMessage(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)
	before := len(m.messages)

	m, cmd := updateChat(t, m, uitk.LeadSubmitMsg{Data: map[string]string{"name": "Ada"}})
	drainCmd(cmd)

	if len(fake.sent) != 1 || !strings.HasPrefix(fake.sent[0], "LEAD_SUBMIT: ") {
		t.Fatalf("expected a LEAD_SUBMIT sentinel, got %+v", fake.sent)
	}
	if !strings.Contains(fake.sent[0], `"name":"Ada"`) {
		t.Fatalf("expected form data in sentinel, got %q", fake.sent[0])
	}
	for _, msg := range m.messages[before:] {
		if msg.Role == "user" {
			t.Fatalf("expected no user message for a hidden send, got %+v", msg)
		}
	}
}

func TestLeadDeclineAndCloseSentinels(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	m, cmd := updateChat(t, m, uitk.LeadDeclineMsg{})
	drainCmd(cmd)
	m, cmd = updateChat(t, m, uitk.LeadCloseMsg{})
	drainCmd(cmd)

	if len(fake.sent) != 2 || fake.sent[0] != "LEAD_DECLINE" || fake.sent[1] != "LEAD_CLOSE" {
		t.Fatalf("expected decline and close sentinels, got %+v", fake.sent)
	}
}

func TestQuizReplyOpensQuizAndCompletionSendsSummary(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	raw := `{"type": "quiz", "title": "Risk Quiz"}`
	m, _ = updateChat(t, m, replyMsg{reply: &ChatReply{Response: raw, SessionID: "s", ResponseType: "quiz"}})
	if !m.quiz.IsActive() {
		t.Fatalf("expected quiz opened")
	}

	m, cmd := updateChat(t, m, uitk.QuizCompletedMsg{Summary: "My risk profile quiz answers. Age: 25-34"})
	drainCmd(cmd)
	if len(fake.sent) != 1 || !strings.Contains(fake.sent[0], "Age: 25-34") {
		t.Fatalf("expected quiz summary sent, got %+v", fake.sent)
	}
	if lastMessage(m).Role != "user" {
		t.Fatalf("expected quiz summary visible as user message, got %+v", lastMessage(m))
	}
}

func TestHealthUpdateSetsOnlineState(t *testing.T) {
	fake := &fakeAdvisor{}
	m := newTestModel(t, fake)

	_, cmd := updateChat(t, m, serverHealthMsg{health: &HealthPayload{Status: "healthy", Version: "1.2.0"}})
	var update tea.Msg
	for _, msg := range drainCmd(cmd) {
		if u, ok := msg.(StateUpdateMsg); ok {
			update = u
		}
	}
	if update == nil {
		t.Fatalf("expected a StateUpdateMsg from the controller")
	}
	m, _ = updateChat(t, m, update)
	if !m.serverOnline {
		t.Fatalf("expected server marked online")
	}

	m, _ = updateChat(t, m, StateUpdateMsg{NewState: State{ServerHealth: nil, ServerOnline: false}})
	if m.serverOnline {
		t.Fatalf("expected server marked offline")
	}
}

func TestIncompatibleServerVersionWarnsOnce(t *testing.T) {
	ctrl := NewController(State{}, "2.0.0")

	msg := ctrl.UpdateServerHealth(&HealthPayload{Status: "healthy", Version: "1.0.0"})()
	update, ok := msg.(StateUpdateMsg)
	if !ok {
		t.Fatalf("expected StateUpdateMsg, got %T", msg)
	}
	if !strings.Contains(update.Notice, "older than the minimum supported") {
		t.Fatalf("expected a version warning, got %q", update.Notice)
	}

	// The second report stays quiet.
	msg = ctrl.UpdateServerHealth(&HealthPayload{Status: "healthy", Version: "1.0.0"})()
	if update := msg.(StateUpdateMsg); update.Notice != "" {
		t.Fatalf("expected no repeat warning, got %q", update.Notice)
	}
}
