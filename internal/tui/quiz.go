package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QuizCompletedMsg carries the composite answer summary. The chat layer sends
// it to the backend as a regular message.
type QuizCompletedMsg struct{ Summary string }

// QuizDismissedMsg is emitted when the user abandons the quiz.
type QuizDismissedMsg struct{}

type quizQuestion struct {
	Prompt  string
	Topic   string
	Options []string
	Multi   bool
}

// The questionnaire is fixed client-side. Backends announce the quiz but do
// not control its contents.
var quizQuestions = []quizQuestion{
	{
		Prompt:  "What is your age bracket?",
		Topic:   "Age",
		Options: []string{"Under 25", "25-34", "35-44", "45-54", "55-64", "65 or older"},
	},
	{
		Prompt:  "How much investing experience do you have?",
		Topic:   "Experience",
		Options: []string{"None", "Beginner (under 2 years)", "Intermediate (2-5 years)", "Experienced (5+ years)"},
	},
	{
		Prompt:  "How long do you plan to stay invested?",
		Topic:   "Horizon",
		Options: []string{"Under 1 year", "1-3 years", "3-7 years", "More than 7 years"},
	},
	{
		Prompt:  "If your portfolio dropped 15% in a month, what would you do?",
		Topic:   "Risk tolerance",
		Options: []string{"Sell everything", "Sell some holdings", "Hold and wait", "Buy more"},
	},
	{
		Prompt:  "What are your investment goals? (select all that apply)",
		Topic:   "Goals",
		Options: []string{"Capital growth", "Regular income", "Capital preservation", "Retirement savings", "Saving for a purchase"},
		Multi:   true,
	},
}

// QuizModel walks the user through the fixed risk-profile questionnaire.
// Answers survive back navigation.
type QuizModel struct {
	active   bool
	title    string
	current  int
	cursor   int
	selected []map[int]bool
	width    int
}

func NewQuizModel() QuizModel {
	selected := make([]map[int]bool, len(quizQuestions))
	for i := range selected {
		selected[i] = map[int]bool{}
	}
	return QuizModel{title: "Risk Profile Quiz", selected: selected}
}

func (m *QuizModel) Open(title string) {
	if title != "" {
		m.title = title
	}
	m.active = true
	m.current = 0
	m.cursor = 0
	for i := range m.selected {
		m.selected[i] = map[int]bool{}
	}
}

func (m *QuizModel) Close()        { m.active = false }
func (m QuizModel) IsActive() bool { return m.active }

func (m QuizModel) Update(msg tea.Msg) (QuizModel, tea.Cmd) {
	if !m.active {
		if ws, ok := msg.(tea.WindowSizeMsg); ok {
			m.width = ws.Width
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		q := quizQuestions[m.current]
		switch msg.String() {
		case "esc":
			m.active = false
			return m, func() tea.Msg { return QuizDismissedMsg{} }
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else {
				m.cursor = len(q.Options) - 1
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(q.Options)-1 {
				m.cursor++
			} else {
				m.cursor = 0
			}
			return m, nil
		case "left", "backspace":
			if m.current > 0 {
				m.current--
				m.cursor = m.firstSelected(m.current)
			}
			return m, nil
		case " ":
			if q.Multi {
				m.selected[m.current][m.cursor] = !m.selected[m.current][m.cursor]
			}
			return m, nil
		case "enter":
			if q.Multi {
				if len(m.chosen(m.current)) == 0 {
					// Treat enter on an option as a toggle when nothing is
					// picked yet, so enter-only users can still answer.
					m.selected[m.current][m.cursor] = true
				}
			} else {
				m.selected[m.current] = map[int]bool{m.cursor: true}
			}
			if m.current < len(quizQuestions)-1 {
				m.current++
				m.cursor = m.firstSelected(m.current)
				return m, nil
			}
			if len(m.chosen(m.current)) == 0 {
				return m, nil
			}
			m.active = false
			summary := m.Summary()
			return m, func() tea.Msg { return QuizCompletedMsg{Summary: summary} }
		}
	}
	return m, nil
}

// firstSelected restores the cursor onto a previously chosen option.
func (m QuizModel) firstSelected(question int) int {
	for i := range quizQuestions[question].Options {
		if m.selected[question][i] {
			return i
		}
	}
	return 0
}

func (m QuizModel) chosen(question int) []string {
	q := quizQuestions[question]
	var out []string
	for i, opt := range q.Options {
		if m.selected[question][i] {
			out = append(out, opt)
		}
	}
	return out
}

// Summary flattens all answers into one line the backend can interpret.
func (m QuizModel) Summary() string {
	parts := make([]string, 0, len(quizQuestions))
	for i, q := range quizQuestions {
		answers := m.chosen(i)
		if len(answers) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", q.Topic, strings.Join(answers, ", ")))
	}
	return "My risk profile quiz answers. " + strings.Join(parts, "; ")
}

var (
	quizTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	quizBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("86")).Padding(1, 2)
	quizFocusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	quizHintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m QuizModel) View() string {
	if !m.active {
		return ""
	}
	q := quizQuestions[m.current]

	var s strings.Builder
	s.WriteString(quizTitleStyle.Render(m.title) + "\n")
	s.WriteString(quizHintStyle.Render(fmt.Sprintf("Question %d of %d", m.current+1, len(quizQuestions))) + "\n\n")
	s.WriteString(q.Prompt + "\n\n")

	for i, opt := range q.Options {
		cursor := "  "
		if i == m.cursor {
			cursor = "→ "
		}
		mark := "( )"
		if q.Multi {
			mark = "[ ]"
			if m.selected[m.current][i] {
				mark = "[x]"
			}
		} else if m.selected[m.current][i] {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %s", cursor, mark, opt)
		if i == m.cursor {
			line = quizFocusStyle.Render(line)
		}
		s.WriteString(line + "\n")
	}

	s.WriteString("\n")
	hints := []string{"↑↓: navigate", "Enter: next", "←: back", "Esc: cancel"}
	if q.Multi {
		hints = []string{"↑↓: navigate", "Space: toggle", "Enter: finish", "←: back", "Esc: cancel"}
	}
	s.WriteString(quizHintStyle.Render(strings.Join(hints, "  ")))

	box := quizBorderStyle.Render(s.String())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return box
}
