package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FormField is one backend-described input of the consultation form.
type FormField struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder"`
	Options     []string `json:"options"`
}

// LeadSubmitMsg carries the completed form values keyed by field id.
type LeadSubmitMsg struct{ Data map[string]string }

// LeadDeclineMsg is emitted when the user picks the decline option.
type LeadDeclineMsg struct{}

// LeadCloseMsg is emitted when the form is dismissed without an answer.
type LeadCloseMsg struct{}

// LeadFormModel renders the backend-driven contact form. Field order, labels,
// and the decline wording all come from the payload.
type LeadFormModel struct {
	active      bool
	title       string
	description string
	submitText  string
	privacyNote string
	declineText string

	fields     []FormField
	inputs     []textinput.Model
	selections []int

	focus   int
	errText string
	width   int
}

const (
	focusSubmit  = -1
	focusDecline = -2
)

func NewLeadFormModel() LeadFormModel { return LeadFormModel{} }

// Open builds the form from a payload description.
func (m *LeadFormModel) Open(title, description string, fields []FormField, submitText, privacyNote, declineText string) {
	m.active = true
	m.title = title
	m.description = description
	m.fields = fields
	m.submitText = submitText
	m.privacyNote = privacyNote
	m.declineText = declineText
	m.errText = ""
	m.focus = 0

	m.inputs = make([]textinput.Model, len(fields))
	m.selections = make([]int, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 120
		ti.Width = 40
		m.inputs[i] = ti
	}
	m.syncFocus()
}

func (m *LeadFormModel) Close()        { m.active = false }
func (m LeadFormModel) IsActive() bool { return m.active }

func (m *LeadFormModel) syncFocus() {
	for i := range m.inputs {
		if i == m.focus && !m.isSelect(i) {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m LeadFormModel) isSelect(i int) bool {
	return i >= 0 && i < len(m.fields) && m.fields[i].Type == "select" && len(m.fields[i].Options) > 0
}

func (m *LeadFormModel) nextFocus(delta int) {
	// Focus order: fields, then submit, then decline (when offered).
	order := make([]int, 0, len(m.fields)+2)
	for i := range m.fields {
		order = append(order, i)
	}
	order = append(order, focusSubmit)
	if m.declineText != "" {
		order = append(order, focusDecline)
	}
	pos := 0
	for i, v := range order {
		if v == m.focus {
			pos = i
			break
		}
	}
	pos = (pos + delta + len(order)) % len(order)
	m.focus = order[pos]
	m.syncFocus()
}

func (m LeadFormModel) Update(msg tea.Msg) (LeadFormModel, tea.Cmd) {
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
		switch msg.String() {
		case "esc":
			m.active = false
			return m, func() tea.Msg { return LeadCloseMsg{} }
		case "tab", "down":
			m.nextFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.nextFocus(-1)
			return m, nil
		case "left":
			if m.isSelect(m.focus) && m.selections[m.focus] > 0 {
				m.selections[m.focus]--
			}
			return m, nil
		case "right":
			if m.isSelect(m.focus) && m.selections[m.focus] < len(m.fields[m.focus].Options)-1 {
				m.selections[m.focus]++
			}
			return m, nil
		case "enter":
			switch m.focus {
			case focusSubmit:
				return m.submit()
			case focusDecline:
				m.active = false
				return m, func() tea.Msg { return LeadDeclineMsg{} }
			default:
				m.nextFocus(1)
				return m, nil
			}
		}
	}

	if m.focus >= 0 && m.focus < len(m.inputs) && !m.isSelect(m.focus) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// fieldValue reads the current value of field i.
func (m LeadFormModel) fieldValue(i int) string {
	if m.isSelect(i) {
		return m.fields[i].Options[m.selections[i]]
	}
	return strings.TrimSpace(m.inputs[i].Value())
}

func (m LeadFormModel) submit() (LeadFormModel, tea.Cmd) {
	for i, f := range m.fields {
		if f.Required && m.fieldValue(i) == "" {
			m.errText = fmt.Sprintf("%s is required", f.Label)
			m.focus = i
			m.syncFocus()
			return m, nil
		}
	}
	data := make(map[string]string, len(m.fields))
	for i, f := range m.fields {
		if v := m.fieldValue(i); v != "" {
			data[f.ID] = v
		}
	}
	m.active = false
	return m, func() tea.Msg { return LeadSubmitMsg{Data: data} }
}

var (
	formTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	formBorderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("86")).Padding(1, 2)
	formLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	formFocusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	formErrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	formPrivacyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	formButtonStyle  = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("245"))
	formActiveButton = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("86")).Bold(true)
)

func (m LeadFormModel) View() string {
	if !m.active {
		return ""
	}

	var s strings.Builder
	s.WriteString(formTitleStyle.Render(m.title) + "\n")
	if m.description != "" {
		s.WriteString(m.description + "\n")
	}
	s.WriteString("\n")

	for i, f := range m.fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		if i == m.focus {
			s.WriteString(formFocusStyle.Render(label) + "\n")
		} else {
			s.WriteString(formLabelStyle.Render(label) + "\n")
		}
		if m.isSelect(i) {
			opt := m.fields[i].Options[m.selections[i]]
			line := fmt.Sprintf("◂ %s ▸", opt)
			if i == m.focus {
				line = formFocusStyle.Render(line)
			}
			s.WriteString(line + "\n")
		} else {
			s.WriteString(m.inputs[i].View() + "\n")
		}
	}

	s.WriteString("\n")
	submit := formButtonStyle.Render(m.submitText)
	if m.focus == focusSubmit {
		submit = formActiveButton.Render(m.submitText)
	}
	buttons := submit
	if m.declineText != "" {
		decline := formButtonStyle.Render(m.declineText)
		if m.focus == focusDecline {
			decline = formActiveButton.Render(m.declineText)
		}
		buttons = lipgloss.JoinHorizontal(lipgloss.Top, submit, "  ", decline)
	}
	s.WriteString(buttons + "\n")

	if m.errText != "" {
		s.WriteString(formErrStyle.Render(m.errText) + "\n")
	}
	if m.privacyNote != "" {
		s.WriteString(formPrivacyStyle.Render(m.privacyNote) + "\n")
	}
	s.WriteString(formPrivacyStyle.Render("Tab: next field  Enter: select  Esc: close"))

	box := formBorderStyle.Render(s.String())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return box
}
