package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PromptModal asks for one line of text. Enter submits a non-blank value.
type PromptModal struct {
	Title    string
	input    textinput.Model
	onSubmit func(string) tea.Msg
	styles   Styles
}

var _ View = (*PromptModal)(nil)

func NewPromptModal(title, initial, placeholder string, onSubmit func(string) tea.Msg, styles Styles) *PromptModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Width = 40
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	return &PromptModal{Title: title, input: ti, onSubmit: onSubmit, styles: styles}
}

// Value is the current text.
func (m *PromptModal) Value() string {
	return m.input.Value()
}

func (m *PromptModal) Init() tea.Cmd {
	return textinput.Blink
}

func (m *PromptModal) Update(msg tea.Msg) (View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return DismissModalMsg{} }
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value == "" || m.onSubmit == nil {
				return m, nil
			}
			submit := m.onSubmit
			return m, func() tea.Msg { return submit(value) }
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *PromptModal) View() string {
	content := m.styles.Title.Render(m.Title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += m.styles.Muted.Render("Enter: save  Esc: cancel")
	return m.styles.Box.Render(content)
}
