package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModal asks a yes/no question. Enter or y confirms; esc or n cancels.
type ConfirmModal struct {
	Title     string
	Label     string
	Details   string
	OnConfirm func() tea.Msg
	styles    Styles
}

var _ View = (*ConfirmModal)(nil)

func NewConfirmModal(title, label string, onConfirm func() tea.Msg, styles Styles) *ConfirmModal {
	return &ConfirmModal{
		Title:     title,
		Label:     label,
		OnConfirm: onConfirm,
		styles:    styles,
	}
}

// WithDetails adds a warning line under the label.
func (m *ConfirmModal) WithDetails(details string) *ConfirmModal {
	m.Details = details
	return m
}

// NewDeleteOrderConfirmModal confirms deleting order id.
func NewDeleteOrderConfirmModal(id int64, article string, opened bool, styles Styles) *ConfirmModal {
	m := NewConfirmModal(
		"Delete order?",
		fmt.Sprintf("#%d %s", id, article),
		func() tea.Msg { return DeleteOrderMsg{ID: id} },
		styles,
	)
	if opened {
		m.WithDetails("It will also be closed in the opened list.")
	}
	return m
}

func (m *ConfirmModal) Init() tea.Cmd {
	return nil
}

func (m *ConfirmModal) Update(msg tea.Msg) (View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "n":
			return m, func() tea.Msg { return DismissModalMsg{} }
		case "enter", "y":
			if m.OnConfirm != nil {
				return m, m.OnConfirm
			}
		}
	}
	return m, nil
}

func (m *ConfirmModal) View() string {
	content := m.styles.TitleWarning.Render(m.Title) + "\n\n"
	content += m.styles.Normal.Render(m.Label)
	if m.Details != "" {
		content += "\n" + m.styles.Details.Render(m.Details)
	}
	content += "\n\n" + m.styles.Muted.Render("y/Enter: confirm  Esc: cancel")
	return m.styles.BoxDanger.Render(content)
}
