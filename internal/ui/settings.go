package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
)

const (
	rowTheme          = "theme"
	rowConfetti       = "confetti"
	rowDefaultCity    = "default-city"
	rowDefaultCompany = "default-company"
	rowConfettiOnDone = "confetti-on-done"
	companyRowPrefix  = "company:"
)

var baseThemes = []rpc.BaseTheme{rpc.ThemeLight, rpc.ThemeDark, rpc.ThemeCustom}

// SettingsView edits the theme, preferences and delivery companies. Theme
// and preferences are saved together with ctrl+s; company changes apply at
// once.
type SettingsView struct {
	Theme     rpc.ThemeDTO
	Prefs     session.Preferences
	Companies []rpc.DeliveryCompany
	Saving    bool
	Err       error
	Notice    string

	inputs map[string]textinput.Model
	focus  FocusManager
	styles Styles
}

var _ View = (*SettingsView)(nil)

func NewSettingsView(theme rpc.ThemeDTO, styles Styles) *SettingsView {
	v := &SettingsView{
		Theme:  theme.Clone(),
		inputs: map[string]textinput.Model{},
		styles: styles,
	}
	for _, id := range []string{rowConfetti, rowDefaultCity, rowDefaultCompany} {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = 40
		v.inputs[id] = ti
	}
	if theme.Base == rpc.ThemeCustom {
		v.setText(rowConfetti, strings.Join(theme.EffectiveConfetti(), ", "))
	}
	v.rebuildOrder()
	v.focus.SetFocus(rowTheme)
	return v
}

// SetPrefs loads preferences into the editable rows.
func (v *SettingsView) SetPrefs(p session.Preferences) {
	v.Prefs = p
	v.setText(rowDefaultCity, p.DefaultCity)
	v.setText(rowDefaultCompany, p.DefaultDeliveryCompany)
}

// SetCompanies replaces the company rows, keeping focus where possible.
func (v *SettingsView) SetCompanies(c []rpc.DeliveryCompany) {
	v.Companies = c
	cur := v.focus.Current
	v.rebuildOrder()
	if !v.focus.SetFocus(cur) {
		v.focus.SetFocus(rowTheme)
	}
	v.applyFocus()
}

func (v *SettingsView) SetStyles(s Styles) {
	v.styles = s
}

// Typing reports whether a text row has the keyboard.
func (v *SettingsView) Typing() bool {
	_, ok := v.inputs[v.focus.Current]
	return ok
}

// Focused returns the focused row id.
func (v *SettingsView) Focused() string {
	return v.focus.Current
}

// Result returns the theme and preferences as edited.
func (v *SettingsView) Result() (rpc.ThemeDTO, session.Preferences) {
	theme := v.Theme.Clone()
	theme.ConfettiColors = nil
	if theme.Base == rpc.ThemeCustom {
		theme.ConfettiColors = rpc.CleanConfetti(strings.Split(v.text(rowConfetti), ","))
	}
	prefs := v.Prefs
	prefs.DefaultCity = strings.TrimSpace(v.text(rowDefaultCity))
	prefs.DefaultDeliveryCompany = strings.TrimSpace(v.text(rowDefaultCompany))
	return theme, prefs
}

// Saved records the outcome of a save.
func (v *SettingsView) Saved(err error) {
	v.Saving = false
	v.Err = err
	v.Notice = ""
	if err == nil {
		v.Notice = "Saved."
	}
}

func (v *SettingsView) rebuildOrder() {
	v.focus.Order = []string{rowTheme, rowConfetti, rowDefaultCity, rowDefaultCompany, rowConfettiOnDone}
	for _, c := range v.Companies {
		v.focus.Order = append(v.focus.Order, companyRowPrefix+strconv.FormatInt(c.ID, 10))
	}
}

func (v *SettingsView) text(id string) string {
	ti := v.inputs[id]
	return ti.Value()
}

func (v *SettingsView) setText(id, s string) {
	ti := v.inputs[id]
	ti.SetValue(s)
	v.inputs[id] = ti
}

func (v *SettingsView) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for id, ti := range v.inputs {
		if id == v.focus.Current {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
		v.inputs[id] = ti
	}
	return cmd
}

// focusedCompany returns the company on the focused row.
func (v *SettingsView) focusedCompany() (rpc.DeliveryCompany, bool) {
	raw, ok := strings.CutPrefix(v.focus.Current, companyRowPrefix)
	if !ok {
		return rpc.DeliveryCompany{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return rpc.DeliveryCompany{}, false
	}
	for _, c := range v.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return rpc.DeliveryCompany{}, false
}

func (v *SettingsView) cycleTheme(delta int) {
	idx := 0
	for i, b := range baseThemes {
		if b == v.Theme.Base {
			idx = i
		}
	}
	v.Theme.Base = baseThemes[((idx+delta)%len(baseThemes)+len(baseThemes))%len(baseThemes)]
	if v.Theme.Base == rpc.ThemeCustom && strings.TrimSpace(v.text(rowConfetti)) == "" {
		v.setText(rowConfetti, strings.Join(rpc.DefaultCustomConfetti, ", "))
	}
}

func (v *SettingsView) Init() tea.Cmd { return nil }

func (v *SettingsView) Update(msg tea.Msg) (View, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, v.updateFocused(msg)
	}

	switch k.String() {
	case "ctrl+s":
		if v.Saving {
			return v, nil
		}
		v.Saving = true
		v.Notice = ""
		theme, prefs := v.Result()
		return v, func() tea.Msg { return SaveSettingsMsg{Theme: theme, Prefs: prefs} }
	case "esc":
		return v, func() tea.Msg { return CloseSettingsMsg{} }
	case "tab", "down":
		v.focus.Next()
		return v, v.applyFocus()
	case "shift+tab", "up":
		v.focus.Prev()
		return v, v.applyFocus()
	}
	if v.Typing() {
		return v, v.updateFocused(msg)
	}
	if k.String() == "a" {
		return v, func() tea.Msg { return ShowAddCompanyMsg{} }
	}

	switch v.focus.Current {
	case rowTheme:
		switch k.String() {
		case "left", "h":
			v.cycleTheme(-1)
		case "right", "l", "enter":
			v.cycleTheme(1)
		}
		return v, nil
	case rowConfettiOnDone:
		if k.String() == "enter" {
			v.Prefs.ConfettiOnDone = !v.Prefs.ConfettiOnDone
		}
		return v, nil
	}

	c, ok := v.focusedCompany()
	if !ok {
		return v, nil
	}
	switch k.String() {
	case "enter":
		return v, func() tea.Msg { return ToggleCompanyMsg{ID: c.ID, Active: !c.Active} }
	case "r":
		return v, func() tea.Msg { return ShowRenameCompanyMsg{ID: c.ID, Name: c.Name} }
	}
	return v, nil
}

func (v *SettingsView) updateFocused(msg tea.Msg) tea.Cmd {
	ti, ok := v.inputs[v.focus.Current]
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	ti, cmd = ti.Update(msg)
	v.inputs[v.focus.Current] = ti
	return cmd
}

func (v *SettingsView) View() string {
	s := v.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("Settings") + "\n\n")

	row := func(id, label, value string) {
		l := fmt.Sprintf("%-18s", label)
		if id == v.focus.Current {
			l = s.Selected.Render("› " + l)
		} else {
			l = s.Muted.Render("  " + l)
		}
		b.WriteString(l + " " + value + "\n")
	}
	input := func(id string) string {
		ti := v.inputs[id]
		return ti.View()
	}

	row(rowTheme, "Theme", fmt.Sprintf("‹ %s ›", v.Theme.Base))
	row(rowConfetti, "Confetti colours", input(rowConfetti))
	row(rowDefaultCity, "Default city", input(rowDefaultCity))
	row(rowDefaultCompany, "Default carrier", input(rowDefaultCompany))
	onDone := "off"
	if v.Prefs.ConfettiOnDone {
		onDone = "on"
	}
	row(rowConfettiOnDone, "Confetti on done", onDone)

	b.WriteString("\n" + s.Title.Render("Delivery companies") + "\n")
	if len(v.Companies) == 0 {
		b.WriteString(s.Empty.Render("  none yet, press a to add") + "\n")
	}
	for _, c := range v.Companies {
		state := s.Success.Render("active")
		if !c.Active {
			state = s.Muted.Render("inactive")
		}
		row(companyRowPrefix+strconv.FormatInt(c.ID, 10), c.Name, state)
	}

	b.WriteString("\n")
	switch {
	case v.Saving:
		b.WriteString(s.Muted.Render("Saving…") + "\n")
	case v.Err != nil:
		b.WriteString(s.Danger.Render(v.Err.Error()) + "\n")
	case v.Notice != "":
		b.WriteString(s.Success.Render(v.Notice) + "\n")
	}
	b.WriteString(s.Muted.Render("↑/↓: move  ←/→: theme  enter: toggle  a: add  r: rename  ctrl+s: save  esc: close"))
	return b.String()
}
