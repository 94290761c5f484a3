package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
)

const (
	fieldClient      = "client"
	fieldArticle     = "article"
	fieldPhone       = "phone"
	fieldCity        = "city"
	fieldAddress     = "address"
	fieldCompany     = "company"
	fieldDate        = "date"
	fieldDescription = "description"
)

var formFields = []struct {
	id, label, placeholder string
}{
	{fieldClient, "Client", "Full name"},
	{fieldArticle, "Article", "What was ordered"},
	{fieldPhone, "Phone", "+385…"},
	{fieldCity, "City", "Delivery city"},
	{fieldAddress, "Address", "Street and number"},
	{fieldCompany, "Carrier", "Delivery company"},
	{fieldDate, "Delivery", rpc.DateLayout},
	{fieldDescription, "Notes", "Optional description"},
}

// OrderFormView edits a new or existing order. Article and city offer
// type-ahead suggestions; choosing a known article fills an empty
// description with the latest one used for it.
type OrderFormView struct {
	EditingID int64
	Loading   bool
	Saving    bool
	Err       error

	ctx       context.Context
	form      *session.Form
	inputs    map[string]textinput.Model
	focus     FocusManager
	companies []rpc.DeliveryCompany
	styles    Styles

	suggestions map[string][]string
	suggestIdx  int
	// articleSuggestions is the last list the service returned for the
	// article field; autofill only trusts names from it.
	articleSuggestions []string
}

var _ View = (*OrderFormView)(nil)

// NewOrderFormView builds an editor pre-filled with in. editingID 0 creates
// a new order.
func NewOrderFormView(ctx context.Context, form *session.Form, editingID int64, in rpc.OrderInput, styles Styles) *OrderFormView {
	v := &OrderFormView{
		EditingID:   editingID,
		ctx:         ctx,
		form:        form,
		inputs:      make(map[string]textinput.Model, len(formFields)),
		styles:      styles,
		suggestions: map[string][]string{},
		suggestIdx:  -1,
	}
	for _, f := range formFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.placeholder
		ti.CharLimit = 200
		ti.Width = 40
		v.inputs[f.id] = ti
		v.focus.Order = append(v.focus.Order, f.id)
	}
	v.focus.OnChange = v.focusChanged
	v.SetInput(in)
	v.setFocus(fieldClient)
	return v
}

// SetInput replaces every field value.
func (v *OrderFormView) SetInput(in rpc.OrderInput) {
	desc := ""
	if in.Description != nil {
		desc = *in.Description
	}
	values := map[string]string{
		fieldClient:      in.ClientName,
		fieldArticle:     in.ArticleName,
		fieldPhone:       in.Phone,
		fieldCity:        in.City,
		fieldAddress:     in.Address,
		fieldCompany:     in.DeliveryCompany,
		fieldDate:        in.DeliveryDate,
		fieldDescription: desc,
	}
	for id, val := range values {
		ti := v.inputs[id]
		ti.SetValue(val)
		v.inputs[id] = ti
	}
}

// SetCompanies supplies the carriers used for the company hint.
func (v *OrderFormView) SetCompanies(c []rpc.DeliveryCompany) {
	v.companies = c
}

// SetStyles re-skins the form.
func (v *OrderFormView) SetStyles(s Styles) {
	v.styles = s
}

// Input collects the field values.
func (v *OrderFormView) Input() rpc.OrderInput {
	in := rpc.OrderInput{
		ClientName:      v.value(fieldClient),
		ArticleName:     v.value(fieldArticle),
		Phone:           v.value(fieldPhone),
		City:            v.value(fieldCity),
		Address:         v.value(fieldAddress),
		DeliveryCompany: v.value(fieldCompany),
		DeliveryDate:    v.value(fieldDate),
	}
	if d := v.value(fieldDescription); strings.TrimSpace(d) != "" {
		in.Description = &d
	}
	return in
}

// Focused returns the id of the focused field.
func (v *OrderFormView) Focused() string {
	return v.focus.Current
}

// Suggestions returns what is offered for field.
func (v *OrderFormView) Suggestions(field string) []string {
	return v.suggestions[field]
}

// CompanyHint returns the carrier the company field probably means, when
// it is not already an exact match.
func (v *OrderFormView) CompanyHint() string {
	name, exact := session.Match(v.value(fieldCompany), v.companies)
	if exact {
		return ""
	}
	return name
}

func (v *OrderFormView) value(id string) string {
	ti := v.inputs[id]
	return ti.Value()
}

func (v *OrderFormView) setValue(id, val string) {
	ti := v.inputs[id]
	ti.SetValue(val)
	ti.CursorEnd()
	v.inputs[id] = ti
}

func (v *OrderFormView) setFocus(id string) tea.Cmd {
	v.focus.SetFocus(id)
	return v.applyFocus()
}

// applyFocus focuses the current field's input and blurs the rest.
func (v *OrderFormView) applyFocus() tea.Cmd {
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

func (v *OrderFormView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *OrderFormView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case suggestionsMsg:
		v.applySuggestions(msg)
		return v, nil
	case descriptionMsg:
		res := msg.Result
		if res.Err != nil || !v.form.Descriptions.Current(res.Seq) || res.Value == nil {
			return v, nil
		}
		if strings.TrimSpace(v.value(fieldDescription)) == "" && strings.TrimSpace(v.value(fieldArticle)) == res.Query {
			v.setValue(fieldDescription, *res.Value)
		}
		return v, nil
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, v.updateFocused(msg)
}

func (v *OrderFormView) handleKey(msg tea.KeyMsg) tea.Cmd {
	field := v.focus.Current
	offered := v.suggestions[field]

	switch msg.String() {
	case "ctrl+s":
		return v.submit()
	case "esc":
		if len(offered) > 0 {
			v.clearSuggestions()
			return nil
		}
		return func() tea.Msg { return CloseOrderFormMsg{} }
	case "tab":
		return v.move(1)
	case "shift+tab":
		return v.move(-1)
	case "down":
		if len(offered) > 0 {
			v.suggestIdx = (v.suggestIdx + 1) % len(offered)
			return nil
		}
		return v.move(1)
	case "up":
		if len(offered) > 0 {
			if v.suggestIdx <= 0 {
				v.suggestIdx = len(offered) - 1
			} else {
				v.suggestIdx--
			}
			return nil
		}
		return v.move(-1)
	case "enter":
		if v.suggestIdx >= 0 && v.suggestIdx < len(offered) {
			v.setValue(field, offered[v.suggestIdx])
			v.clearSuggestions()
			return v.move(1)
		}
		if field == fieldCompany {
			if hint := v.CompanyHint(); hint != "" {
				v.setValue(fieldCompany, hint)
				return nil
			}
		}
		if field == v.focus.Order[len(v.focus.Order)-1] {
			return v.submit()
		}
		return v.move(1)
	}

	before := v.value(field)
	cmd := v.updateFocused(msg)
	if v.value(field) == before {
		return cmd
	}
	switch field {
	case fieldArticle:
		return tea.Batch(cmd, articleSuggestCmd(v.ctx, v.form, v.value(field)))
	case fieldCity:
		return tea.Batch(cmd, citySuggestCmd(v.ctx, v.form, v.value(field)))
	}
	return cmd
}

// focusChanged drops the suggestions of the field being left.
func (v *OrderFormView) focusChanged(from, _ string) {
	v.clearSuggestions()
	switch from {
	case fieldArticle:
		v.form.Articles.Cancel()
	case fieldCity:
		v.form.Cities.Cancel()
	}
}

// move shifts focus by delta. Leaving the article field may autofill the
// description.
func (v *OrderFormView) move(delta int) tea.Cmd {
	from := v.focus.Current
	if delta > 0 {
		v.focus.Next()
	} else {
		v.focus.Prev()
	}
	cmds := []tea.Cmd{v.applyFocus()}
	if from == fieldArticle {
		article := strings.TrimSpace(v.value(fieldArticle))
		if session.ShouldAutofill(article, v.articleSuggestions, v.value(fieldDescription)) {
			cmds = append(cmds, descriptionCmd(v.ctx, v.form, article))
		}
	}
	return tea.Batch(cmds...)
}

func (v *OrderFormView) updateFocused(msg tea.Msg) tea.Cmd {
	id := v.focus.Current
	ti, ok := v.inputs[id]
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	ti, cmd = ti.Update(msg)
	v.inputs[id] = ti
	return cmd
}

func (v *OrderFormView) applySuggestions(msg suggestionsMsg) {
	res := msg.Result
	var current bool
	switch msg.Field {
	case fieldArticle:
		current = v.form.Articles.Current(res.Seq)
	case fieldCity:
		current = v.form.Cities.Current(res.Seq)
	}
	if !current || res.Err != nil {
		return
	}
	if msg.Field == fieldArticle {
		v.articleSuggestions = res.Value
	}
	if v.focus.Current != msg.Field {
		return
	}
	v.suggestions[msg.Field] = res.Value
	v.suggestIdx = -1
}

func (v *OrderFormView) clearSuggestions() {
	v.suggestions = map[string][]string{}
	v.suggestIdx = -1
}

func (v *OrderFormView) submit() tea.Cmd {
	if v.Saving || v.Loading {
		return nil
	}
	in := v.Input().Normalize()
	if err := in.Validate(); err != nil {
		v.Err = err
		return nil
	}
	v.Saving = true
	v.Err = nil
	id := v.EditingID
	return func() tea.Msg { return SaveOrderMsg{EditingID: id, Input: in} }
}

// Saved records the outcome of a save; on failure the form stays open.
func (v *OrderFormView) Saved(err error) {
	v.Saving = false
	v.Err = err
}

func (v *OrderFormView) View() string {
	s := v.styles
	var b strings.Builder
	title := "New order"
	if v.EditingID != 0 {
		title = fmt.Sprintf("Edit order #%d", v.EditingID)
	}
	b.WriteString(s.Title.Render(title) + "\n\n")
	if v.Loading {
		b.WriteString(s.Muted.Render("Loading order…") + "\n")
		return b.String()
	}

	for _, f := range formFields {
		label := fmt.Sprintf("%-9s", f.label)
		if f.id == v.focus.Current {
			label = s.Selected.Render(label)
		} else {
			label = s.Muted.Render(label)
		}
		ti := v.inputs[f.id]
		b.WriteString(label + " " + ti.View() + "\n")

		if f.id == fieldCompany {
			if hint := v.CompanyHint(); hint != "" && strings.TrimSpace(v.value(fieldCompany)) != "" {
				b.WriteString(s.Details.Render(fmt.Sprintf("          did you mean %s? (enter)", hint)) + "\n")
			}
		}
		if f.id == v.focus.Current {
			for i, sug := range v.suggestions[f.id] {
				line := "          " + sug
				if i == v.suggestIdx {
					b.WriteString(s.Selected.Render("        › "+sug) + "\n")
				} else {
					b.WriteString(s.Muted.Render(line) + "\n")
				}
			}
		}
	}

	b.WriteString("\n")
	switch {
	case v.Saving:
		b.WriteString(s.Muted.Render("Saving…") + "\n")
	case v.Err != nil:
		b.WriteString(s.Danger.Render(v.Err.Error()) + "\n")
	}
	b.WriteString(s.Muted.Render("tab/↓: next  ctrl+s: save  esc: cancel"))
	return b.String()
}
