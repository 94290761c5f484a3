package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

// orderItem implements list.Item for an order summary.
type orderItem struct {
	rpc.OrderSummary
	opened bool
	saving bool
}

func (o orderItem) FilterValue() string { return o.ArticleName }

func (o orderItem) Title() string {
	mark := "[ ]"
	if o.Done {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s", mark, o.ArticleName)
	if o.opened {
		line += " •"
	}
	if o.saving {
		line += " …"
	}
	return line
}

func (o orderItem) Description() string { return fmt.Sprintf("#%d", o.ID) }

// OrderListView is the left-hand list of every order. Enter opens the
// selected order.
type OrderListView struct {
	list    list.Model
	spinner spinner.Model
	loading bool
	err     error
	styles  Styles
}

var _ View = (*OrderListView)(nil)

func NewOrderListView(styles Styles) *OrderListView {
	l := list.New(nil, NewCompactListDelegate(styles), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Muted

	return &OrderListView{list: l, spinner: s, styles: styles}
}

// SetStyles re-skins the list after a theme change.
func (v *OrderListView) SetStyles(styles Styles) {
	v.styles = styles
	v.list.SetDelegate(NewCompactListDelegate(styles))
	v.spinner.Style = styles.Muted
}

// Sync rebuilds the items from a snapshot, keeping the cursor where it was.
// It returns a spinner tick when loading starts.
func (v *OrderListView) Sync(st state.State) tea.Cmd {
	items := make([]list.Item, len(st.Orders))
	for i, o := range st.Orders {
		items[i] = orderItem{OrderSummary: o, opened: st.IsOpened(o.ID), saving: st.Saving(o.ID)}
	}
	cmd := v.list.SetItems(items)
	v.err = st.OrdersError

	startSpin := st.OrdersLoading && !v.loading
	v.loading = st.OrdersLoading
	if startSpin {
		return tea.Batch(cmd, v.spinner.Tick)
	}
	return cmd
}

// SelectedID returns the highlighted order, or 0 for an empty list.
func (v *OrderListView) SelectedID() int64 {
	if it, ok := v.list.SelectedItem().(orderItem); ok {
		return it.ID
	}
	return 0
}

// Filtering reports whether the list's filter input has the keyboard.
func (v *OrderListView) Filtering() bool {
	return v.list.FilterState() == list.Filtering
}

func (v *OrderListView) SetSize(w, h int) {
	v.list.SetSize(w, h-2)
}

func (v *OrderListView) Init() tea.Cmd { return nil }

func (v *OrderListView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.KeyMsg:
		if msg.String() == "enter" && !v.Filtering() {
			if id := v.SelectedID(); id != 0 {
				return v, func() tea.Msg { return OpenOrderMsg{ID: id} }
			}
			return v, nil
		}
	}
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *OrderListView) View() string {
	if v.list.Width() == 0 {
		v.list.SetSize(32, 20)
	}
	var b strings.Builder
	title := fmt.Sprintf("Orders (%d)", len(v.list.Items()))
	if v.loading {
		title += " " + v.spinner.View()
	}
	b.WriteString(v.styles.Title.Render(title) + "\n")
	switch {
	case v.err != nil:
		b.WriteString(v.styles.Danger.Render("Could not load orders: "+v.err.Error()) + "\n")
	case len(v.list.Items()) == 0 && !v.loading:
		b.WriteString(v.styles.Empty.Render("No orders yet. Press n to add one.") + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString(v.list.View())
	return b.String()
}
