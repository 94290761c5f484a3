package ui

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
	"ordertrack/internal/state"
)

// listWidth is the width of the order list column.
const listWidth = 36

// AppModel is the root model. It renders from the latest store snapshot and
// turns input into session calls.
type AppModel struct {
	Session    *session.Session
	Snap       state.State
	Styles     Styles
	KeyHandler *KeyHandler
	Overlays   OverlayStack

	List      *OrderListView
	Content   *ContentView
	Form      *OrderFormView
	Dashboard *DashboardView
	Settings  *SettingsView

	Prefs     session.Preferences
	Companies []rpc.DeliveryCompany
	Confetti  []string
	StartErr  error

	ctx         context.Context
	logger      *slog.Logger
	updates     <-chan state.State
	unsubscribe func()
	width       int
	height      int
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel subscribes to the session store. Close ends the
// subscription.
func NewAppModel(ctx context.Context, sess *session.Session, logger *slog.Logger) *AppModel {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	snap := sess.Store.Snapshot()
	styles := NewStyles(snap.Theme)
	updates, unsubscribe := sess.Store.Subscribe()

	return &AppModel{
		Session:     sess,
		Snap:        snap,
		Styles:      styles,
		KeyHandler:  NewKeyHandler(newRegistry()),
		List:        NewOrderListView(styles),
		Content:     &ContentView{},
		Dashboard:   NewDashboardView(styles),
		ctx:         ctx,
		logger:      logger,
		updates:     updates,
		unsubscribe: unsubscribe,
	}
}

// newRegistry binds every command key. Single keys without a panel filter
// apply everywhere; text fields bypass the registry entirely.
func newRegistry() *KeybindRegistry {
	reg := NewKeybindRegistry()
	content := []state.PanelKind{state.PanelNone}
	msg := func(m tea.Msg) tea.Cmd { return func() tea.Msg { return m } }

	reg.BindWithDesc("q", tea.Quit, "Quit")
	reg.BindWithDesc("SPC q", tea.Quit, "Quit")
	reg.BindWithDesc("SPC r", msg(RefreshMsg{}), "Refresh")
	reg.BindWithDesc("SPC e", msg(DismissErrorMsg{}), "Dismiss error")

	reg.BindWithDesc("SPC o n", msg(ShowOrderFormMsg{}), "New order")
	reg.BindWithDescForMode("SPC o e", msg(ShowOrderFormMsg{EditActive: true}), "Edit order", content)
	reg.BindWithDescForMode("SPC o t", msg(ToggleDoneMsg{}), "Toggle done", content)
	reg.BindWithDescForMode("SPC o d", msg(ShowDeleteOrderMsg{}), "Delete order", content)
	reg.BindWithDescForMode("SPC s x", msg(CloseOrderMsg{}), "Close order", content)
	reg.BindWithDescForMode("SPC s n", msg(CycleOpenedMsg{Delta: 1}), "Next opened", content)
	reg.BindWithDescForMode("SPC s p", msg(CycleOpenedMsg{Delta: -1}), "Previous opened", content)

	reg.BindWithDesc("SPC p d", msg(ShowDashboardMsg{}), "Dashboard")
	reg.BindWithDesc("SPC p s", msg(ShowSettingsMsg{}), "Settings")
	reg.BindWithDesc("SPC p o", msg(ShowContentMsg{}), "Orders")

	reg.BindWithDescForMode("n", msg(ShowOrderFormMsg{}), "New order", content)
	reg.BindWithDescForMode("e", msg(ShowOrderFormMsg{EditActive: true}), "Edit order", content)
	reg.BindWithDescForMode("d", msg(ToggleDoneMsg{}), "Toggle done", content)
	reg.BindWithDescForMode("D", msg(ShowDeleteOrderMsg{}), "Delete order", content)
	reg.BindWithDescForMode("x", msg(CloseOrderMsg{}), "Close order", content)
	reg.BindWithDescForMode("tab", msg(CycleOpenedMsg{Delta: 1}), "Next opened", content)
	reg.BindWithDescForMode("shift+tab", msg(CycleOpenedMsg{Delta: -1}), "Previous opened", content)
	return reg
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}

// Close ends the store subscription.
func (m *AppModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(a.updates),
		startCmd(a.ctx, a.Session),
		loadPrefsCmd(a.ctx, a.Session),
		loadCompaniesCmd(a.ctx, a.Session),
	)
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return a, a.update(msg)
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	return a.view()
}

func (m *AppModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.List.SetSize(listWidth, msg.Height-4)
		m.Dashboard.SetWidth(msg.Width - listWidth - 2)
		return nil
	case snapshotMsg:
		return tea.Batch(waitForSnapshot(m.updates), m.applySnapshot(msg.State))
	case startedMsg:
		m.StartErr = msg.Err
		if msg.Err != nil {
			m.logger.Warn("initial load incomplete", "error", msg.Err)
		}
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		_, listCmd := m.List.Update(msg)
		_, dashCmd := m.Dashboard.Update(msg)
		return tea.Batch(listCmd, dashCmd)
	}

	if cmd, handled := m.handleMessage(msg); handled {
		return cmd
	}
	return m.forward(msg)
}

// handleKey routes a key: modals first, then text fields, then bindings,
// then the active view.
func (m *AppModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if cmd, ok := m.Overlays.UpdateTop(msg); ok {
		return cmd
	}
	if !m.typing() && m.KeyHandler != nil {
		if consumed, cmd := m.KeyHandler.Handle(msg); consumed {
			return cmd
		}
	}
	if m.Snap.Panel.Kind == state.PanelNone && msg.String() == "esc" && m.Snap.MutationError != nil {
		m.Session.DismissError()
		return nil
	}
	return m.forward(msg)
}

// typing reports whether keys belong to a text field.
func (m *AppModel) typing() bool {
	switch m.Snap.Panel.Kind {
	case state.PanelOrderForm:
		return m.Form != nil
	case state.PanelSettings:
		return m.Settings != nil && m.Settings.Typing()
	case state.PanelNone:
		return m.List.Filtering()
	}
	return false
}

// forward hands msg to the view that owns the main area.
func (m *AppModel) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.Snap.Panel.Kind {
	case state.PanelOrderForm:
		if m.Form != nil {
			_, cmd = m.Form.Update(msg)
		}
	case state.PanelDashboard:
		_, cmd = m.Dashboard.Update(msg)
	case state.PanelSettings:
		if m.Settings != nil {
			_, cmd = m.Settings.Update(msg)
		}
	default:
		_, cmd = m.List.Update(msg)
	}
	return cmd
}

// applySnapshot moves the views to st and starts whatever the change needs.
func (m *AppModel) applySnapshot(st state.State) tea.Cmd {
	prev := m.Snap
	m.Snap = st
	m.KeyHandler.Mode = st.Panel.Kind

	var cmds []tea.Cmd
	if !themeEqual(prev.Theme, st.Theme) {
		m.restyle(NewStyles(st.Theme))
	}
	cmds = append(cmds, m.List.Sync(st))

	if m.Content.SetActive(st.ActiveOrderID) && st.ActiveOrderID != 0 {
		cmds = append(cmds, loadDetailCmd(m.ctx, m.Session, st.ActiveOrderID))
	}
	if st.Panel != prev.Panel {
		cmds = append(cmds, m.enterPanel(prev.Panel, st.Panel))
	}
	return tea.Batch(cmds...)
}

// enterPanel builds the view for a newly active panel and drops the old one.
func (m *AppModel) enterPanel(from, to state.PanelMode) tea.Cmd {
	if from.OrderFormOpen() && to != from {
		m.Session.Form.Articles.Cancel()
		m.Session.Form.Cities.Cancel()
		m.Session.Form.Descriptions.Cancel()
		m.Form = nil
	}
	if from.SettingsOpen() && !to.SettingsOpen() {
		m.Settings = nil
	}
	m.Overlays.Clear()

	switch to.Kind {
	case state.PanelOrderForm:
		in := session.BlankInput(m.Prefs)
		if to.EditingID != 0 {
			in = rpc.OrderInput{}
		}
		m.Form = NewOrderFormView(m.ctx, m.Session.Form, to.EditingID, in, m.Styles)
		m.Form.SetCompanies(m.Companies)
		cmds := []tea.Cmd{m.Form.Init(), loadCompaniesCmd(m.ctx, m.Session)}
		if to.EditingID != 0 {
			m.Form.Loading = true
			cmds = append(cmds, loadFormDetailCmd(m.ctx, m.Session, to.EditingID))
		}
		return tea.Batch(cmds...)
	case state.PanelDashboard:
		return tea.Batch(m.Dashboard.SetLoading(), loadDashboardCmd(m.ctx, m.Session))
	case state.PanelSettings:
		m.Settings = NewSettingsView(m.Snap.Theme, m.Styles)
		m.Settings.SetPrefs(m.Prefs)
		m.Settings.SetCompanies(m.Companies)
		return tea.Batch(loadPrefsCmd(m.ctx, m.Session), loadCompaniesCmd(m.ctx, m.Session))
	}
	return nil
}

func (m *AppModel) restyle(s Styles) {
	m.Styles = s
	m.List.SetStyles(s)
	m.Dashboard.SetStyles(s)
	if m.Form != nil {
		m.Form.SetStyles(s)
	}
	if m.Settings != nil {
		m.Settings.SetStyles(s)
	}
}

func themeEqual(a, b rpc.ThemeDTO) bool {
	return a.Base == b.Base &&
		maps.Equal(a.Colors, b.Colors) &&
		slices.Equal(a.ConfettiColors, b.ConfettiColors)
}

// handleMessage runs the app-level messages. It reports false for
// messages that belong to a view.
func (m *AppModel) handleMessage(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case RefreshMsg:
		return tea.Batch(
			startCmd(m.ctx, m.Session),
			loadPrefsCmd(m.ctx, m.Session),
			loadCompaniesCmd(m.ctx, m.Session),
		), true
	case DismissErrorMsg:
		m.Session.DismissError()
		return nil, true
	case DismissModalMsg:
		m.Overlays.Pop()
		return nil, true

	case OpenOrderMsg:
		return openOrderCmd(m.ctx, m.Session, msg.ID), true
	case ActivateOrderMsg:
		m.Session.Stack.Activate(msg.ID)
		return nil, true
	case CycleOpenedMsg:
		if id := m.cycleTarget(msg.Delta); id != 0 {
			m.Session.Stack.Activate(id)
		}
		return nil, true
	case CloseOrderMsg:
		id := msg.ID
		if id == 0 {
			id = m.Snap.ActiveOrderID
		}
		if id == 0 {
			return nil, true
		}
		return closeOrderCmd(m.ctx, m.Session, id), true
	case ToggleDoneMsg:
		o, ok := m.Snap.Order(m.Snap.ActiveOrderID)
		if !ok {
			return nil, true
		}
		return setDoneCmd(m.ctx, m.Session, o.ID, !o.Done), true
	case ShowDeleteOrderMsg:
		id := m.Snap.ActiveOrderID
		if id == 0 {
			return nil, true
		}
		o, _ := m.Snap.Order(id)
		modal := NewDeleteOrderConfirmModal(id, o.ArticleName, m.Snap.IsOpened(id), m.Styles)
		m.Overlays.Push(Overlay{View: modal, Dismiss: "esc"})
		return modal.Init(), true
	case DeleteOrderMsg:
		m.Overlays.Pop()
		return deleteOrderCmd(m.ctx, m.Session, msg.ID), true
	case mutationDoneMsg:
		if msg.Op == "done" && msg.Err == nil && msg.Done && m.Prefs.ConfettiOnDone {
			return paletteCmd(m.ctx, m.Session), true
		}
		return nil, true
	case confettiMsg:
		m.Confetti = msg.Palette
		return confettiTimeoutCmd(), true
	case confettiDoneMsg:
		m.Confetti = nil
		return nil, true
	case detailLoadedMsg:
		res := msg.Result
		if !m.Session.Detail.Current(res.Seq) || res.Query != m.Content.ActiveID {
			return nil, true
		}
		m.Content.Loaded(res.Value, res.Err)
		return nil, true

	case ShowOrderFormMsg:
		id := int64(0)
		if msg.EditActive {
			id = m.Snap.ActiveOrderID
			if id == 0 {
				return nil, true
			}
		}
		m.Session.Panels.OpenOrderForm(id)
		return nil, true
	case formDetailMsg:
		if m.Form == nil || m.Form.EditingID != msg.ID {
			return nil, true
		}
		m.Form.Loading = false
		if msg.Err != nil {
			m.Form.Err = msg.Err
			return nil, true
		}
		m.Form.SetInput(msg.Detail.Input())
		return nil, true
	case SaveOrderMsg:
		return saveOrderCmd(m.ctx, m.Session, msg.EditingID, msg.Input), true
	case orderSavedMsg:
		if m.Form != nil && m.Form.EditingID == msg.EditingID {
			m.Form.Saved(msg.Err)
		}
		if msg.Err != nil {
			return nil, true
		}
		if msg.EditingID == 0 {
			return openOrderCmd(m.ctx, m.Session, msg.ID), true
		}
		if msg.EditingID == m.Content.ActiveID {
			return loadDetailCmd(m.ctx, m.Session, msg.EditingID), true
		}
		return nil, true
	case suggestionsMsg, descriptionMsg:
		if m.Form != nil {
			_, cmd := m.Form.Update(msg)
			return cmd, true
		}
		return nil, true

	case ShowDashboardMsg:
		if m.Snap.Panel.DashboardOpen() {
			return tea.Batch(m.Dashboard.SetLoading(), loadDashboardCmd(m.ctx, m.Session)), true
		}
		m.Session.Panels.OpenDashboard()
		return nil, true
	case dashboardLoadedMsg:
		m.Dashboard.Loaded(msg.Data, msg.Err)
		return nil, true
	case ShowSettingsMsg:
		m.Session.Panels.OpenSettings()
		return nil, true
	case ShowContentMsg:
		m.Session.Panels.ShowContent()
		return nil, true
	case CloseOrderFormMsg:
		m.Session.Panels.CloseOrderForm()
		return nil, true
	case CloseDashboardMsg:
		m.Session.Panels.CloseDashboard()
		return nil, true
	case CloseSettingsMsg:
		m.Session.Panels.CloseSettings()
		return nil, true

	case prefsLoadedMsg:
		m.Prefs = msg.Prefs
		if m.Settings != nil {
			m.Settings.SetPrefs(msg.Prefs)
		}
		return nil, true
	case companiesLoadedMsg:
		if msg.Err != nil {
			return nil, true
		}
		m.Companies = msg.Companies
		if m.Form != nil {
			m.Form.SetCompanies(msg.Companies)
		}
		if m.Settings != nil {
			m.Settings.SetCompanies(msg.Companies)
		}
		return nil, true
	case SaveSettingsMsg:
		return saveSettingsCmd(m.ctx, m.Session, msg.Theme, msg.Prefs), true
	case settingsSavedMsg:
		if m.Settings != nil {
			m.Settings.Saved(msg.Err)
		}
		return loadPrefsCmd(m.ctx, m.Session), true
	case ShowAddCompanyMsg:
		modal := NewPromptModal("Add delivery company", "", "Company name", func(name string) tea.Msg {
			return AddCompanyMsg{Name: name}
		}, m.Styles)
		m.Overlays.Push(Overlay{View: modal, Dismiss: "esc"})
		return modal.Init(), true
	case ShowRenameCompanyMsg:
		id := msg.ID
		modal := NewPromptModal("Rename delivery company", msg.Name, "Company name", func(name string) tea.Msg {
			return RenameCompanyMsg{ID: id, Name: name}
		}, m.Styles)
		m.Overlays.Push(Overlay{View: modal, Dismiss: "esc"})
		return modal.Init(), true
	case AddCompanyMsg:
		m.Overlays.Pop()
		return addCompanyCmd(m.ctx, m.Session, msg.Name), true
	case RenameCompanyMsg:
		m.Overlays.Pop()
		return renameCompanyCmd(m.ctx, m.Session, msg.ID, msg.Name), true
	case ToggleCompanyMsg:
		return setCompanyActiveCmd(m.ctx, m.Session, msg.ID, msg.Active), true
	case companyChangedMsg:
		if m.Settings != nil {
			m.Settings.Err = msg.Err
		}
		return loadCompaniesCmd(m.ctx, m.Session), true
	}
	return nil, false
}

// cycleTarget returns the opened order delta slots away from the active
// one, wrapping around.
func (m *AppModel) cycleTarget(delta int) int64 {
	opened := m.Snap.Opened
	if len(opened) == 0 {
		return 0
	}
	idx := m.Snap.OpenedIndex(m.Snap.ActiveOrderID)
	if idx < 0 {
		return opened[0].OrderID
	}
	n := len(opened)
	return opened[((idx+delta)%n+n)%n].OrderID
}

func (m *AppModel) view() string {
	s := m.Styles
	width := m.width
	if width == 0 {
		width = 100
	}
	mainWidth := max(width-listWidth-2, 30)

	var b strings.Builder
	chips := RenderChips(m.Snap.Opened, m.Snap.ActiveOrderID, width-2, s)
	if m.Snap.OpenedError != nil {
		chips += "  " + s.Danger.Render("opened list out of date")
	}
	b.WriteString(chips + "\n\n")

	var main string
	switch m.Snap.Panel.Kind {
	case state.PanelOrderForm:
		if m.Form != nil {
			main = m.Form.View()
		}
	case state.PanelDashboard:
		main = m.Dashboard.View()
	case state.PanelSettings:
		if m.Settings != nil {
			main = m.Settings.View()
		}
	default:
		main = m.Content.Render(m.Snap, mainWidth, s)
	}
	left := lipgloss.NewStyle().Width(listWidth).Render(m.List.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", main))

	if top, ok := m.Overlays.Peek(); ok {
		modal := top.View.View()
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
		}
		return b.String() + "\n" + modal
	}

	if len(m.Confetti) > 0 {
		b.WriteString("\n" + RenderConfetti(m.Confetti, min(width, 60)))
	}
	if err := m.Snap.MutationError; err != nil {
		b.WriteString("\n" + s.Danger.Render(err.Error()) + s.Muted.Render("  (esc to dismiss)"))
	}
	if err := m.Snap.ThemeError; err != nil {
		b.WriteString("\n" + s.Muted.Render("Theme unavailable: "+err.Error()))
	}
	if m.KeyHandler != nil && m.KeyHandler.LeaderWaiting {
		b.WriteString("\n" + RenderKeybindHelp(m.KeyHandler, s))
	} else {
		b.WriteString("\n" + s.Muted.Render("Press [SPC] for commands"))
	}
	return b.String()
}
