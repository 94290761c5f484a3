package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

func TestApp_SnapshotFillsList(t *testing.T) {
	svc := newTestService(t)
	mustSave(t, svc, validInput("Desk"))
	mustSave(t, svc, validInput("Lamp"))
	m := newTestApp(t, svc)

	run(t, m, RefreshMsg{})

	require.Len(t, m.List.list.Items(), 2)
	require.True(t, m.Snap.OrdersLoaded)
	if !strings.Contains(m.List.View(), "Orders (2)") {
		t.Errorf("list view missing count:\n%s", m.List.View())
	}
}

func TestApp_OpenOrderLoadsDetail(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})

	run(t, m, OpenOrderMsg{ID: id})

	require.Equal(t, id, m.Snap.ActiveOrderID)
	require.True(t, m.Snap.IsOpened(id))
	require.NotNil(t, m.Content.Detail)
	require.Equal(t, "Ana", m.Content.Detail.ClientName)

	out := m.AsTeaModel().View()
	for _, want := range []string{"Desk", "Lyon", "DHL"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_EnterOnListOpensSelected(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})

	run(t, m, keyMsg("enter"))

	require.Equal(t, id, m.Snap.ActiveOrderID)
}

func TestApp_ToggleDone(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})
	run(t, m, OpenOrderMsg{ID: id})

	run(t, m, keyMsg("d"))

	o, ok := m.Snap.Order(id)
	require.True(t, ok)
	require.True(t, o.Done)
	d, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.True(t, d.Done)
}

func TestApp_ConfettiOnDone(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	require.NoError(t, svc.SetSetting(context.Background(), rpc.SettingConfettiOnDone, "true"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})
	run(t, m, OpenOrderMsg{ID: id})
	require.True(t, m.Prefs.ConfettiOnDone)

	run(t, m, ToggleDoneMsg{})

	require.Equal(t, []string{"#000000"}, m.Confetti)
	m.update(confettiDoneMsg{})
	require.Nil(t, m.Confetti)
}

func TestApp_DeleteNeedsConfirmation(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})
	run(t, m, OpenOrderMsg{ID: id})

	run(t, m, keyMsg("D"))
	require.Equal(t, 1, m.Overlays.Len())
	top, _ := m.Overlays.Peek()
	if _, ok := top.View.(*ConfirmModal); !ok {
		t.Fatalf("expected ConfirmModal on overlay, got %T", top.View)
	}

	run(t, m, keyMsg("y"))

	require.Equal(t, 0, m.Overlays.Len())
	require.Empty(t, m.Snap.Orders)
	require.Empty(t, m.Snap.Opened)
	require.Equal(t, int64(0), m.Snap.ActiveOrderID)
	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestApp_DeleteCancelled(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})
	run(t, m, OpenOrderMsg{ID: id})

	run(t, m, ShowDeleteOrderMsg{})
	run(t, m, keyMsg("esc"))

	require.Equal(t, 0, m.Overlays.Len())
	require.Len(t, m.Snap.Orders, 1)
}

func TestApp_CloseAndCycleOpened(t *testing.T) {
	svc := newTestService(t)
	a := mustSave(t, svc, validInput("Desk"))
	b := mustSave(t, svc, validInput("Lamp"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})
	run(t, m, OpenOrderMsg{ID: a})
	run(t, m, OpenOrderMsg{ID: b})
	require.Equal(t, b, m.Snap.ActiveOrderID)

	run(t, m, keyMsg("tab"))
	require.Equal(t, a, m.Snap.ActiveOrderID)
	run(t, m, keyMsg("tab"))
	require.Equal(t, b, m.Snap.ActiveOrderID)

	run(t, m, keyMsg("x"))
	require.False(t, m.Snap.IsOpened(b))
	require.Equal(t, a, m.Snap.ActiveOrderID)
}

func TestApp_NewOrderFormSaves(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})

	run(t, m, keyMsg("n"))
	require.Equal(t, state.PanelOrderForm, m.Snap.Panel.Kind)
	require.NotNil(t, m.Form)

	m.Form.SetInput(validInput("Chair"))
	run(t, m, keyMsg("ctrl+s"))

	require.Equal(t, state.PanelNone, m.Snap.Panel.Kind)
	require.Nil(t, m.Form)
	require.Len(t, m.Snap.Orders, 1)
	require.Equal(t, "Chair", m.Snap.Orders[0].ArticleName)
	require.Equal(t, m.Snap.Orders[0].ID, m.Snap.ActiveOrderID)
}

func TestApp_InvalidFormStaysOpen(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)
	run(t, m, ShowOrderFormMsg{})

	run(t, m, keyMsg("ctrl+s"))

	require.Equal(t, state.PanelOrderForm, m.Snap.Panel.Kind)
	require.ErrorIs(t, m.Form.Err, rpc.ErrInvalidInput)
}

func TestApp_TypingBypassesBindings(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)
	run(t, m, ShowOrderFormMsg{})

	cmd := m.update(keyMsg("q"))
	m.update(keyMsg(" "))

	require.Equal(t, "q ", m.Form.Input().ClientName)
	require.False(t, m.KeyHandler.LeaderWaiting)
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Error("q quit while typing in the form")
		}
	}
}

func TestApp_EditPrefillsForm(t *testing.T) {
	svc := newTestService(t)
	id := mustSave(t, svc, validInput("Desk"))
	m := newTestApp(t, svc)
	run(t, m, RefreshMsg{})
	run(t, m, OpenOrderMsg{ID: id})

	run(t, m, keyMsg("e"))

	require.Equal(t, state.PanelMode{Kind: state.PanelOrderForm, EditingID: id}, m.Snap.Panel)
	require.False(t, m.Form.Loading)
	require.Equal(t, "Desk", m.Form.Input().ArticleName)

	in := m.Form.Input()
	in.ArticleName = "Desk XL"
	m.Form.SetInput(in)
	run(t, m, keyMsg("ctrl+s"))

	require.Equal(t, state.PanelNone, m.Snap.Panel.Kind)
	require.Equal(t, "Desk XL", m.Content.Detail.ArticleName)
	require.Equal(t, "Desk XL", m.Snap.Opened[0].ArticleName)
}

func TestApp_EscLeavesPanels(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)

	run(t, m, ShowDashboardMsg{})
	require.True(t, m.Snap.Panel.DashboardOpen())
	require.NotNil(t, m.Dashboard.Data)
	require.Contains(t, m.AsTeaModel().View(), "Dashboard")

	run(t, m, keyMsg("esc"))
	require.Equal(t, state.PanelNone, m.Snap.Panel.Kind)

	run(t, m, ShowSettingsMsg{})
	require.True(t, m.Snap.Panel.SettingsOpen())
	require.NotNil(t, m.Settings)
	run(t, m, keyMsg("esc"))
	require.Equal(t, state.PanelNone, m.Snap.Panel.Kind)
	require.Nil(t, m.Settings)
}

func TestApp_SettingsSaveAppliesTheme(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)
	run(t, m, ShowSettingsMsg{})

	run(t, m, keyMsg("right"))
	require.Equal(t, rpc.ThemeDark, m.Settings.Theme.Base)
	run(t, m, keyMsg("ctrl+s"))

	require.Equal(t, rpc.ThemeDark, m.Snap.Theme.Base)
	require.Equal(t, "Saved.", m.Settings.Notice)
	theme, err := svc.GetThemeColors(context.Background())
	require.NoError(t, err)
	require.NotNil(t, theme)
	require.Equal(t, rpc.ThemeDark, theme.Base)
}

func TestApp_AddCompanyFromSettings(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)
	run(t, m, ShowSettingsMsg{})

	run(t, m, keyMsg("a"))
	require.Equal(t, 1, m.Overlays.Len())
	drain(t, tea.Batch(typeText(m.update, "UPS")...), m.update)
	run(t, m, keyMsg("enter"))

	require.Equal(t, 0, m.Overlays.Len())
	require.Len(t, m.Settings.Companies, 1)
	require.Equal(t, "UPS", m.Settings.Companies[0].Name)
}

func TestApp_MutationErrorShownAndDismissed(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)

	run(t, m, OpenOrderMsg{ID: 999})

	require.Error(t, m.Snap.MutationError)
	require.False(t, m.Snap.IsOpened(999))
	require.Contains(t, m.AsTeaModel().View(), "esc to dismiss")

	run(t, m, keyMsg("esc"))
	require.NoError(t, m.Snap.MutationError)
}

func TestApp_CloseMessagesOnlyCloseTheirPanel(t *testing.T) {
	svc := newTestService(t)
	m := newTestApp(t, svc)

	run(t, m, ShowSettingsMsg{})
	run(t, m, CloseDashboardMsg{})
	run(t, m, CloseOrderFormMsg{})
	require.True(t, m.Snap.Panel.SettingsOpen())

	run(t, m, CloseSettingsMsg{})
	require.Equal(t, state.PanelNone, m.Snap.Panel.Kind)

	run(t, m, ShowOrderFormMsg{})
	run(t, m, keyMsg("esc"))
	require.Equal(t, state.PanelNone, m.Snap.Panel.Kind)
	require.Nil(t, m.Form)
}
