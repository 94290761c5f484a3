package ui

import (
	"time"

	"ordertrack/internal/lookup"
	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
	"ordertrack/internal/state"
)

// snapshotMsg carries a store snapshot published by the session.
type snapshotMsg struct {
	State state.State
}

// startedMsg is sent once the initial loads have finished.
type startedMsg struct {
	Err error
}

// OpenOrderMsg shows an order, pushing it onto the opened stack.
type OpenOrderMsg struct {
	ID int64
}

// CloseOrderMsg removes an order from the opened stack; ID 0 closes the
// active order.
type CloseOrderMsg struct {
	ID int64
}

// ActivateOrderMsg focuses an order that is already opened.
type ActivateOrderMsg struct {
	ID int64
}

// CycleOpenedMsg moves focus along the opened stack by Delta slots.
type CycleOpenedMsg struct {
	Delta int
}

// ToggleDoneMsg flips the done flag of the active order.
type ToggleDoneMsg struct{}

// ShowDeleteOrderMsg asks for confirmation before deleting the active order.
type ShowDeleteOrderMsg struct{}

// DeleteOrderMsg is sent when the user confirms a delete.
type DeleteOrderMsg struct {
	ID int64
}

// ShowOrderFormMsg opens the order editor; EditActive edits the active order.
type ShowOrderFormMsg struct {
	EditActive bool
}

// SaveOrderMsg is sent by the editor on submit.
type SaveOrderMsg struct {
	EditingID int64
	Input     rpc.OrderInput
}

// ShowDashboardMsg, ShowSettingsMsg and ShowContentMsg switch panels.
type ShowDashboardMsg struct{}

type ShowSettingsMsg struct{}

type ShowContentMsg struct{}

// CloseOrderFormMsg, CloseDashboardMsg and CloseSettingsMsg are sent by a
// panel's esc; each closes only its own panel.
type CloseOrderFormMsg struct{}

type CloseDashboardMsg struct{}

type CloseSettingsMsg struct{}

// RefreshMsg reloads orders, the opened stack and the theme.
type RefreshMsg struct{}

// DismissErrorMsg clears the last mutation error.
type DismissErrorMsg struct{}

// DismissModalMsg is sent when the user cancels a modal.
type DismissModalMsg struct{}

// mutationDoneMsg reports the outcome of a session write. The store has
// already been updated; this only drives follow-ups.
type mutationDoneMsg struct {
	Op   string
	ID   int64
	Done bool
	Err  error
}

type orderSavedMsg struct {
	EditingID int64
	ID        int64
	Err       error
}

type detailLoadedMsg struct {
	Result lookup.Result[int64, rpc.OrderDetail]
}

// formDetailMsg prefills the editor for an existing order.
type formDetailMsg struct {
	ID     int64
	Detail rpc.OrderDetail
	Err    error
}

type prefsLoadedMsg struct {
	Prefs session.Preferences
	Err   error
}

type companiesLoadedMsg struct {
	Companies []rpc.DeliveryCompany
	Err       error
}

type dashboardLoadedMsg struct {
	Data rpc.DashboardData
	Err  error
}

// suggestionsMsg answers an article or city type-ahead query.
type suggestionsMsg struct {
	Field  string
	Result lookup.Result[string, []string]
}

type descriptionMsg struct {
	Result lookup.Result[string, *string]
}

// settingsSavedMsg reports a settings panel save.
type settingsSavedMsg struct {
	Err error
}

// companyChangedMsg reports an add, rename or toggle of a delivery company.
type companyChangedMsg struct {
	Err error
}

type confettiMsg struct {
	Palette []string
}

type confettiDoneMsg time.Time

// SaveSettingsMsg is sent by the settings panel on ctrl+s.
type SaveSettingsMsg struct {
	Theme rpc.ThemeDTO
	Prefs session.Preferences
}

// ShowAddCompanyMsg and ShowRenameCompanyMsg open the company prompts.
type ShowAddCompanyMsg struct{}

type ShowRenameCompanyMsg struct {
	ID   int64
	Name string
}

// AddCompanyMsg, RenameCompanyMsg and ToggleCompanyMsg change a delivery
// company.
type AddCompanyMsg struct {
	Name string
}

type RenameCompanyMsg struct {
	ID   int64
	Name string
}

type ToggleCompanyMsg struct {
	ID     int64
	Active bool
}
