// Package state holds the client's single mutable container. Writers go
// through Store.Update; readers get immutable State snapshots.
package state

import "ordertrack/internal/rpc"

// PanelKind names the full-panel view occupying the main area.
type PanelKind int

const (
	PanelNone PanelKind = iota
	PanelOrderForm
	PanelDashboard
	PanelSettings
)

func (k PanelKind) String() string {
	switch k {
	case PanelNone:
		return "none"
	case PanelOrderForm:
		return "order-form"
	case PanelDashboard:
		return "dashboard"
	case PanelSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// PanelMode is the active panel. EditingID is only meaningful for
// PanelOrderForm, where 0 means a new order.
type PanelMode struct {
	Kind      PanelKind
	EditingID int64
}

func (m PanelMode) OrderFormOpen() bool { return m.Kind == PanelOrderForm }
func (m PanelMode) DashboardOpen() bool { return m.Kind == PanelDashboard }
func (m PanelMode) SettingsOpen() bool  { return m.Kind == PanelSettings }

// State is one published snapshot. Slices and maps are shared between
// snapshots and must not be modified by readers.
type State struct {
	Version uint64

	Orders        []rpc.OrderSummary
	OrdersLoading bool
	OrdersLoaded  bool
	OrdersError   error

	Opened        []rpc.OpenedEntry
	OpenedLoaded  bool
	OpenedError   error
	ActiveOrderID int64

	Panel PanelMode

	// MutationError is the last failed optimistic write.
	MutationError error
	// InFlight counts unconfirmed writes per order id.
	InFlight map[int64]int

	Theme       rpc.ThemeDTO
	ThemeLoaded bool
	ThemeError  error

	// ordersFetchGen is the newest list request. ordersWriteEpoch moves on
	// every start and end of a write touching Orders.
	ordersFetchGen      uint64
	ordersWriteEpoch    uint64
	ordersWritesPending int
}

// OrderIndex returns the index of order id in Orders, or -1.
func (s State) OrderIndex(id int64) int {
	for i, o := range s.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// Order returns the summary for id.
func (s State) Order(id int64) (rpc.OrderSummary, bool) {
	if i := s.OrderIndex(id); i >= 0 {
		return s.Orders[i], true
	}
	return rpc.OrderSummary{}, false
}

// OpenedIndex returns the index of order id in Opened, or -1.
func (s State) OpenedIndex(id int64) int {
	for i, e := range s.Opened {
		if e.OrderID == id {
			return i
		}
	}
	return -1
}

func (s State) IsOpened(id int64) bool { return s.OpenedIndex(id) >= 0 }

// Saving reports whether a write for order id is still unconfirmed.
func (s State) Saving(id int64) bool { return s.InFlight[id] > 0 }

// clone copies every slice and map so the update function can mutate freely.
func (s State) clone() State {
	out := s
	if s.Orders != nil {
		out.Orders = append([]rpc.OrderSummary(nil), s.Orders...)
	}
	if s.Opened != nil {
		out.Opened = append([]rpc.OpenedEntry(nil), s.Opened...)
	}
	out.InFlight = make(map[int64]int, len(s.InFlight))
	for k, v := range s.InFlight {
		out.InFlight[k] = v
	}
	out.Theme = s.Theme.Clone()
	return out
}

func (s *State) beginFlight(id int64) {
	if id != 0 {
		s.InFlight[id]++
	}
}

func (s *State) endFlight(id int64) {
	if id == 0 {
		return
	}
	if s.InFlight[id] <= 1 {
		delete(s.InFlight, id)
		return
	}
	s.InFlight[id]--
}
