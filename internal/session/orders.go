package session

import (
	"context"
	"log/slog"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

// Collection manages the order list.
type Collection struct {
	store  *state.Store
	svc    rpc.Service
	stack  *Stack
	panels *state.Panels
	logger *slog.Logger
}

func NewCollection(store *state.Store, svc rpc.Service, stack *Stack, panels *state.Panels, logger *slog.Logger) *Collection {
	return &Collection{store: store, svc: svc, stack: stack, panels: panels, logger: logger}
}

// maxListAttempts bounds how often FetchAll re-reads a list that overlapped
// an order write.
const maxListAttempts = 3

// FetchAll reloads the order list. A failure keeps the previous list and
// sets OrdersError. Only the newest of overlapping fetches is applied, and a
// response that overlapped an order write is read again.
func (c *Collection) FetchAll(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		var fetch state.OrdersFetch
		c.store.Update(func(st *state.State) {
			fetch = st.BeginOrdersFetch()
		})

		orders, err := c.svc.ListOrders(ctx)
		if err != nil {
			c.logger.Warn("fetch orders failed", "command", rpc.CmdListOrders, "error", err)
		}

		var outcome state.FetchOutcome
		retry := false
		c.store.Update(func(st *state.State) {
			outcome = st.FinishOrdersFetch(fetch)
			if outcome == state.FetchSuperseded {
				return
			}
			if outcome == state.FetchStale && err == nil && attempt < maxListAttempts {
				retry = true
				return
			}
			st.OrdersLoading = false
			switch {
			case err != nil:
				st.OrdersError = err
			case outcome == state.FetchCurrent:
				st.Orders = orders
				st.OrdersLoaded = true
				st.OrdersError = nil
			}
		})

		if retry {
			c.logger.Debug("order list overlapped a write, fetching again", "command", rpc.CmdListOrders, "attempt", attempt)
			continue
		}
		if err == nil && outcome != state.FetchCurrent {
			c.logger.Debug("order list response dropped", "command", rpc.CmdListOrders, "outcome", outcome)
		}
		return err
	}
}

type deleteUndo struct {
	order      rpc.OrderSummary
	orderIndex int
	hadOrder   bool
	entry      rpc.OpenedEntry
	entryIndex int
	hadEntry   bool
	prevActive int64
	newActive  int64
}

// Delete removes the order and its opened entry in one update, then deletes
// it remotely. A failed delete puts both back where they were.
func (c *Collection) Delete(ctx context.Context, id int64) error {
	var wasOpened bool
	err := state.Mutate(ctx, c.store, state.Mutation[deleteUndo]{
		Name:          "delete order",
		OrderID:       id,
		TouchesOrders: true,
		Apply: func(st *state.State) (deleteUndo, bool) {
			undo := deleteUndo{prevActive: st.ActiveOrderID}
			if i := st.OrderIndex(id); i >= 0 {
				undo.order, undo.orderIndex, undo.hadOrder = st.Orders[i], i, true
				st.Orders = append(st.Orders[:i:i], st.Orders[i+1:]...)
			}
			if i := st.OpenedIndex(id); i >= 0 {
				undo.entry, undo.entryIndex, undo.hadEntry = st.Opened[i], i, true
				st.Opened = removeAt(st.Opened, i)
			}
			if st.ActiveOrderID == id {
				st.ActiveOrderID = newestEntry(st.Opened, c.stack.Policy())
			}
			undo.newActive = st.ActiveOrderID
			if st.Panel.OrderFormOpen() && st.Panel.EditingID == id {
				st.Panel = state.PanelMode{}
			}
			wasOpened = undo.hadEntry
			return undo, undo.hadOrder || undo.hadEntry
		},
		Remote: func(ctx context.Context) error {
			return c.svc.DeleteOrder(ctx, id)
		},
		Revert: func(st *state.State, undo deleteUndo) {
			if undo.hadOrder && st.OrderIndex(id) < 0 {
				i := undo.orderIndex
				if i > len(st.Orders) {
					i = len(st.Orders)
				}
				orders := make([]rpc.OrderSummary, 0, len(st.Orders)+1)
				orders = append(orders, st.Orders[:i]...)
				orders = append(orders, undo.order)
				st.Orders = append(orders, st.Orders[i:]...)
			}
			if undo.hadEntry && !st.IsOpened(id) {
				st.Opened = insertAt(st.Opened, undo.entryIndex, undo.entry)
			}
			if st.ActiveOrderID == undo.newActive {
				st.ActiveOrderID = undo.prevActive
			}
		},
		Reconcile: func(ctx context.Context) error {
			if !wasOpened {
				return nil
			}
			return c.stack.FetchOpened(ctx)
		},
	})
	if err != nil {
		c.logger.Warn("delete order failed", "command", rpc.CmdDeleteOrder, "order_id", id, "error", err)
	}
	return err
}

// SetDone flips the done flag locally, then on the service. A failure restores
// the previous flag.
func (c *Collection) SetDone(ctx context.Context, id int64, done bool) error {
	err := state.Mutate(ctx, c.store, state.Mutation[bool]{
		Name:          "set order done",
		OrderID:       id,
		TouchesOrders: true,
		Apply: func(st *state.State) (bool, bool) {
			i := st.OrderIndex(id)
			if i < 0 {
				return false, false
			}
			prev := st.Orders[i].Done
			st.Orders[i].Done = done
			return prev, true
		},
		Remote: func(ctx context.Context) error {
			return c.svc.SetOrderDone(ctx, id, done)
		},
		Revert: func(st *state.State, prev bool) {
			if i := st.OrderIndex(id); i >= 0 {
				st.Orders[i].Done = prev
			}
		},
	})
	if err != nil {
		c.logger.Warn("set order done failed", "command", rpc.CmdSetOrderDone, "order_id", id, "error", err)
	}
	return err
}

// Save creates (editingID 0) or updates an order, reloads the list and
// closes the form. The form stays open on failure.
func (c *Collection) Save(ctx context.Context, editingID int64, in rpc.OrderInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}

	id := editingID
	if editingID == 0 {
		newID, err := c.svc.SaveOrder(ctx, in)
		if err != nil {
			c.logger.Warn("save order failed", "command", rpc.CmdSaveOrder, "error", err)
			return 0, err
		}
		id = newID
	} else if err := c.svc.UpdateOrder(ctx, editingID, in); err != nil {
		c.logger.Warn("update order failed", "command", rpc.CmdUpdateOrder, "order_id", editingID, "error", err)
		return 0, err
	}

	_ = c.FetchAll(ctx)
	if editingID != 0 && c.store.Snapshot().IsOpened(editingID) {
		_ = c.stack.FetchOpened(ctx)
	}
	c.panels.CloseOrderForm()
	return id, nil
}
