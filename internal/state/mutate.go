package state

import (
	"context"
	"fmt"
)

// Mutation describes one optimistic write. S is whatever Apply needs to hand
// to Revert.
type Mutation[S any] struct {
	// Name prefixes the recorded error.
	Name string
	// OrderID is marked in-flight until the remote call returns. 0 skips it.
	OrderID int64
	// TouchesOrders marks writes to the order list. List responses that
	// overlap such a write are treated as stale.
	TouchesOrders bool

	// Apply changes the state locally and returns the undo snapshot. It
	// reports false when nothing changed; Revert is then skipped.
	Apply func(*State) (S, bool)
	// Remote performs the write on the service.
	Remote func(context.Context) error
	// Revert restores the state after a failed Remote.
	Revert func(*State, S)

	// Reconcile refreshes state from the service after Remote succeeds.
	Reconcile func(context.Context) error
	// AlwaysReconcile also runs Reconcile after a failure.
	AlwaysReconcile bool
}

// Mutate applies m locally, publishes the change, then confirms it remotely.
// On failure the change is reverted and the error recorded in the same
// update. The returned error is the remote error, or the reconcile error when
// the remote call succeeded.
func Mutate[S any](ctx context.Context, store *Store, m Mutation[S]) error {
	var (
		snap    S
		applied bool
	)
	store.Update(func(st *State) {
		if m.Apply != nil {
			snap, applied = m.Apply(st)
		}
		st.beginFlight(m.OrderID)
		if m.TouchesOrders {
			st.beginOrdersWrite()
		}
	})

	if err := m.Remote(ctx); err != nil {
		err = fmt.Errorf("%s: %w", m.Name, err)
		store.Update(func(st *State) {
			if applied && m.Revert != nil {
				m.Revert(st, snap)
			}
			st.MutationError = err
			st.endFlight(m.OrderID)
			if m.TouchesOrders {
				st.endOrdersWrite()
			}
		})
		if m.AlwaysReconcile && m.Reconcile != nil {
			_ = m.Reconcile(ctx)
		}
		return err
	}

	store.Update(func(st *State) {
		st.MutationError = nil
		st.endFlight(m.OrderID)
		if m.TouchesOrders {
			st.endOrdersWrite()
		}
	})
	if m.Reconcile != nil {
		return m.Reconcile(ctx)
	}
	return nil
}
