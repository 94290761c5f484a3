package session

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

func newTestSession(t *testing.T, f *fakeService) *Session {
	t.Helper()
	return New(f, Options{Policy: f.policy})
}

func openedIDs(st state.State) []int64 {
	ids := make([]int64, 0, len(st.Opened))
	for _, e := range st.Opened {
		ids = append(ids, e.OrderID)
	}
	return ids
}

// validStack reports whether ids are unique and positions run 1..N.
func validStack(st state.State) bool {
	seen := map[int64]bool{}
	for i, e := range st.Opened {
		if seen[e.OrderID] || e.Position != i+1 {
			return false
		}
		seen[e.OrderID] = true
	}
	return true
}

func checkStack(t *testing.T, st state.State) {
	t.Helper()
	if !validStack(st) {
		t.Fatalf("invalid stack: %+v", st.Opened)
	}
}

func TestFetchAll(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "Lamp"})
	s := newTestSession(t, f)

	require.NoError(t, s.Orders.FetchAll(context.Background()))

	st := s.Store.Snapshot()
	require.False(t, st.OrdersLoading)
	require.True(t, st.OrdersLoaded)
	require.NoError(t, st.OrdersError)
	if diff := cmp.Diff([]rpc.OrderSummary{{ID: 1, ArticleName: "Lamp"}}, st.Orders); diff != "" {
		t.Errorf("Orders mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchAll_FailureKeepsPreviousList(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "Lamp"})
	s := newTestSession(t, f)
	require.NoError(t, s.Orders.FetchAll(context.Background()))

	var loadingDuringCall bool
	f.during[rpc.CmdListOrders] = func() { loadingDuringCall = s.Store.Snapshot().OrdersLoading }
	f.failOn(rpc.CmdListOrders, errRemote)

	err := s.Orders.FetchAll(context.Background())
	require.ErrorIs(t, err, errRemote)

	st := s.Store.Snapshot()
	require.True(t, loadingDuringCall, "loading flag not set during fetch")
	require.False(t, st.OrdersLoading)
	require.ErrorIs(t, st.OrdersError, errRemote)
	require.Len(t, st.Orders, 1)

	// Retry clears the error.
	f.failOn(rpc.CmdListOrders, nil)
	require.NoError(t, s.Orders.FetchAll(context.Background()))
	require.NoError(t, s.Store.Snapshot().OrdersError)
}

func TestSetDone_FailureRollsBack(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "Lamp", Done: false})
	s := newTestSession(t, f)
	require.NoError(t, s.Orders.FetchAll(context.Background()))

	var optimistic bool
	f.during[rpc.CmdSetOrderDone] = func() {
		o, _ := s.Store.Snapshot().Order(1)
		optimistic = o.Done
	}
	f.failOn(rpc.CmdSetOrderDone, errRemote)

	err := s.Orders.SetDone(context.Background(), 1, true)
	require.ErrorIs(t, err, errRemote)
	require.True(t, optimistic, "change was not visible before the remote call returned")

	st := s.Store.Snapshot()
	if diff := cmp.Diff([]rpc.OrderSummary{{ID: 1, ArticleName: "Lamp", Done: false}}, st.Orders); diff != "" {
		t.Errorf("Orders mismatch (-want +got):\n%s", diff)
	}
	require.ErrorIs(t, st.MutationError, errRemote)
	require.False(t, st.Saving(1))
}

func TestSetDone_Success(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "Lamp"})
	s := newTestSession(t, f)
	require.NoError(t, s.Orders.FetchAll(context.Background()))

	require.NoError(t, s.Orders.SetDone(context.Background(), 1, true))
	o, ok := s.Store.Snapshot().Order(1)
	require.True(t, ok)
	require.True(t, o.Done)
	require.Equal(t, 1, f.count(rpc.CmdListOrders), "set done should not refetch the list")
}

func TestOpen_ReopenDoesNotDuplicate(t *testing.T) {
	for _, policy := range []rpc.StackPolicy{rpc.PolicyAppend, rpc.PolicyMRU} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFake(
				rpc.OrderSummary{ID: 5, ArticleName: "Desk"},
				rpc.OrderSummary{ID: 7, ArticleName: "Chair"},
			)
			f.policy = policy
			s := newTestSession(t, f)
			require.NoError(t, s.Orders.FetchAll(context.Background()))

			// Every snapshot a subscriber sees must already be a valid stack.
			ch, cancel := s.Store.Subscribe()
			defer cancel()
			var bad []state.State
			observed := make(chan struct{})
			go func() {
				defer close(observed)
				for st := range ch {
					if !validStack(st) {
						bad = append(bad, st)
					}
				}
			}()

			ctx := context.Background()
			require.NoError(t, s.Stack.Open(ctx, 5))
			require.NoError(t, s.Stack.Open(ctx, 7))
			require.NoError(t, s.Stack.Open(ctx, 5))

			st := s.Store.Snapshot()
			require.Len(t, st.Opened, 2)
			checkStack(t, st)
			require.Equal(t, int64(5), st.ActiveOrderID)

			if diff := cmp.Diff([]int64{5, 7}, openedIDs(st)); diff != "" {
				t.Errorf("stack mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, 3, f.count(rpc.CmdGetOpenedOrders), "every open reconciles")

			cancel()
			<-observed
			for _, b := range bad {
				t.Errorf("invalid stack published at version %d: %+v", b.Version, b.Opened)
			}
		})
	}
}

func TestOpen_MRUPromotes(t *testing.T) {
	f := newFake(
		rpc.OrderSummary{ID: 1, ArticleName: "A"},
		rpc.OrderSummary{ID: 2, ArticleName: "B"},
		rpc.OrderSummary{ID: 3, ArticleName: "C"},
	)
	f.policy = rpc.PolicyMRU
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.Stack.Open(ctx, id))
	}
	require.Equal(t, []int64{3, 2, 1}, openedIDs(s.Store.Snapshot()))

	require.NoError(t, s.Stack.Open(ctx, 1))
	require.Equal(t, []int64{1, 3, 2}, openedIDs(s.Store.Snapshot()))
	checkStack(t, s.Store.Snapshot())
}

func TestOpen_AppendKeepsOrder(t *testing.T) {
	f := newFake(
		rpc.OrderSummary{ID: 1, ArticleName: "A"},
		rpc.OrderSummary{ID: 2, ArticleName: "B"},
	)
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))

	require.NoError(t, s.Stack.Open(ctx, 1))
	require.NoError(t, s.Stack.Open(ctx, 2))
	require.NoError(t, s.Stack.Open(ctx, 1))

	st := s.Store.Snapshot()
	require.Equal(t, []int64{1, 2}, openedIDs(st))
	require.Equal(t, "A", st.Opened[0].ArticleName)
	require.Equal(t, int64(1), st.ActiveOrderID)
}

func TestOpen_UnknownOrderUsesIDLabel(t *testing.T) {
	f := newFake()
	s := newTestSession(t, f)

	var label string
	f.during[rpc.CmdOpenOrder] = func() {
		st := s.Store.Snapshot()
		if len(st.Opened) == 1 {
			label = st.Opened[0].ArticleName
		}
	}
	require.NoError(t, s.Stack.Open(context.Background(), 42))
	require.Equal(t, "#42", label)
}

func TestOpen_FailureRevertsAndReconciles(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"}, rpc.OrderSummary{ID: 2, ArticleName: "B"})
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	require.NoError(t, s.Stack.Open(ctx, 1))

	f.failOn(rpc.CmdOpenOrder, errRemote)
	fetchesBefore := f.count(rpc.CmdGetOpenedOrders)

	err := s.Stack.Open(ctx, 2)
	require.ErrorIs(t, err, errRemote)

	st := s.Store.Snapshot()
	require.Equal(t, []int64{1}, openedIDs(st))
	require.Equal(t, int64(1), st.ActiveOrderID)
	require.ErrorIs(t, st.MutationError, errRemote)
	require.Equal(t, fetchesBefore+1, f.count(rpc.CmdGetOpenedOrders), "failed open still reconciles")
}

func TestClose(t *testing.T) {
	f := newFake(
		rpc.OrderSummary{ID: 1, ArticleName: "A"},
		rpc.OrderSummary{ID: 2, ArticleName: "B"},
		rpc.OrderSummary{ID: 3, ArticleName: "C"},
	)
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.Stack.Open(ctx, id))
	}

	require.NoError(t, s.Stack.Close(ctx, 2))
	st := s.Store.Snapshot()
	require.Equal(t, []int64{1, 3}, openedIDs(st))
	checkStack(t, st)
	require.Equal(t, int64(3), st.ActiveOrderID)

	// Closing the active order focuses the newest remaining one.
	require.NoError(t, s.Stack.Close(ctx, 3))
	st = s.Store.Snapshot()
	require.Equal(t, []int64{1}, openedIDs(st))
	require.Equal(t, int64(1), st.ActiveOrderID)
}

func TestClose_FailureRestoresEntry(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"}, rpc.OrderSummary{ID: 2, ArticleName: "B"})
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	require.NoError(t, s.Stack.Open(ctx, 1))
	require.NoError(t, s.Stack.Open(ctx, 2))

	f.failOn(rpc.CmdRemoveOpenedOrder, errRemote)
	var during []int64
	f.during[rpc.CmdRemoveOpenedOrder] = func() { during = openedIDs(s.Store.Snapshot()) }

	require.ErrorIs(t, s.Stack.Close(ctx, 1), errRemote)
	require.Equal(t, []int64{2}, during)

	st := s.Store.Snapshot()
	require.Equal(t, []int64{1, 2}, openedIDs(st))
	checkStack(t, st)
	require.Equal(t, int64(2), st.ActiveOrderID)
}

func TestFetchOpened_FailureKeepsStack(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"})
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Stack.Open(ctx, 1))

	f.failOn(rpc.CmdGetOpenedOrders, errRemote)
	require.ErrorIs(t, s.Stack.FetchOpened(ctx), errRemote)

	st := s.Store.Snapshot()
	require.Equal(t, []int64{1}, openedIDs(st))
	require.ErrorIs(t, st.OpenedError, errRemote)
}

func TestDelete_CascadesToStack(t *testing.T) {
	f := newFake(
		rpc.OrderSummary{ID: 1, ArticleName: "A"},
		rpc.OrderSummary{ID: 2, ArticleName: "B"},
		rpc.OrderSummary{ID: 3, ArticleName: "C"},
	)
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.Stack.Open(ctx, id))
	}

	// The list and the stack lose the order in the same published update.
	var duringOrders int
	var duringOpened []int64
	f.during[rpc.CmdDeleteOrder] = func() {
		st := s.Store.Snapshot()
		duringOrders = len(st.Orders)
		duringOpened = openedIDs(st)
	}

	require.NoError(t, s.Orders.Delete(ctx, 2))
	require.Equal(t, 2, duringOrders)
	require.Equal(t, []int64{1, 3}, duringOpened)

	st := s.Store.Snapshot()
	require.Equal(t, -1, st.OrderIndex(2))
	require.Equal(t, []int64{1, 3}, openedIDs(st))
	checkStack(t, st)
}

func TestDelete_FailureRestores(t *testing.T) {
	f := newFake(
		rpc.OrderSummary{ID: 1, ArticleName: "A"},
		rpc.OrderSummary{ID: 2, ArticleName: "B"},
		rpc.OrderSummary{ID: 3, ArticleName: "C"},
	)
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	require.NoError(t, s.Stack.Open(ctx, 2))
	require.NoError(t, s.Stack.Open(ctx, 3))
	before := s.Store.Snapshot()

	f.failOn(rpc.CmdDeleteOrder, errRemote)
	require.ErrorIs(t, s.Orders.Delete(ctx, 2), errRemote)

	st := s.Store.Snapshot()
	if diff := cmp.Diff(before.Orders, st.Orders); diff != "" {
		t.Errorf("Orders not restored (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before.Opened, st.Opened); diff != "" {
		t.Errorf("Opened not restored (-want +got):\n%s", diff)
	}
	require.Equal(t, before.ActiveOrderID, st.ActiveOrderID)
	require.ErrorIs(t, st.MutationError, errRemote)
}

func TestDelete_NotOpenedSkipsReconcile(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"})
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))

	require.NoError(t, s.Orders.Delete(ctx, 1))
	require.Equal(t, 0, f.count(rpc.CmdGetOpenedOrders))
	require.Empty(t, s.Store.Snapshot().Orders)
}

func TestDelete_ClosesFormEditingOrder(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"})
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	s.Panels.OpenOrderForm(1)

	require.NoError(t, s.Orders.Delete(ctx, 1))
	require.Equal(t, state.PanelMode{}, s.Store.Snapshot().Panel)
}

func TestSave(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "Old"})
	s := newTestSession(t, f)
	ctx := context.Background()
	require.NoError(t, s.Orders.FetchAll(ctx))
	require.NoError(t, s.Stack.Open(ctx, 1))

	input := rpc.OrderInput{
		ClientName: "Ana", ArticleName: "New", Phone: "1", City: "Split",
		Address: "Main 1", DeliveryCompany: "DHL", DeliveryDate: "2024-06-01",
	}

	s.Panels.OpenOrderForm(1)
	id, err := s.Orders.Save(ctx, 1, input)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	st := s.Store.Snapshot()
	require.Equal(t, state.PanelMode{}, st.Panel)
	o, _ := st.Order(1)
	require.Equal(t, "New", o.ArticleName)
	require.Equal(t, "New", st.Opened[0].ArticleName, "opened chip label refreshed")

	s.Panels.OpenOrderForm(0)
	newID, err := s.Orders.Save(ctx, 0, input)
	require.NoError(t, err)
	require.Equal(t, int64(101), newID)
	require.Len(t, s.Store.Snapshot().Orders, 2)
}

func TestSave_InvalidInputKeepsFormOpen(t *testing.T) {
	f := newFake()
	s := newTestSession(t, f)
	s.Panels.OpenOrderForm(0)

	_, err := s.Orders.Save(context.Background(), 0, rpc.OrderInput{ClientName: "Ana"})
	require.ErrorIs(t, err, rpc.ErrInvalidInput)
	require.Equal(t, 0, f.count(rpc.CmdSaveOrder))
	require.True(t, s.Store.Snapshot().Panel.OrderFormOpen())
}

func TestPanels_DashboardThenSettings(t *testing.T) {
	s := newTestSession(t, newFake())
	s.Panels.OpenDashboard()
	s.Panels.OpenSettings()

	mode := s.Store.Snapshot().Panel
	require.False(t, mode.DashboardOpen())
	require.True(t, mode.SettingsOpen())
	require.False(t, mode.OrderFormOpen())
}

func TestShowOrder_LeavesPanel(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"})
	s := newTestSession(t, f)
	s.Panels.OpenOrderForm(1)

	require.NoError(t, s.ShowOrder(context.Background(), 1))
	st := s.Store.Snapshot()
	require.Equal(t, state.PanelNone, st.Panel.Kind)
	require.Equal(t, int64(1), st.ActiveOrderID)
}

func TestStart_JoinsErrors(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1, ArticleName: "A"})
	f.failOn(rpc.CmdGetOpenedOrders, errRemote)
	s := newTestSession(t, f)

	err := s.Start(context.Background())
	require.ErrorIs(t, err, errRemote)

	st := s.Store.Snapshot()
	require.True(t, st.OrdersLoaded)
	require.True(t, st.ThemeLoaded)
	require.ErrorIs(t, st.OpenedError, errRemote)
}

func TestDismissError(t *testing.T) {
	f := newFake(rpc.OrderSummary{ID: 1})
	s := newTestSession(t, f)
	require.NoError(t, s.Orders.FetchAll(context.Background()))
	f.failOn(rpc.CmdSetOrderDone, errRemote)
	_ = s.Orders.SetDone(context.Background(), 1, true)
	require.Error(t, s.Store.Snapshot().MutationError)

	s.DismissError()
	require.NoError(t, s.Store.Snapshot().MutationError)
}
