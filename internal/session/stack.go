package session

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

// Stack manages the opened-orders navigation stack. Every write ends with a
// FetchOpened so the service's ordering wins.
type Stack struct {
	store  *state.Store
	svc    rpc.Service
	policy rpc.StackPolicy
	logger *slog.Logger
}

func NewStack(store *state.Store, svc rpc.Service, policy rpc.StackPolicy, logger *slog.Logger) *Stack {
	if policy == "" {
		policy = rpc.PolicyAppend
	}
	return &Stack{store: store, svc: svc, policy: policy, logger: logger}
}

// Policy returns the reopen behaviour in use.
func (s *Stack) Policy() rpc.StackPolicy { return s.policy }

type openUndo struct {
	added      bool
	prevIndex  int
	prevActive int64
}

// Open adds id to the stack (or focuses it) and makes it the active order.
func (s *Stack) Open(ctx context.Context, id int64) error {
	return state.Mutate(ctx, s.store, state.Mutation[openUndo]{
		Name:    "open order",
		OrderID: id,
		Apply: func(st *state.State) (openUndo, bool) {
			undo := openUndo{prevIndex: st.OpenedIndex(id), prevActive: st.ActiveOrderID}
			undo.added = undo.prevIndex < 0
			st.Opened = openEntry(st.Opened, rpc.OpenedEntry{OrderID: id, ArticleName: labelFor(st, id)}, s.policy)
			st.ActiveOrderID = id
			return undo, true
		},
		Remote: func(ctx context.Context) error {
			return s.svc.OpenOrder(ctx, id)
		},
		Revert: func(st *state.State, undo openUndo) {
			idx := st.OpenedIndex(id)
			if idx >= 0 {
				if undo.added {
					st.Opened = removeAt(st.Opened, idx)
				} else if idx != undo.prevIndex {
					e := st.Opened[idx]
					st.Opened = insertAt(removeAt(st.Opened, idx), undo.prevIndex, e)
				}
			}
			if st.ActiveOrderID == id {
				st.ActiveOrderID = undo.prevActive
			}
		},
		Reconcile:       s.FetchOpened,
		AlwaysReconcile: true,
	})
}

type closeUndo struct {
	entry      rpc.OpenedEntry
	index      int
	prevActive int64
	newActive  int64
}

// Close removes id from the stack. If it was the active order, focus moves to
// the newest remaining entry.
func (s *Stack) Close(ctx context.Context, id int64) error {
	return state.Mutate(ctx, s.store, state.Mutation[closeUndo]{
		Name:    "close order",
		OrderID: id,
		Apply: func(st *state.State) (closeUndo, bool) {
			idx := st.OpenedIndex(id)
			if idx < 0 {
				return closeUndo{}, false
			}
			undo := closeUndo{entry: st.Opened[idx], index: idx, prevActive: st.ActiveOrderID}
			st.Opened = removeAt(st.Opened, idx)
			if st.ActiveOrderID == id {
				st.ActiveOrderID = newestEntry(st.Opened, s.policy)
			}
			undo.newActive = st.ActiveOrderID
			return undo, true
		},
		Remote: func(ctx context.Context) error {
			return s.svc.RemoveOpenedOrder(ctx, id)
		},
		Revert: func(st *state.State, undo closeUndo) {
			if !st.IsOpened(id) {
				st.Opened = insertAt(st.Opened, undo.index, undo.entry)
			}
			if st.ActiveOrderID == undo.newActive {
				st.ActiveOrderID = undo.prevActive
			}
		},
		Reconcile:       s.FetchOpened,
		AlwaysReconcile: true,
	})
}

// FetchOpened replaces the stack with the service's copy. On failure the
// current stack stays and OpenedError is set.
func (s *Stack) FetchOpened(ctx context.Context) error {
	entries, err := s.svc.GetOpenedOrders(ctx)
	if err != nil {
		s.logger.Warn("fetch opened orders failed", "command", rpc.CmdGetOpenedOrders, "error", err)
		s.store.Update(func(st *state.State) {
			st.OpenedError = err
		})
		return err
	}

	entries = canonical(entries)
	s.store.Update(func(st *state.State) {
		st.Opened = entries
		st.OpenedLoaded = true
		st.OpenedError = nil
		if st.ActiveOrderID != 0 && !st.IsOpened(st.ActiveOrderID) {
			st.ActiveOrderID = newestEntry(st.Opened, s.policy)
		}
	})
	return nil
}

// Activate focuses an order that is already in the stack without a round
// trip. It reports false when id is not opened.
func (s *Stack) Activate(id int64) bool {
	_, ok := s.store.UpdateIf(func(st *state.State) bool {
		if !st.IsOpened(id) || st.ActiveOrderID == id {
			return false
		}
		st.ActiveOrderID = id
		return true
	})
	return ok
}

// labelFor names a new chip from the known summary, or "#id" before the
// list has loaded.
func labelFor(st *state.State, id int64) string {
	if o, ok := st.Order(id); ok && o.ArticleName != "" {
		return o.ArticleName
	}
	return "#" + strconv.FormatInt(id, 10)
}

// openEntry returns entries with e opened according to policy, renumbered.
func openEntry(entries []rpc.OpenedEntry, e rpc.OpenedEntry, policy rpc.StackPolicy) []rpc.OpenedEntry {
	idx := -1
	for i := range entries {
		if entries[i].OrderID == e.OrderID {
			idx = i
			break
		}
	}

	switch {
	case idx >= 0 && policy == rpc.PolicyMRU:
		existing := entries[idx]
		return insertAt(removeAt(entries, idx), 0, existing)
	case idx >= 0:
		return entries
	case policy == rpc.PolicyMRU:
		return insertAt(entries, 0, e)
	default:
		return insertAt(entries, len(entries), e)
	}
}

// newestEntry is the entry that most recently joined the stack.
func newestEntry(entries []rpc.OpenedEntry, policy rpc.StackPolicy) int64 {
	if len(entries) == 0 {
		return 0
	}
	if policy == rpc.PolicyMRU {
		return entries[0].OrderID
	}
	return entries[len(entries)-1].OrderID
}

// canonical sorts by position, drops repeated ids and renumbers 1..N.
func canonical(entries []rpc.OpenedEntry) []rpc.OpenedEntry {
	sorted := append([]rpc.OpenedEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	out := make([]rpc.OpenedEntry, 0, len(sorted))
	seen := make(map[int64]bool, len(sorted))
	for _, e := range sorted {
		if seen[e.OrderID] {
			continue
		}
		seen[e.OrderID] = true
		out = append(out, e)
	}
	renumber(out)
	return out
}

func removeAt(entries []rpc.OpenedEntry, idx int) []rpc.OpenedEntry {
	out := make([]rpc.OpenedEntry, 0, len(entries))
	out = append(out, entries[:idx]...)
	out = append(out, entries[idx+1:]...)
	renumber(out)
	return out
}

func insertAt(entries []rpc.OpenedEntry, idx int, e rpc.OpenedEntry) []rpc.OpenedEntry {
	if idx < 0 {
		idx = 0
	}
	if idx > len(entries) {
		idx = len(entries)
	}
	out := make([]rpc.OpenedEntry, 0, len(entries)+1)
	out = append(out, entries[:idx]...)
	out = append(out, e)
	out = append(out, entries[idx:]...)
	renumber(out)
	return out
}

func renumber(entries []rpc.OpenedEntry) {
	for i := range entries {
		entries[i].Position = i + 1
	}
}
