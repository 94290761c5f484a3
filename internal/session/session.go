// Package session wires the managers that keep the local mirror of orders,
// the opened stack and the panel mode in step with the order service. One
// Session exists per running client; views receive it explicitly.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"ordertrack/internal/lookup"
	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

// Options configures New.
type Options struct {
	Policy   rpc.StackPolicy
	Debounce time.Duration
	Cities   CitySearcher
	Logger   *slog.Logger
}

// Session owns the store and every manager that writes to it.
type Session struct {
	Store     *state.Store
	Panels    *state.Panels
	Orders    *Collection
	Stack     *Stack
	Theme     *Theme
	Settings  *Settings
	Companies *Companies
	Form      *Form
	// Detail loads the full record of the active order; only the newest
	// request may be shown.
	Detail *lookup.Lookup[int64, rpc.OrderDetail]

	svc    rpc.Service
	logger *slog.Logger
}

// New builds a session around svc with an empty store.
func New(svc rpc.Service, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = lookup.DefaultDelay
	}

	store := state.NewStore(state.State{Theme: rpc.DefaultTheme()})
	panels := state.NewPanels(store)
	stack := NewStack(store, svc, opts.Policy, logger)

	return &Session{
		Store:     store,
		Panels:    panels,
		Orders:    NewCollection(store, svc, stack, panels, logger),
		Stack:     stack,
		Theme:     NewTheme(store, svc, logger),
		Settings:  NewSettings(svc, logger),
		Companies: NewCompanies(svc, logger),
		Form:      NewForm(svc, opts.Cities, debounce),
		Detail: lookup.New[int64, rpc.OrderDetail](0, func(ctx context.Context, id int64) (rpc.OrderDetail, error) {
			return svc.GetOrder(ctx, id)
		}),
		svc:    svc,
		logger: logger,
	}
}

// Start performs the initial loads. Every load is attempted; the joined
// errors are returned and also recorded in state.
func (s *Session) Start(ctx context.Context) error {
	return errors.Join(
		s.Orders.FetchAll(ctx),
		s.Stack.FetchOpened(ctx),
		s.Theme.Load(ctx),
	)
}

// ShowOrder leaves any panel and focuses id in the opened stack.
func (s *Session) ShowOrder(ctx context.Context, id int64) error {
	s.Panels.ShowContent()
	return s.Stack.Open(ctx, id)
}

// DismissError clears the last mutation error.
func (s *Session) DismissError() {
	s.Store.UpdateIf(func(st *state.State) bool {
		if st.MutationError == nil {
			return false
		}
		st.MutationError = nil
		return true
	})
}

// Dashboard fetches the aggregate dashboard payload.
func (s *Session) Dashboard(ctx context.Context) (rpc.DashboardData, error) {
	d, err := s.svc.GetDashboardData(ctx)
	if err != nil {
		s.logger.Warn("load dashboard failed", "command", rpc.CmdGetDashboardData, "error", err)
	}
	return d, err
}

// Service exposes the underlying command surface.
func (s *Session) Service() rpc.Service { return s.svc }
