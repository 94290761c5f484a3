package ui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"ordertrack/internal/database"
	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
)

// cmdTimeout bounds one command in drain; ticks and blinks exceed it and are
// dropped.
const cmdTimeout = 200 * time.Millisecond

func newTestService(t *testing.T) *database.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return database.NewService(db, rpc.PolicyAppend)
}

func validInput(article string) rpc.OrderInput {
	return rpc.OrderInput{
		ClientName:      "Ana",
		ArticleName:     article,
		Phone:           "0600000000",
		City:            "Lyon",
		Address:         "1 rue A",
		DeliveryCompany: "DHL",
		DeliveryDate:    "2030-01-02",
	}
}

func mustSave(t *testing.T, svc rpc.Service, in rpc.OrderInput) int64 {
	t.Helper()
	id, err := svc.SaveOrder(context.Background(), in)
	require.NoError(t, err)
	return id
}

// newTestApp returns an app whose store subscription is already closed;
// tests push snapshots with sync instead.
func newTestApp(t *testing.T, svc rpc.Service) *AppModel {
	t.Helper()
	sess := session.New(svc, session.Options{Debounce: time.Millisecond})
	m := NewAppModel(context.Background(), sess, nil)
	m.Close()
	for range m.updates {
	}
	m.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// run feeds msg to the app, runs the resulting commands and finishes with
// a snapshot sync, repeating until nothing is left to do.
func run(t *testing.T, m *AppModel, msg tea.Msg) {
	t.Helper()
	drain(t, m.update(msg), m.update)
	syncSnapshot(t, m)
}

// syncSnapshot applies the latest snapshot and everything it triggers,
// until the store stops changing.
func syncSnapshot(t *testing.T, m *AppModel) {
	t.Helper()
	for i := 0; i < 10; i++ {
		st := m.Session.Store.Snapshot()
		drain(t, m.update(snapshotMsg{State: st}), m.update)
		if m.Session.Store.Snapshot().Version == st.Version {
			return
		}
	}
}

// drain runs cmd and every command its messages produce, delivering each
// message to deliver.
func drain(t *testing.T, cmd tea.Cmd, deliver func(tea.Msg) tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("drain: too many commands")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := runWithTimeout(next)
		if !ok || msg == nil {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case snapshotMsg, spinner.TickMsg, confettiDoneMsg, tea.QuitMsg:
			continue
		}
		queue = append(queue, deliver(msg))
	}
}

func runWithTimeout(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

// viewUpdater adapts a View for drain.
func viewUpdater(v View) func(tea.Msg) tea.Cmd {
	return func(msg tea.Msg) tea.Cmd {
		_, cmd := v.Update(msg)
		return cmd
	}
}

// typeText sends one key per rune.
func typeText(deliver func(tea.Msg) tea.Cmd, s string) []tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range s {
		cmds = append(cmds, deliver(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}))
	}
	return cmds
}
