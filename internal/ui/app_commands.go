package ui

import (
	"context"
	"errors"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ordertrack/internal/rpc"
	"ordertrack/internal/session"
	"ordertrack/internal/state"
)

// confettiDuration is how long the celebration line stays up.
const confettiDuration = 1500 * time.Millisecond

// waitForSnapshot blocks until the store publishes. A closed subscription
// yields no message, which ends the loop.
func waitForSnapshot(ch <-chan state.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{State: st}
	}
}

func startCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{Err: s.Start(ctx)}
	}
}

func openOrderCmd(ctx context.Context, s *session.Session, id int64) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{Op: "open", ID: id, Err: s.ShowOrder(ctx, id)}
	}
}

func closeOrderCmd(ctx context.Context, s *session.Session, id int64) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{Op: "close", ID: id, Err: s.Stack.Close(ctx, id)}
	}
}

func setDoneCmd(ctx context.Context, s *session.Session, id int64, done bool) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{Op: "done", ID: id, Done: done, Err: s.Orders.SetDone(ctx, id, done)}
	}
}

func deleteOrderCmd(ctx context.Context, s *session.Session, id int64) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{Op: "delete", ID: id, Err: s.Orders.Delete(ctx, id)}
	}
}

func saveOrderCmd(ctx context.Context, s *session.Session, editingID int64, in rpc.OrderInput) tea.Cmd {
	return func() tea.Msg {
		id, err := s.Orders.Save(ctx, editingID, in)
		return orderSavedMsg{EditingID: editingID, ID: id, Err: err}
	}
}

// loadDetailCmd starts a detail lookup for id. Begin runs before the command
// is returned so the newest request is known immediately.
func loadDetailCmd(ctx context.Context, s *session.Session, id int64) tea.Cmd {
	ticket := s.Detail.Begin(ctx, id)
	return func() tea.Msg {
		return detailLoadedMsg{Result: s.Detail.Run(ticket)}
	}
}

func loadFormDetailCmd(ctx context.Context, s *session.Session, id int64) tea.Cmd {
	return func() tea.Msg {
		d, err := s.Service().GetOrder(ctx, id)
		return formDetailMsg{ID: id, Detail: d, Err: err}
	}
}

func loadPrefsCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		p, err := s.Settings.Preferences(ctx)
		return prefsLoadedMsg{Prefs: p, Err: err}
	}
}

func loadCompaniesCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		c, err := s.Companies.List(ctx)
		return companiesLoadedMsg{Companies: c, Err: err}
	}
}

func loadDashboardCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		d, err := s.Dashboard(ctx)
		return dashboardLoadedMsg{Data: d, Err: err}
	}
}

func articleSuggestCmd(ctx context.Context, f *session.Form, query string) tea.Cmd {
	ticket := f.Articles.Begin(ctx, query)
	return func() tea.Msg {
		return suggestionsMsg{Field: fieldArticle, Result: f.Articles.Run(ticket)}
	}
}

func citySuggestCmd(ctx context.Context, f *session.Form, query string) tea.Cmd {
	ticket := f.Cities.Begin(ctx, query)
	return func() tea.Msg {
		return suggestionsMsg{Field: fieldCity, Result: f.Cities.Run(ticket)}
	}
}

func descriptionCmd(ctx context.Context, f *session.Form, article string) tea.Cmd {
	ticket := f.Descriptions.Begin(ctx, article)
	return func() tea.Msg {
		return descriptionMsg{Result: f.Descriptions.Run(ticket)}
	}
}

func paletteCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return confettiMsg{Palette: s.Theme.ConfettiPalette(ctx)}
	}
}

func confettiTimeoutCmd() tea.Cmd {
	return tea.Tick(confettiDuration, func(t time.Time) tea.Msg {
		return confettiDoneMsg(t)
	})
}

// saveSettingsCmd persists the theme first, then every preference. All
// writes are attempted.
func saveSettingsCmd(ctx context.Context, s *session.Session, theme rpc.ThemeDTO, prefs session.Preferences) tea.Cmd {
	return func() tea.Msg {
		err := errors.Join(
			s.Theme.Save(ctx, theme),
			s.Settings.Set(ctx, rpc.SettingTheme, string(theme.Base)),
			s.Settings.Set(ctx, rpc.SettingDefaultCity, prefs.DefaultCity),
			s.Settings.Set(ctx, rpc.SettingDefaultDeliveryCompany, prefs.DefaultDeliveryCompany),
			s.Settings.Set(ctx, rpc.SettingConfettiOnDone, strconv.FormatBool(prefs.ConfettiOnDone)),
		)
		return settingsSavedMsg{Err: err}
	}
}

func addCompanyCmd(ctx context.Context, s *session.Session, name string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Companies.Add(ctx, name)
		return companyChangedMsg{Err: err}
	}
}

func renameCompanyCmd(ctx context.Context, s *session.Session, id int64, name string) tea.Cmd {
	return func() tea.Msg {
		return companyChangedMsg{Err: s.Companies.Rename(ctx, id, name)}
	}
}

func setCompanyActiveCmd(ctx context.Context, s *session.Session, id int64, active bool) tea.Cmd {
	return func() tea.Msg {
		return companyChangedMsg{Err: s.Companies.SetActive(ctx, id, active)}
	}
}
