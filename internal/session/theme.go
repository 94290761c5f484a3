package session

import (
	"context"
	"log/slog"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
)

// Theme loads and saves the colour theme held in state.
type Theme struct {
	store  *state.Store
	svc    rpc.Service
	logger *slog.Logger
}

func NewTheme(store *state.Store, svc rpc.Service, logger *slog.Logger) *Theme {
	return &Theme{store: store, svc: svc, logger: logger}
}

// Load fetches the saved theme. An unsaved theme becomes rpc.DefaultTheme.
func (t *Theme) Load(ctx context.Context) error {
	dto, err := t.svc.GetThemeColors(ctx)
	if err != nil {
		t.logger.Warn("load theme failed", "command", rpc.CmdGetThemeColors, "error", err)
		t.store.Update(func(st *state.State) {
			st.ThemeError = err
		})
		return err
	}

	theme := rpc.DefaultTheme()
	if dto != nil {
		theme = dto.Clone()
		if theme.Colors == nil {
			theme.Colors = map[string]string{}
		}
	}
	t.store.Update(func(st *state.State) {
		st.Theme = theme
		st.ThemeLoaded = true
		st.ThemeError = nil
	})
	return nil
}

// Save applies theme immediately and persists it; a failure restores the
// previous theme.
func (t *Theme) Save(ctx context.Context, theme rpc.ThemeDTO) error {
	theme = theme.Clone()
	theme.ConfettiColors = rpc.CleanConfetti(theme.ConfettiColors)

	err := state.Mutate(ctx, t.store, state.Mutation[rpc.ThemeDTO]{
		Name: "save theme",
		Apply: func(st *state.State) (rpc.ThemeDTO, bool) {
			prev := st.Theme
			st.Theme = theme
			return prev, true
		},
		Remote: func(ctx context.Context) error {
			return t.svc.SaveThemeColors(ctx, theme)
		},
		Revert: func(st *state.State, prev rpc.ThemeDTO) {
			st.Theme = prev
		},
	})
	if err != nil {
		t.logger.Warn("save theme failed", "command", rpc.CmdSaveThemeColors, "error", err)
	}
	return err
}

// ConfettiPalette returns the service's effective palette, or one derived
// from the local theme when the service cannot answer.
func (t *Theme) ConfettiPalette(ctx context.Context) []string {
	palette, err := t.svc.GetConfettiPalette(ctx)
	if err != nil || len(palette) == 0 {
		if err != nil {
			t.logger.Debug("confetti palette unavailable", "error", err)
		}
		return t.store.Snapshot().Theme.EffectiveConfetti()
	}
	return palette
}
