package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"ordertrack/internal/jsonutil"
	"ordertrack/internal/rpc"
)

const (
	themeBaseKey     = "base"
	themeConfettiKey = "confetti"
)

// ThemeRepo stores the theme as rows: the base, one row per colour token and
// the confetti palette as a JSON array.
type ThemeRepo struct {
	db *sql.DB
}

func NewThemeRepo(db *sql.DB) *ThemeRepo {
	return &ThemeRepo{db: db}
}

// Get returns nil when no theme was ever saved. A custom theme without a
// saved palette reports the default custom palette.
func (r *ThemeRepo) Get(ctx context.Context) (*rpc.ThemeDTO, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM theme`)
	if err != nil {
		return nil, err
	}
	kv, err := collect(rows, func(rows *sql.Rows) ([2]string, error) {
		var p [2]string
		err := rows.Scan(&p[0], &p[1])
		return p, err
	})
	if err != nil {
		return nil, err
	}
	if len(kv) == 0 {
		return nil, nil
	}

	t := rpc.ThemeDTO{Base: rpc.ThemeLight, Colors: map[string]string{}}
	for _, p := range kv {
		key := strings.ToLower(p[0])
		switch {
		case key == themeBaseKey:
			t.Base = rpc.ParseBaseTheme(p[1])
		case strings.HasPrefix(key, themeConfettiKey):
		default:
			t.Colors[p[0]] = p[1]
		}
	}
	t.ConfettiColors = parseConfetti(kv)
	if len(t.ConfettiColors) == 0 && t.Base == rpc.ThemeCustom {
		t.ConfettiColors = append([]string(nil), rpc.DefaultCustomConfetti...)
	}
	return &t, nil
}

// Save replaces the stored theme. An empty palette is not stored.
func (r *ThemeRepo) Save(ctx context.Context, t rpc.ThemeDTO) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM theme`); err != nil {
			return err
		}
		put := func(k, v string) error {
			_, err := tx.ExecContext(ctx, `
			INSERT INTO theme (key, value, updated_at)
			VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))`, k, v)
			return err
		}
		if err := put(themeBaseKey, string(rpc.ParseBaseTheme(string(t.Base)))); err != nil {
			return err
		}
		for k, v := range t.Colors {
			lk := strings.ToLower(k)
			if lk == themeBaseKey || strings.HasPrefix(lk, themeConfettiKey) {
				continue
			}
			if err := put(k, v); err != nil {
				return err
			}
		}
		if cleaned := rpc.CleanConfetti(t.ConfettiColors); len(cleaned) > 0 {
			b, err := json.Marshal(cleaned)
			if err != nil {
				return err
			}
			return put(themeConfettiKey, string(b))
		}
		return nil
	})
}

// Palette is the effective confetti palette.
func (r *ThemeRepo) Palette(ctx context.Context) ([]string, error) {
	t, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return []string{"#000000"}, nil
	}
	return t.EffectiveConfetti(), nil
}

// parseConfetti reads the JSON palette row, falling back to the older
// confetti1..confetti5 rows.
func parseConfetti(kv [][2]string) []string {
	for _, p := range kv {
		if strings.EqualFold(p[0], themeConfettiKey) {
			if colors, err := jsonutil.UnmarshalArrayAllowEmpty[string]([]byte(p[1]), "theme confetti"); err == nil {
				return rpc.CleanConfetti(colors)
			}
		}
	}

	type indexed struct {
		i int
		v string
	}
	var legacy []indexed
	for _, p := range kv {
		key := strings.ToLower(p[0])
		if !strings.HasPrefix(key, themeConfettiKey) {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(key, themeConfettiKey))
		if err != nil {
			continue
		}
		legacy = append(legacy, indexed{i, p[1]})
	}
	sort.Slice(legacy, func(a, b int) bool { return legacy[a].i < legacy[b].i })
	colors := make([]string, 0, len(legacy))
	for _, l := range legacy {
		colors = append(colors, l.v)
	}
	return rpc.CleanConfetti(colors)
}
