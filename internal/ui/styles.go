package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"ordertrack/internal/rpc"
)

// Colour tokens understood in a saved theme.
const (
	TokenText      = "text"
	TokenTextMuted = "textMuted"
	TokenBorder    = "border"
	TokenPrimary   = "primary"
	TokenDanger    = "danger"
	TokenWarning   = "warning"
	TokenSuccess   = "success"
)

var lightPalette = map[string]string{
	TokenText:      "#111111",
	TokenTextMuted: "#555555",
	TokenBorder:    "#000000",
	TokenPrimary:   "#111111",
	TokenDanger:    "#cc0000",
	TokenWarning:   "#f59e0b",
	TokenSuccess:   "#10b981",
}

var darkPalette = map[string]string{
	TokenText:      "#f5f7fa",
	TokenTextMuted: "#c3c7cf",
	TokenBorder:    "#2a2f3a",
	TokenPrimary:   "#f5f7fa",
	TokenDanger:    "#ff6b6b",
	TokenWarning:   "#fbbf24",
	TokenSuccess:   "#34d399",
}

// Palette resolves every token for theme. Custom themes start from the light
// palette and override whatever tokens they carry.
func Palette(theme rpc.ThemeDTO) map[string]string {
	base := lightPalette
	if theme.Base == rpc.ThemeDark {
		base = darkPalette
	}
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	if theme.Base == rpc.ThemeCustom {
		for k, v := range theme.Colors {
			if _, known := out[k]; known && v != "" {
				out[k] = v
			}
		}
	}
	return out
}

// Styles contains shared style definitions used across views and modals.
type Styles struct {
	Title        lipgloss.Style // bold primary
	TitleWarning lipgloss.Style // bold danger

	Box        lipgloss.Style // rounded border, padded
	BoxDanger  lipgloss.Style // danger border
	BoxCompact lipgloss.Style // tight padding, for bars and lists

	Selected lipgloss.Style
	Muted    lipgloss.Style
	Normal   lipgloss.Style
	Success  lipgloss.Style
	Danger   lipgloss.Style
	Details  lipgloss.Style // warning colour
	Empty    lipgloss.Style // muted italic

	Chip       lipgloss.Style
	ChipActive lipgloss.Style
}

// NewStyles derives the style set from a theme.
func NewStyles(theme rpc.ThemeDTO) Styles {
	p := Palette(theme)
	c := func(token string) lipgloss.Color { return lipgloss.Color(p[token]) }

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(TokenPrimary)),
		TitleWarning: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(TokenDanger)),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(TokenBorder)).
			Padding(1, 2).
			Margin(1),
		BoxDanger: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(TokenDanger)).
			Padding(1, 2).
			Margin(1),
		BoxCompact: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(TokenBorder)).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Foreground(c(TokenPrimary)).
			Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(c(TokenTextMuted)),
		Normal:  lipgloss.NewStyle().Foreground(c(TokenText)),
		Success: lipgloss.NewStyle().Foreground(c(TokenSuccess)),
		Danger:  lipgloss.NewStyle().Foreground(c(TokenDanger)),
		Details: lipgloss.NewStyle().Foreground(c(TokenWarning)),
		Empty: lipgloss.NewStyle().
			Foreground(c(TokenTextMuted)).
			Italic(true),
		Chip: lipgloss.NewStyle().
			Foreground(c(TokenTextMuted)).
			Padding(0, 1),
		ChipActive: lipgloss.NewStyle().
			Foreground(c(TokenPrimary)).
			Bold(true).
			Underline(true).
			Padding(0, 1),
	}
}

// NewCompactListDelegate returns a list delegate with zero spacing and the
// given styles.
func NewCompactListDelegate(s Styles) list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.SetSpacing(0)
	d.ShowDescription = false
	d.Styles.SelectedTitle = s.Selected
	d.Styles.SelectedDesc = s.Selected
	d.Styles.NormalTitle = s.Normal
	d.Styles.NormalDesc = s.Muted
	return d
}
