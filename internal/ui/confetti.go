package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var confettiGlyphs = []string{"✦", "•", "✶", "·", "✧"}

// RenderConfetti draws a celebration strip of width columns, cycling the
// palette colours. An empty palette falls back to plain glyphs.
func RenderConfetti(palette []string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		glyph := confettiGlyphs[(i*7+i/3)%len(confettiGlyphs)]
		if i%2 == 1 {
			glyph = " "
		}
		if len(palette) == 0 {
			b.WriteString(glyph)
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette[i%len(palette)]))
		b.WriteString(style.Render(glyph))
	}
	return b.String()
}
