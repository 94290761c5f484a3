// Package textutil measures and fits text in terminal columns.
package textutil

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Width is the number of terminal columns s occupies. ANSI styling is
// ignored.
func Width(s string) int {
	return lipgloss.Width(s)
}

// Truncate fits plain text s into max columns, ending with Ellipsis when
// something was cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= runewidth.StringWidth(Ellipsis) {
		return Ellipsis
	}
	return runewidth.Truncate(s, max, Ellipsis)
}

// PadRight truncates or pads s with spaces to exactly w columns.
func PadRight(s string, w int) string {
	s = Truncate(s, w)
	return runewidth.FillRight(s, w)
}

// PadLeft truncates or left-pads s with spaces to exactly w columns.
func PadLeft(s string, w int) string {
	s = Truncate(s, w)
	return runewidth.FillLeft(s, w)
}

// Columns lays out rows as space-separated columns, each as wide as its
// widest cell (capped at max). Right-aligned columns are listed in right.
func Columns(rows [][]string, max int, right map[int]bool) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if max > 0 && widths[i] > max {
			widths[i] = max
		}
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if right[i] {
				cells[i] = PadLeft(cell, widths[i])
			} else {
				cells[i] = PadRight(cell, widths[i])
			}
		}
		out = append(out, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
	return out
}
