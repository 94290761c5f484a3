package ui

import (
	"fmt"
	"strings"

	"ordertrack/internal/rpc"
	"ordertrack/internal/ui/textutil"
)

// maxChipLabel caps one chip's label in columns.
const maxChipLabel = 18

// chipLabel is the text of one opened-stack chip.
func chipLabel(e rpc.OpenedEntry) string {
	name := e.ArticleName
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("#%d", e.OrderID)
	}
	return textutil.Truncate(name, maxChipLabel)
}

// RenderChips draws the opened stack as a single line no wider than width.
// When the chips do not fit, a window around the active chip is shown with
// counts of the hidden chips on either side.
func RenderChips(entries []rpc.OpenedEntry, active int64, width int, styles Styles) string {
	if len(entries) == 0 {
		return styles.Empty.Render("No opened orders")
	}

	rendered := make([]string, len(entries))
	activeIdx := 0
	for i, e := range entries {
		label := chipLabel(e)
		if e.OrderID == active {
			rendered[i] = styles.ChipActive.Render(label)
			activeIdx = i
		} else {
			rendered[i] = styles.Chip.Render(label)
		}
	}
	if width <= 0 {
		return strings.Join(rendered, "")
	}

	lo, hi := activeIdx, activeIdx+1
	used := textutil.Width(rendered[activeIdx])
	for {
		grew := false
		if hi < len(rendered) && fits(used+textutil.Width(rendered[hi]), lo, hi+1, len(rendered), width) {
			used += textutil.Width(rendered[hi])
			hi++
			grew = true
		}
		if lo > 0 && fits(used+textutil.Width(rendered[lo-1]), lo-1, hi, len(rendered), width) {
			lo--
			used += textutil.Width(rendered[lo])
			grew = true
		}
		if !grew {
			break
		}
	}

	var b strings.Builder
	if lo > 0 {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("‹%d ", lo)))
	}
	b.WriteString(strings.Join(rendered[lo:hi], ""))
	if hi < len(rendered) {
		b.WriteString(styles.Muted.Render(fmt.Sprintf(" %d›", len(rendered)-hi)))
	}
	return b.String()
}

// fits reports whether chips [lo,hi) of n plus their overflow markers fit.
func fits(chipsWidth, lo, hi, n, width int) bool {
	markers := 0
	if lo > 0 {
		markers += textutil.Width(fmt.Sprintf("‹%d ", lo))
	}
	if hi < n {
		markers += textutil.Width(fmt.Sprintf(" %d›", n-hi))
	}
	return chipsWidth+markers <= width
}
