package ui

import (
	"github.com/charmbracelet/bubbles/help"
)

// RenderKeybindHelp produces the transient help bar shown after SPC. When
// the handler already holds a partial sequence (e.g. "SPC o"), the next-level
// hints are shown.
func RenderKeybindHelp(h *KeyHandler, styles Styles) string {
	if h == nil {
		return ""
	}
	bindings := h.helpBindings()
	if len(bindings) == 0 {
		return ""
	}

	helpModel := help.New()
	helpModel.Styles.ShortKey = styles.Selected
	helpModel.Styles.ShortDesc = styles.Muted
	helpModel.Styles.ShortSeparator = styles.Muted

	prefix := h.currentSeq()
	if prefix == "" {
		prefix = h.LeaderSeq
	}
	content := styles.Muted.Render(prefix) + " " + helpModel.ShortHelpView(bindings)
	return styles.BoxCompact.MarginTop(1).Render(content)
}
