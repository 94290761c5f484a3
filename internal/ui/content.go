package ui

import (
	"fmt"
	"strings"

	"ordertrack/internal/rpc"
	"ordertrack/internal/state"
	"ordertrack/internal/ui/textutil"
)

// ContentView shows the active order. The detail is fetched separately; the
// done flag always comes from the snapshot so optimistic flips show at once.
type ContentView struct {
	ActiveID int64
	Detail   *rpc.OrderDetail
	Loading  bool
	Err      error
}

// SetActive switches to id and drops the old detail. It reports whether the
// active order changed.
func (c *ContentView) SetActive(id int64) bool {
	if c.ActiveID == id {
		return false
	}
	c.ActiveID = id
	c.Detail = nil
	c.Err = nil
	c.Loading = id != 0
	return true
}

// Loaded applies a finished detail fetch for the active order.
func (c *ContentView) Loaded(d rpc.OrderDetail, err error) {
	c.Loading = false
	if err != nil {
		c.Err = err
		return
	}
	if d.ID != c.ActiveID {
		return
	}
	c.Detail = &d
	c.Err = nil
}

// Render draws the active order.
func (c *ContentView) Render(st state.State, width int, styles Styles) string {
	if c.ActiveID == 0 {
		return styles.Empty.Render("Select an order and press enter to open it.")
	}
	summary, known := st.Order(c.ActiveID)

	var b strings.Builder
	title := summary.ArticleName
	if c.Detail != nil {
		title = c.Detail.ArticleName
	}
	if title == "" {
		title = fmt.Sprintf("Order #%d", c.ActiveID)
	}
	b.WriteString(styles.Title.Render(textutil.Truncate(title, max(width-2, 8))))

	done := known && summary.Done
	if !known && c.Detail != nil {
		done = c.Detail.Done
	}
	status := styles.Muted.Render("open")
	if done {
		status = styles.Success.Render("done")
	}
	if st.Saving(c.ActiveID) {
		status += styles.Muted.Render(" · saving…")
	}
	b.WriteString("  " + status + "\n\n")

	switch {
	case c.Err != nil:
		b.WriteString(styles.Danger.Render("Could not load order: "+c.Err.Error()) + "\n")
	case c.Detail == nil:
		b.WriteString(styles.Muted.Render("Loading…") + "\n")
	default:
		d := c.Detail
		rows := [][]string{
			{"Client", d.ClientName},
			{"Phone", d.Phone},
			{"City", d.City},
			{"Address", d.Address},
			{"Carrier", d.DeliveryCompany},
			{"Delivery", d.DeliveryDate},
		}
		for _, line := range textutil.Columns(rows, max(width-4, 10), nil) {
			b.WriteString(line + "\n")
		}
		if d.Description != nil && *d.Description != "" {
			b.WriteString("\n" + styles.Muted.Render("Description") + "\n")
			b.WriteString(*d.Description + "\n")
		}
	}

	b.WriteString("\n" + styles.Muted.Render("d: done  e: edit  x: close  D: delete"))
	return b.String()
}
