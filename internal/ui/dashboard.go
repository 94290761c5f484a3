package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ordertrack/internal/rpc"
	"ordertrack/internal/ui/textutil"
)

const (
	chartHeight  = 10
	dashListRows = 5
)

// DashboardView renders the aggregate dashboard: KPI tiles, the weekly
// order trend and a few ranked tables.
type DashboardView struct {
	Data    *rpc.DashboardData
	Err     error
	loading bool
	spinner spinner.Model
	width   int
	styles  Styles
}

var _ View = (*DashboardView)(nil)

func NewDashboardView(styles Styles) *DashboardView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Muted
	return &DashboardView{spinner: s, styles: styles, width: 80}
}

// SetLoading marks a reload in progress and returns the spinner tick.
func (d *DashboardView) SetLoading() tea.Cmd {
	d.loading = true
	d.Err = nil
	return d.spinner.Tick
}

// Loaded applies a finished fetch. A failure keeps the previous data.
func (d *DashboardView) Loaded(data rpc.DashboardData, err error) {
	d.loading = false
	d.Err = err
	if err == nil {
		d.Data = &data
	}
}

func (d *DashboardView) SetStyles(s Styles) {
	d.styles = s
	d.spinner.Style = s.Muted
}

func (d *DashboardView) SetWidth(w int) {
	if w > 0 {
		d.width = w
	}
}

func (d *DashboardView) Init() tea.Cmd { return nil }

func (d *DashboardView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !d.loading {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return d, func() tea.Msg { return CloseDashboardMsg{} }
		case "r":
			return d, func() tea.Msg { return ShowDashboardMsg{} }
		}
	}
	return d, nil
}

func (d *DashboardView) View() string {
	s := d.styles
	var b strings.Builder
	title := "Dashboard"
	if d.loading {
		title += " " + d.spinner.View()
	}
	b.WriteString(s.Title.Render(title) + "\n")
	if d.Err != nil {
		b.WriteString(s.Danger.Render("Could not load dashboard: "+d.Err.Error()) + "\n")
	}
	if d.Data == nil {
		if !d.loading && d.Err == nil {
			b.WriteString(s.Empty.Render("No data.") + "\n")
		}
		return b.String()
	}

	data := d.Data
	b.WriteString("\n" + d.renderKpis(data.Kpis) + "\n")

	if len(data.OrdersOverTimeWeekly) > 1 {
		b.WriteString("\n" + s.Title.Render("Orders per week") + "\n")
		b.WriteString(d.renderTrend(data.OrdersOverTimeWeekly) + "\n")
	}

	colWidth := max((d.width-4)/2, 20)
	left := d.renderNameCounts("Top articles", data.TopArticles, colWidth)
	right := d.renderNameCounts("Carriers (90 days)", data.CompanyShare90d, colWidth)
	b.WriteString("\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right) + "\n")

	b.WriteString("\n" + d.renderBacklog(data.BacklogAgeBuckets) + "\n")
	b.WriteString("\n" + d.renderOverdue(data.Exceptions.OverdueTop10) + "\n")
	b.WriteString("\n" + s.Muted.Render("r: reload  esc: close"))
	return b.String()
}

func (d *DashboardView) renderKpis(k rpc.Kpis) string {
	s := d.styles
	tile := func(label, value string) string {
		return s.BoxCompact.Render(s.Muted.Render(label) + "\n" + s.Selected.Render(value))
	}
	top := "n/a"
	if k.TopDeliveryCompany != nil {
		top = fmt.Sprintf("%s %.1f%%", k.TopDeliveryCompany.Name, k.TopDeliveryCompany.SharePct)
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Total", strconv.FormatInt(k.TotalOrders, 10)),
		tile("Open", strconv.FormatInt(k.OpenOrders, 10)),
		tile("Overdue", strconv.FormatInt(k.OverdueOpen, 10)),
		tile("Due today", strconv.FormatInt(k.DueToday, 10)),
		tile("Next 7 days", strconv.FormatInt(k.DueNext7, 10)),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Done 7d/30d", fmt.Sprintf("%d/%d", k.Done7d, k.Done30d)),
		tile("Clients", strconv.FormatInt(k.UniqueClients, 10)),
		tile("Returning", fmt.Sprintf("%.1f%%", k.ReturningClientsPct)),
		tile("Lead days", formatLead(k.AvgLeadDays, k.MedianLeadDays)),
		tile("Top carrier", top),
	)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

// formatLead shows average and median lead time, "n/a" when unknown.
func formatLead(avg, median *float64) string {
	f := func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return strconv.FormatFloat(*v, 'f', 1, 64)
	}
	return f(avg) + " / " + f(median)
}

func (d *DashboardView) renderTrend(points []rpc.TimeCount) string {
	var (
		times  []time.Time
		values []float64
		maxVal float64
	)
	for _, p := range points {
		t, ok := WeekStart(p.Period)
		if !ok {
			continue
		}
		times = append(times, t)
		values = append(values, float64(p.Count))
		if float64(p.Count) > maxVal {
			maxVal = float64(p.Count)
		}
	}
	if len(times) < 2 {
		return d.styles.Empty.Render("Not enough weeks yet.")
	}
	if maxVal == 0 {
		maxVal = 1
	}

	chart := tslc.New(max(d.width-4, 30), chartHeight)
	chart.SetStyle(d.styles.Selected)
	chart.AxisStyle = d.styles.Muted
	chart.LabelStyle = d.styles.Muted
	chart.SetTimeRange(times[0], times[len(times)-1])
	chart.SetViewTimeRange(times[0], times[len(times)-1])
	chart.SetYRange(0, maxVal)
	chart.SetViewYRange(0, maxVal)
	for i, t := range times {
		chart.Push(tslc.TimePoint{Time: t, Value: values[i]})
	}
	chart.DrawBraille()
	return chart.View()
}

func (d *DashboardView) renderNameCounts(title string, rows []rpc.NameCount, width int) string {
	s := d.styles
	var b strings.Builder
	b.WriteString(s.Title.Render(title) + "\n")
	if len(rows) == 0 {
		b.WriteString(s.Empty.Render("none"))
		return b.String()
	}
	cells := make([][]string, 0, dashListRows)
	for i, r := range rows {
		if i == dashListRows {
			break
		}
		cells = append(cells, []string{r.Name, strconv.FormatInt(r.Count, 10)})
	}
	b.WriteString(strings.Join(textutil.Columns(cells, width-8, map[int]bool{1: true}), "\n"))
	return b.String()
}

func (d *DashboardView) renderBacklog(buckets []rpc.BucketCount) string {
	s := d.styles
	var parts []string
	for _, bc := range buckets {
		parts = append(parts, fmt.Sprintf("%s: %d", bc.Bucket, bc.Count))
	}
	line := s.Empty.Render("none")
	if len(parts) > 0 {
		line = strings.Join(parts, "   ")
	}
	return s.Title.Render("Open backlog by age") + "\n" + line
}

func (d *DashboardView) renderOverdue(rows []rpc.OrderExceptionRow) string {
	s := d.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("Overdue") + "\n")
	if len(rows) == 0 {
		b.WriteString(s.Empty.Render("Nothing overdue."))
		return b.String()
	}
	cells := [][]string{{"#", "Article", "Client", "City", "Carrier", "Due", "Late"}}
	for _, r := range rows {
		cells = append(cells, []string{
			strconv.FormatInt(r.ID, 10),
			r.ArticleName,
			r.ClientName,
			r.City,
			r.DeliveryCompany,
			r.DeliveryDate,
			fmt.Sprintf("%dd", r.AgeDays),
		})
	}
	lines := textutil.Columns(cells, 20, map[int]bool{0: true, 6: true})
	b.WriteString(s.Muted.Render(lines[0]) + "\n")
	b.WriteString(s.Danger.Render(strings.Join(lines[1:], "\n")))
	return b.String()
}

// WeekStart converts a "YYYY-WW" period (Monday-based week of year, week 00
// holding the days before the first Monday) to the first day of that week
// that falls inside the year.
func WeekStart(period string) (time.Time, bool) {
	yearStr, weekStr, ok := strings.Cut(period, "-")
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil || week < 0 || week > 53 {
		return time.Time{}, false
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if week == 0 {
		return jan1, true
	}
	toMonday := (8 - int(jan1.Weekday())) % 7
	firstMonday := jan1.AddDate(0, 0, toMonday)
	return firstMonday.AddDate(0, 0, 7*(week-1)), true
}
