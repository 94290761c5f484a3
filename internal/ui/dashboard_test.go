package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ordertrack/internal/rpc"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		period string
		want   time.Time
		ok     bool
	}{
		{"2023-00", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2023-01", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"2023-10", time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC), true},
		{"2024-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-52", time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), true},
		{"2024", time.Time{}, false},
		{"2024-xx", time.Time{}, false},
		{"2024-54", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, ok := WeekStart(tt.period)
			if ok != tt.ok {
				t.Fatalf("WeekStart(%q) ok = %v, want %v", tt.period, ok, tt.ok)
			}
			if !got.Equal(tt.want) {
				t.Errorf("WeekStart(%q) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}

func TestFormatLead(t *testing.T) {
	avg, median := 3.25, 2.0
	if got := formatLead(&avg, &median); got != "3.2 / 2.0" && got != "3.3 / 2.0" {
		t.Errorf("formatLead() = %q", got)
	}
	if got := formatLead(nil, nil); got != "n/a / n/a" {
		t.Errorf("formatLead(nil, nil) = %q", got)
	}
}

func TestDashboardView(t *testing.T) {
	d := NewDashboardView(NewStyles(rpc.DefaultTheme()))
	d.SetWidth(100)
	require.NotNil(t, d.SetLoading())

	d.Loaded(rpc.DashboardData{
		Kpis: rpc.Kpis{
			TotalOrders: 42,
			OpenOrders:  7,
			OverdueOpen: 2,
			TopDeliveryCompany: &rpc.TopItemShare{
				Name: "DHL", Count: 30, SharePct: 71.4,
			},
		},
		OrdersOverTimeWeekly: []rpc.TimeCount{
			{Period: "2030-01", Count: 3},
			{Period: "2030-02", Count: 5},
			{Period: "2030-03", Count: 1},
		},
		TopArticles:       []rpc.NameCount{{Name: "Desk", Count: 12}},
		CompanyShare90d:   []rpc.NameCount{{Name: "DHL", Count: 30}},
		BacklogAgeBuckets: []rpc.BucketCount{{Bucket: "0-7d", Count: 4}},
		Exceptions: rpc.Exceptions{OverdueTop10: []rpc.OrderExceptionRow{
			{ID: 9, ArticleName: "Lamp", ClientName: "Ana", City: "Lyon", DeliveryCompany: "DHL", DeliveryDate: "2030-01-02", AgeDays: 3},
		}},
	}, nil)

	out := d.View()
	for _, want := range []string{"42", "DHL 71.4%", "Orders per week", "Top articles", "Desk", "0-7d: 4", "Lamp", "3d"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}

	d.SetLoading()
	d.Loaded(rpc.DashboardData{}, errors.New("boom"))
	out = d.View()
	require.Contains(t, out, "Could not load dashboard: boom")
	require.Contains(t, out, "Desk", "previous data kept on failure")
}

func TestDashboardView_Empty(t *testing.T) {
	d := NewDashboardView(NewStyles(rpc.DefaultTheme()))
	require.Contains(t, d.View(), "No data.")

	d.Loaded(rpc.DashboardData{}, nil)
	out := d.View()
	require.Contains(t, out, "Nothing overdue.")
	require.NotContains(t, out, "Orders per week")
}

func TestDashboardView_Keys(t *testing.T) {
	d := NewDashboardView(NewStyles(rpc.DefaultTheme()))
	update := viewUpdater(d)

	cmd := update(keyMsg("esc"))
	require.NotNil(t, cmd)
	require.Equal(t, CloseDashboardMsg{}, cmd())

	cmd = update(keyMsg("r"))
	require.NotNil(t, cmd)
	require.Equal(t, ShowDashboardMsg{}, cmd())
}
