package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"ordertrack/internal/rpc"
)

// DashboardRepo computes the dashboard aggregates. "Now" is SQLite's clock;
// delivery dates compare against the local date.
type DashboardRepo struct {
	db *sql.DB
}

func NewDashboardRepo(db *sql.DB) *DashboardRepo {
	return &DashboardRepo{db: db}
}

const companyExpr = `COALESCE(NULLIF(TRIM(delivery_company),''),'(Unknown)')`

// Load runs every aggregate query in one read transaction.
func (r *DashboardRepo) Load(ctx context.Context) (rpc.DashboardData, error) {
	var d rpc.DashboardData
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()

	steps := []struct {
		name string
		run  func(context.Context, querier, *rpc.DashboardData) error
	}{
		{"kpis", loadKpis},
		{"weekly", loadWeekly},
		{"schedule", loadSchedule},
		{"lead time", loadLeadTime},
		{"top articles", loadTopArticles},
		{"company share", loadCompanyShare},
		{"new vs returning", loadNewVsReturning},
		{"backlog", loadBacklog},
		{"heatmap", loadHeatmap},
		{"exceptions", loadExceptions},
	}
	for _, s := range steps {
		if err := s.run(ctx, tx, &d); err != nil {
			return rpc.DashboardData{}, fmt.Errorf("dashboard %s: %w", s.name, err)
		}
	}
	return d, nil
}

func count(ctx context.Context, q querier, query string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

func optionalFloat(ctx context.Context, q querier, query string) (*float64, error) {
	var v sql.NullFloat64
	if err := q.QueryRowContext(ctx, query).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !v.Valid {
		return nil, nil
	}
	return &v.Float64, nil
}

func optionalNameCount(ctx context.Context, q querier, query string) (*rpc.NameCount, error) {
	var nc rpc.NameCount
	err := q.QueryRowContext(ctx, query).Scan(&nc.Name, &nc.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &nc, nil
}

func loadKpis(ctx context.Context, q querier, d *rpc.DashboardData) error {
	counts := []struct {
		dst   *int64
		query string
	}{
		{&d.Kpis.TotalOrders, `SELECT COUNT(*) FROM orders`},
		{&d.Kpis.OpenOrders, `SELECT COUNT(*) FROM orders WHERE done = 0`},
		{&d.Kpis.OverdueOpen, `SELECT COUNT(*) FROM orders WHERE done = 0 AND date(delivery_date) < date('now','localtime')`},
		{&d.Kpis.DueToday, `SELECT COUNT(*) FROM orders WHERE done = 0 AND date(delivery_date) = date('now','localtime')`},
		{&d.Kpis.DueNext7, `SELECT COUNT(*) FROM orders WHERE done = 0 AND date(delivery_date) > date('now','localtime') AND date(delivery_date) <= date('now','localtime','+7 days')`},
		{&d.Kpis.Done7d, `SELECT COUNT(*) FROM orders WHERE done = 1 AND datetime(created_at) >= datetime('now','-7 days')`},
		{&d.Kpis.Done30d, `SELECT COUNT(*) FROM orders WHERE done = 1 AND datetime(created_at) >= datetime('now','-30 days')`},
		{&d.Kpis.UniqueClients, `SELECT COUNT(DISTINCT phone) FROM orders`},
	}
	for _, c := range counts {
		n, err := count(ctx, q, c.query)
		if err != nil {
			return err
		}
		*c.dst = n
	}

	pct, err := optionalFloat(ctx, q, `
	WITH per_client AS (SELECT phone, COUNT(*) AS cnt FROM orders GROUP BY phone)
	SELECT ROUND(100.0 * SUM(CASE WHEN cnt > 1 THEN 1 ELSE 0 END) / NULLIF(COUNT(*),0), 1)
	FROM per_client`)
	if err != nil {
		return err
	}
	if pct != nil {
		d.Kpis.ReturningClientsPct = *pct
	}

	if d.Kpis.AvgLeadDays, err = optionalFloat(ctx, q, `
	SELECT ROUND(AVG(julianday(date(delivery_date)) - julianday(datetime(created_at))), 2)
	FROM orders`); err != nil {
		return err
	}
	if d.Kpis.MedianLeadDays, err = optionalFloat(ctx, q, `
	WITH lt AS (
	  SELECT (julianday(date(delivery_date)) - julianday(datetime(created_at))) AS d
	  FROM orders
	  WHERE delivery_date IS NOT NULL
	  ORDER BY d
	)
	SELECT d FROM lt
	LIMIT 1 OFFSET (SELECT COUNT(*) FROM lt) / 2`); err != nil {
		return err
	}

	total90, err := count(ctx, q, `SELECT COUNT(*) FROM orders WHERE date(created_at) >= date('now','-90 days')`)
	if err != nil {
		return err
	}
	top, err := optionalNameCount(ctx, q, `
	SELECT `+companyExpr+` AS name, COUNT(*) AS c
	FROM orders
	WHERE date(created_at) >= date('now','-90 days')
	GROUP BY name
	ORDER BY c DESC
	LIMIT 1`)
	if err != nil {
		return err
	}
	if top != nil {
		share := 0.0
		if total90 > 0 {
			share = float64(top.Count) * 100 / float64(total90)
		}
		d.Kpis.TopDeliveryCompany = &rpc.TopItemShare{
			Name:     top.Name,
			Count:    top.Count,
			SharePct: math.Round(share*10) / 10,
		}
	}

	if d.Kpis.TopArticle, err = optionalNameCount(ctx, q, `
	SELECT article_name, COUNT(*) AS c
	FROM orders
	WHERE date(created_at) >= date('now','-90 days')
	GROUP BY article_name
	ORDER BY c DESC
	LIMIT 1`); err != nil {
		return err
	}
	d.Kpis.TopCity, err = optionalNameCount(ctx, q, `
	SELECT city, COUNT(*) AS c
	FROM orders
	WHERE date(created_at) >= date('now','-90 days')
	GROUP BY city
	ORDER BY c DESC
	LIMIT 1`)
	return err
}

func loadWeekly(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT strftime('%Y-%W', datetime(created_at)) AS period, COUNT(*) AS cnt
	FROM orders GROUP BY period ORDER BY period`)
	if err != nil {
		return err
	}
	if d.OrdersOverTimeWeekly, err = collect(rows, func(rows *sql.Rows) (rpc.TimeCount, error) {
		var tc rpc.TimeCount
		err := rows.Scan(&tc.Period, &tc.Count)
		return tc, err
	}); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `
	SELECT strftime('%Y-%W', datetime(created_at)) AS period, done, COUNT(*) AS cnt
	FROM orders GROUP BY period, done ORDER BY period, done`)
	if err != nil {
		return err
	}
	d.OrdersOverTimeWeeklyByDone, err = collect(rows, func(rows *sql.Rows) (rpc.TimeDoneCount, error) {
		var tc rpc.TimeDoneCount
		err := rows.Scan(&tc.Period, &tc.Done, &tc.Count)
		return tc, err
	})
	return err
}

// loadSchedule covers open orders due in the next twelve weeks.
func loadSchedule(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT strftime('%Y-%W', date(delivery_date)) AS week, `+companyExpr+` AS company, COUNT(*) AS cnt
	FROM orders
	WHERE date(delivery_date) BETWEEN date('now','localtime') AND date('now','localtime','+84 days')
	  AND done = 0
	GROUP BY week, company
	ORDER BY week, company`)
	if err != nil {
		return err
	}
	d.DeliveryScheduleWeeks, err = collect(rows, func(rows *sql.Rows) (rpc.ScheduleItem, error) {
		var s rpc.ScheduleItem
		err := rows.Scan(&s.Week, &s.Company, &s.Count)
		return s, err
	})
	return err
}

func loadLeadTime(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT ROUND(julianday(date(delivery_date)) - julianday(datetime(created_at))) AS lead_days, COUNT(*) AS cnt
	FROM orders
	WHERE delivery_date IS NOT NULL AND date(delivery_date) IS NOT NULL
	GROUP BY lead_days
	ORDER BY lead_days`)
	if err != nil {
		return err
	}
	d.LeadTimeHistogram, err = collect(rows, func(rows *sql.Rows) (rpc.LeadTimeBin, error) {
		var (
			days float64
			b    rpc.LeadTimeBin
		)
		err := rows.Scan(&days, &b.Count)
		b.LeadDays = int64(days)
		return b, err
	})
	return err
}

func loadTopArticles(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT article_name AS name, COUNT(*) AS cnt
	FROM orders GROUP BY article_name ORDER BY cnt DESC, name ASC LIMIT 10`)
	if err != nil {
		return err
	}
	d.TopArticles, err = collect(rows, scanNameCount)
	return err
}

func loadCompanyShare(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT `+companyExpr+` AS name, COUNT(*) AS cnt
	FROM orders
	WHERE date(created_at) >= date('now','-90 days')
	GROUP BY name
	ORDER BY cnt DESC, name ASC`)
	if err != nil {
		return err
	}
	d.CompanyShare90d, err = collect(rows, scanNameCount)
	return err
}

// loadNewVsReturning counts, per month, orders placed on a client's first
// day versus later ones. Clients are identified by phone.
func loadNewVsReturning(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	WITH first_seen AS (
	  SELECT phone, MIN(date(created_at)) AS first_date FROM orders GROUP BY phone
	),
	orders_m AS (
	  SELECT phone, strftime('%Y-%m', date(created_at)) AS ym, date(created_at) AS d
	  FROM orders
	)
	SELECT ym,
	       SUM(CASE WHEN d = f.first_date THEN 1 ELSE 0 END) AS new_clients,
	       SUM(CASE WHEN d > f.first_date THEN 1 ELSE 0 END) AS returning_clients
	FROM orders_m o
	JOIN first_seen f ON f.phone = o.phone
	GROUP BY ym
	ORDER BY ym`)
	if err != nil {
		return err
	}
	d.NewVsReturningMonthly, err = collect(rows, func(rows *sql.Rows) (rpc.MonthlyClients, error) {
		var m rpc.MonthlyClients
		err := rows.Scan(&m.Month, &m.New, &m.Returning)
		return m, err
	})
	return err
}

func loadBacklog(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	WITH ages AS (
	  SELECT CAST(julianday('now') - julianday(datetime(created_at)) AS INT) AS age_days
	  FROM orders WHERE done = 0
	)
	SELECT
	  CASE
	    WHEN age_days < 3  THEN '0-2'
	    WHEN age_days < 7  THEN '3-6'
	    WHEN age_days < 14 THEN '7-13'
	    WHEN age_days < 30 THEN '14-29'
	    ELSE '30+'
	  END AS bucket,
	  COUNT(*) AS cnt
	FROM ages
	GROUP BY bucket
	ORDER BY
	  CASE bucket
	    WHEN '0-2' THEN 1 WHEN '3-6' THEN 2 WHEN '7-13' THEN 3
	    WHEN '14-29' THEN 4 ELSE 5 END`)
	if err != nil {
		return err
	}
	d.BacklogAgeBuckets, err = collect(rows, func(rows *sql.Rows) (rpc.BucketCount, error) {
		var b rpc.BucketCount
		err := rows.Scan(&b.Bucket, &b.Count)
		return b, err
	})
	return err
}

func loadHeatmap(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT CAST(strftime('%w', datetime(created_at)) AS INT) AS weekday,
	       CAST(strftime('%H', datetime(created_at)) AS INT) AS hour,
	       COUNT(*) AS cnt
	FROM orders
	GROUP BY weekday, hour
	ORDER BY weekday, hour`)
	if err != nil {
		return err
	}
	d.ActivityHeatmap, err = collect(rows, func(rows *sql.Rows) (rpc.HeatCell, error) {
		var h rpc.HeatCell
		err := rows.Scan(&h.Weekday, &h.Hour, &h.Count)
		return h, err
	})
	return err
}

// loadExceptions lists the ten open orders that are most overdue.
func loadExceptions(ctx context.Context, q querier, d *rpc.DashboardData) error {
	rows, err := q.QueryContext(ctx, `
	SELECT id, article_name, client_name, city, delivery_company, delivery_date,
	       CAST(julianday('now') - julianday(datetime(created_at)) AS INT) AS age_days
	FROM orders
	WHERE done = 0 AND date(delivery_date) < date('now','localtime')
	ORDER BY date(delivery_date) ASC, id ASC
	LIMIT 10`)
	if err != nil {
		return err
	}
	d.Exceptions.OverdueTop10, err = collect(rows, func(rows *sql.Rows) (rpc.OrderExceptionRow, error) {
		var e rpc.OrderExceptionRow
		err := rows.Scan(&e.ID, &e.ArticleName, &e.ClientName, &e.City, &e.DeliveryCompany, &e.DeliveryDate, &e.AgeDays)
		return e, err
	})
	return err
}

func scanNameCount(rows *sql.Rows) (rpc.NameCount, error) {
	var nc rpc.NameCount
	err := rows.Scan(&nc.Name, &nc.Count)
	return nc, err
}
