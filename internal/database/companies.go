package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ordertrack/internal/rpc"
)

// CompanyRepo handles delivery companies. Names are unique ignoring case.
type CompanyRepo struct {
	db *sql.DB
}

func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// List returns active companies first, then by name.
func (r *CompanyRepo) List(ctx context.Context) ([]rpc.DeliveryCompany, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, active
	FROM delivery_companies
	ORDER BY active DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows *sql.Rows) (rpc.DeliveryCompany, error) {
		var c rpc.DeliveryCompany
		err := rows.Scan(&c.ID, &c.Name, &c.Active)
		return c, err
	})
}

// Add registers name unless a company with the same name exists, and
// returns the id either way.
func (r *CompanyRepo) Add(ctx context.Context, name string) (int64, error) {
	id, _, err := companyFor(ctx, r.db, name)
	return id, err
}

func (r *CompanyRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE delivery_companies SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return affected(res, "delivery company", id)
}

// Rename changes the name; orders referencing the company follow.
func (r *CompanyRepo) Rename(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: company name is required", rpc.ErrInvalidInput)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE delivery_companies SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return affected(res, "delivery company", id)
}

// companyFor returns the id and canonical name of the company called name,
// creating it if needed.
func companyFor(ctx context.Context, q querier, name string) (int64, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, "", fmt.Errorf("%w: company name is required", rpc.ErrInvalidInput)
	}
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO delivery_companies(name) VALUES (?)`, name); err != nil {
		return 0, "", err
	}
	var (
		id        int64
		canonical string
	)
	err := q.QueryRowContext(ctx, `SELECT id, name FROM delivery_companies WHERE name = ? COLLATE NOCASE`, name).Scan(&id, &canonical)
	return id, canonical, err
}
