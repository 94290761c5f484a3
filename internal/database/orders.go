package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ordertrack/internal/rpc"
)

// OrderRepo handles orders.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// List returns every order, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]rpc.OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, article_name, done
	FROM orders
	ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows *sql.Rows) (rpc.OrderSummary, error) {
		var o rpc.OrderSummary
		err := rows.Scan(&o.ID, &o.ArticleName, &o.Done)
		return o, err
	})
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (rpc.OrderDetail, error) {
	var (
		d    rpc.OrderDetail
		desc sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
	SELECT id, client_name, article_name, phone, city, address,
	       delivery_company, delivery_date, description, done
	FROM orders
	WHERE id = ?`, id).Scan(
		&d.ID, &d.ClientName, &d.ArticleName, &d.Phone, &d.City, &d.Address,
		&d.DeliveryCompany, &d.DeliveryDate, &desc, &d.Done)
	if errors.Is(err, sql.ErrNoRows) {
		return rpc.OrderDetail{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return rpc.OrderDetail{}, err
	}
	if desc.Valid {
		d.Description = &desc.String
	}
	return d, nil
}

// Create inserts in and returns the new id. The delivery company is
// registered if unknown and stored under its canonical name.
func (r *OrderRepo) Create(ctx context.Context, in rpc.OrderInput) (int64, error) {
	var id int64
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		companyID, company, err := companyFor(ctx, tx, in.DeliveryCompany)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
		INSERT INTO orders
		  (client_name, article_name, phone, city, address,
		   delivery_company, delivery_company_id, delivery_date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ClientName, in.ArticleName, in.Phone, in.City, in.Address,
			company, companyID, in.DeliveryDate, nullable(in.Description))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *OrderRepo) Update(ctx context.Context, id int64, in rpc.OrderInput) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		companyID, company, err := companyFor(ctx, tx, in.DeliveryCompany)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
		  client_name = ?, article_name = ?, phone = ?, city = ?, address = ?,
		  delivery_company = ?, delivery_company_id = ?, delivery_date = ?, description = ?
		WHERE id = ?`,
			in.ClientName, in.ArticleName, in.Phone, in.City, in.Address,
			company, companyID, in.DeliveryDate, nullable(in.Description), id)
		if err != nil {
			return err
		}
		return affected(res, "order", id)
	})
}

func (r *OrderRepo) SetDone(ctx context.Context, id int64, done bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET done = ? WHERE id = ?`, done, id)
	if err != nil {
		return err
	}
	return affected(res, "order", id)
}

// Delete removes the order; its opened entry goes with it.
func (r *OrderRepo) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
			return err
		}
		return renumberOpened(ctx, tx)
	})
}

// SearchArticles returns distinct article names containing query, most
// frequent first, then most recent.
func (r *OrderRepo) SearchArticles(ctx context.Context, query string, limit int) ([]string, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT article_name
	FROM orders
	WHERE article_name LIKE ? ESCAPE '\'
	GROUP BY article_name
	ORDER BY COUNT(*) DESC, MAX(created_at) DESC
	LIMIT ?`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows *sql.Rows) (string, error) {
		var s string
		err := rows.Scan(&s)
		return s, err
	})
}

// LatestDescription is the newest non-blank description recorded for the
// exact article name.
func (r *OrderRepo) LatestDescription(ctx context.Context, article string) (*string, error) {
	var desc string
	err := r.db.QueryRowContext(ctx, `
	SELECT description
	FROM orders
	WHERE article_name = ?
	  AND description IS NOT NULL
	  AND TRIM(description) <> ''
	ORDER BY created_at DESC, id DESC
	LIMIT 1`, article).Scan(&desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func affected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
