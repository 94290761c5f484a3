package database

import (
	"context"
	"database/sql"
	"fmt"

	"ordertrack/internal/rpc"
)

// OpenedRepo handles the opened-orders stack. Positions are kept dense from 1.
type OpenedRepo struct {
	db     *sql.DB
	policy rpc.StackPolicy
}

func NewOpenedRepo(db *sql.DB, policy rpc.StackPolicy) *OpenedRepo {
	if policy == "" {
		policy = rpc.PolicyAppend
	}
	return &OpenedRepo{db: db, policy: policy}
}

// List returns the stack ordered by position.
func (r *OpenedRepo) List(ctx context.Context) ([]rpc.OpenedEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT oo.order_id, o.article_name, oo.position
	FROM opened_orders oo
	JOIN orders o ON o.id = oo.order_id
	ORDER BY oo.position ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows *sql.Rows) (rpc.OpenedEntry, error) {
		var e rpc.OpenedEntry
		err := rows.Scan(&e.OrderID, &e.ArticleName, &e.Position)
		return e, err
	})
}

// Open adds id to the stack. Under the append policy an existing entry keeps
// its place and a new one goes last; under mru the order moves to the front.
func (r *OpenedRepo) Open(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}

		if r.policy == rpc.PolicyMRU {
			if _, err := tx.ExecContext(ctx, `DELETE FROM opened_orders WHERE order_id = ?`, id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO opened_orders (order_id, position) VALUES (?, 0)`, id); err != nil {
				return err
			}
			return renumberOpened(ctx, tx)
		}

		_, err := tx.ExecContext(ctx, `
		INSERT INTO opened_orders (order_id, position)
		SELECT ?, COALESCE(MAX(position), 0) + 1
		FROM opened_orders
		WHERE NOT EXISTS (SELECT 1 FROM opened_orders WHERE order_id = ?)`, id, id)
		return err
	})
}

// Remove drops id from the stack. Removing an absent id is not an error.
func (r *OpenedRepo) Remove(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM opened_orders WHERE order_id = ?`, id); err != nil {
			return err
		}
		return renumberOpened(ctx, tx)
	})
}

func renumberOpened(ctx context.Context, q querier) error {
	rows, err := q.QueryContext(ctx, `SELECT order_id FROM opened_orders ORDER BY position ASC, rowid ASC`)
	if err != nil {
		return err
	}
	ids, err := collect(rows, func(rows *sql.Rows) (int64, error) {
		var id int64
		err := rows.Scan(&id)
		return id, err
	})
	if err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := q.ExecContext(ctx, `UPDATE opened_orders SET position = ? WHERE order_id = ?`, i+1, id); err != nil {
			return err
		}
	}
	return nil
}
