package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"digistore/internal/domain"
)

// Postgres is the durable Store backend. All queries run through a
// sqlx.ExtContext so the same code serves both the pooled connection and an
// open transaction inside WithTx.
type Postgres struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewPostgres wraps an already connected pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, ext: db}
}

func (p *Postgres) UpsertUser(ctx context.Context, u domain.User) error {
	const q = `
		INSERT INTO users (id, username, first_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username`
	if _, err := p.ext.ExecContext(ctx, q, u.ID, u.Username, u.FirstSeen); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	const q = `SELECT id, username, first_seen FROM users ORDER BY id`
	if err := sqlx.SelectContext(ctx, p.ext, &out, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (p *Postgres) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var prod domain.Product
	const q = `SELECT id, name, price, min_qty FROM products WHERE id = $1`
	if err := sqlx.GetContext(ctx, p.ext, &prod, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrUnknownProduct
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}

	const sq = `SELECT code FROM stock_codes WHERE product_id = $1 ORDER BY pos`
	if err := sqlx.SelectContext(ctx, p.ext, &prod.Stock, sq, id); err != nil {
		return domain.Product{}, fmt.Errorf("get stock %s: %w", id, err)
	}
	return prod, nil
}

func (p *Postgres) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	const q = `SELECT id, name, price, min_qty FROM products ORDER BY id`
	if err := sqlx.SelectContext(ctx, p.ext, &out, q); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for i := range out {
		const sq = `SELECT code FROM stock_codes WHERE product_id = $1 ORDER BY pos`
		if err := sqlx.SelectContext(ctx, p.ext, &out[i].Stock, sq, out[i].ID); err != nil {
			return nil, fmt.Errorf("get stock %s: %w", out[i].ID, err)
		}
	}
	return out, nil
}

func (p *Postgres) AddStock(ctx context.Context, id string, codes []string) (int, error) {
	if _, err := p.GetProduct(ctx, id); err != nil {
		return 0, err
	}
	const q = `INSERT INTO stock_codes (product_id, code) SELECT $1, unnest($2::text[])`
	if _, err := p.ext.ExecContext(ctx, q, id, pq.Array(codes)); err != nil {
		return 0, fmt.Errorf("add stock %s: %w", id, err)
	}
	return len(codes), nil
}

func (p *Postgres) TakeStock(ctx context.Context, id string, n int) ([]string, error) {
	take := func(ctx context.Context, ext sqlx.ExtContext) ([]string, error) {
		var exists bool
		const eq = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
		if err := sqlx.GetContext(ctx, ext, &exists, eq, id); err != nil {
			return nil, fmt.Errorf("check product %s: %w", id, err)
		}
		if !exists {
			return nil, domain.ErrUnknownProduct
		}

		var rows []struct {
			Pos  int64  `db:"pos"`
			Code string `db:"code"`
		}
		const q = `
			SELECT pos, code FROM stock_codes
			WHERE product_id = $1
			ORDER BY pos
			LIMIT $2
			FOR UPDATE`
		if err := sqlx.SelectContext(ctx, ext, &rows, q, id, n); err != nil {
			return nil, fmt.Errorf("lock stock %s: %w", id, err)
		}
		if len(rows) < n {
			return nil, domain.ErrInsufficientStock
		}

		positions := make([]int64, len(rows))
		codes := make([]string, len(rows))
		for i, r := range rows {
			positions[i] = r.Pos
			codes[i] = r.Code
		}
		const dq = `DELETE FROM stock_codes WHERE pos = ANY($1)`
		if _, err := ext.ExecContext(ctx, dq, pq.Array(positions)); err != nil {
			return nil, fmt.Errorf("debit stock %s: %w", id, err)
		}
		return codes, nil
	}

	// Inside WithTx the enclosing transaction already isolates the debit.
	if _, inTx := p.ext.(*sqlx.Tx); inTx {
		return take(ctx, p.ext)
	}

	var codes []string
	err := p.WithTx(ctx, func(ctx context.Context, s Store) error {
		var err error
		codes, err = take(ctx, s.(*Postgres).ext)
		return err
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (p *Postgres) CreateOrder(ctx context.Context, o domain.Order) error {
	const q = `
		INSERT INTO orders
			(id, user_id, username, product_id, product_name,
			 quantity, total_price, status, proof_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := p.ext.ExecContext(ctx, q,
		o.ID, o.UserID, o.Username, o.ProductID, o.ProductName,
		o.Quantity, o.TotalPrice, o.Status, o.ProofRef, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	const q = `
		SELECT id, user_id, username, product_id, product_name,
		       quantity, total_price, status, proof_ref, created_at
		FROM orders WHERE id = $1`
	if err := sqlx.GetContext(ctx, p.ext, &o, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (p *Postgres) SetOrderStatus(ctx context.Context, id string, st domain.Status) error {
	// Guarded on status so two concurrent verdicts cannot both flip the
	// same order: under read committed the second UPDATE waits on the row
	// lock, re-checks the predicate against the committed row, matches
	// nothing and the surrounding transaction rolls back its stock debit.
	const q = `UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`
	res, err := p.ext.ExecContext(ctx, q, id, st, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("set order status %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := p.GetOrder(ctx, id); err != nil {
			return err
		}
		return domain.ErrAlreadyProcessed
	}
	return nil
}

func (p *Postgres) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	const q = `
		SELECT id, user_id, username, product_id, product_name,
		       quantity, total_price, status, proof_ref, created_at
		FROM orders ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, p.ext, &out, q); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if _, inTx := p.ext.(*sqlx.Tx); inTx {
		return fn(ctx, p)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &Postgres{db: p.db, ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
