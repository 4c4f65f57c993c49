package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/google/uuid"
)

type pgProducts struct {
	db *sql.DB
}

func (s *pgProducts) list(ctx context.Context, op, q string, args ...any) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pgErr(op, err)
	}
	out, err := scanDocs[product.Product](rows)
	if err != nil {
		return nil, pgErr(op, err)
	}
	return out, nil
}

func (s *pgProducts) List(ctx context.Context) ([]product.Product, error) {
	return s.list(ctx, "products.list", `SELECT doc FROM products ORDER BY created_at, id`)
}

// Search matches q anywhere in the serialized document, like json-server's
// q parameter.
func (s *pgProducts) Search(ctx context.Context, q string) ([]product.Product, error) {
	return s.list(ctx, "products.search",
		`SELECT doc FROM products WHERE doc::text ILIKE $1 ORDER BY created_at, id`, likePattern(q))
}

func (s *pgProducts) Get(ctx context.Context, id string) (*product.Product, error) {
	var doc []byte
	if err := s.db.QueryRowContext(ctx, `SELECT doc FROM products WHERE id = $1`, id).Scan(&doc); err != nil {
		return nil, pgErr("products.get", err)
	}
	var p product.Product
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, gatewayErr("products.get", 0, err)
	}
	return &p, nil
}

func (s *pgProducts) Create(ctx context.Context, p product.Product) (*product.Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, gatewayErr("products.create", 0, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO products (id, doc) VALUES ($1, $2)`, p.ID, string(data)); err != nil {
		return nil, pgErr("products.create", err)
	}
	return &p, nil
}

func (s *pgProducts) Replace(ctx context.Context, p product.Product) (*product.Product, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, gatewayErr("products.replace", 0, err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE products SET doc = $1 WHERE id = $2`, string(data), p.ID)
	if err != nil {
		return nil, pgErr("products.replace", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, gatewayErr("products.replace", 0, ErrNotFound)
	}
	return &p, nil
}

func (s *pgProducts) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return pgErr("products.delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatewayErr("products.delete", 0, ErrNotFound)
	}
	return nil
}

type pgBlocks struct {
	db *sql.DB
}

func (s *pgBlocks) list(ctx context.Context, op, q string, args ...any) ([]block.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pgErr(op, err)
	}
	out, err := scanDocs[block.Record](rows)
	if err != nil {
		return nil, pgErr(op, err)
	}
	return out, nil
}

func (s *pgBlocks) FindByUserID(ctx context.Context, userID string) ([]block.Record, error) {
	return s.list(ctx, "blocks.findByUserId",
		`SELECT doc FROM blocked_users WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (s *pgBlocks) FindByEmail(ctx context.Context, email string) ([]block.Record, error) {
	return s.list(ctx, "blocks.findByEmail",
		`SELECT doc FROM blocked_users WHERE email = $1 ORDER BY created_at, id`, email)
}

func (s *pgBlocks) List(ctx context.Context) ([]block.Record, error) {
	return s.list(ctx, "blocks.list", `SELECT doc FROM blocked_users ORDER BY created_at, id`)
}

func (s *pgBlocks) Create(ctx context.Context, r block.Record) (*block.Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, gatewayErr("blocks.create", 0, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blocked_users (id, user_id, email, doc) VALUES ($1, $2, $3, $4)`,
		r.ID, r.UserID, r.Email, string(data),
	)
	if err != nil {
		return nil, pgErr("blocks.create", err)
	}
	return &r, nil
}

func (s *pgBlocks) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blocked_users WHERE id = $1`, id)
	if err != nil {
		return pgErr("blocks.delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatewayErr("blocks.delete", 0, ErrNotFound)
	}
	return nil
}
