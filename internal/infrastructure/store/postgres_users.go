package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/shop"
	"github.com/google/uuid"
)

type pgUsers struct {
	db *sql.DB
}

// scanAccount decodes a (doc, version) pair; the version column wins over
// whatever the document says.
func scanAccount(row interface{ Scan(...any) error }) (*user.Account, error) {
	var doc []byte
	var version int
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}
	var a user.Account
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, err
	}
	a.Version = version
	return &a, nil
}

func (s *pgUsers) query(ctx context.Context, op, q string, args ...any) ([]user.Account, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pgErr(op, err)
	}
	defer rows.Close()

	out := []user.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, pgErr(op, err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr(op, err)
	}
	return out, nil
}

func (s *pgUsers) FindByEmail(ctx context.Context, email string) ([]user.Account, error) {
	return s.query(ctx, "users.findByEmail",
		`SELECT doc, version FROM users WHERE email = $1 ORDER BY created_at, id`, email)
}

func (s *pgUsers) Get(ctx context.Context, id string) (*user.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT doc, version FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, pgErr("users.get", err)
	}
	return a, nil
}

func (s *pgUsers) List(ctx context.Context) ([]user.Account, error) {
	return s.query(ctx, "users.list", `SELECT doc, version FROM users ORDER BY created_at, id`)
}

func (s *pgUsers) Create(ctx context.Context, a *user.Account) (*user.Account, error) {
	doc := a.Clone()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.Version = 1
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, gatewayErr("users.create", 0, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, doc, version) VALUES ($1, $2, $3, 1)`,
		doc.ID, doc.Email, string(data),
	)
	if err != nil {
		return nil, pgErr("users.create", err)
	}
	return doc, nil
}

// staleOrMissing explains why a guarded update touched no rows.
func (s *pgUsers) staleOrMissing(ctx context.Context, op, id string, version int) error {
	var stored int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM users WHERE id = $1`, id).Scan(&stored)
	if err != nil {
		return pgErr(op, err)
	}
	return gatewayErr(op, 0, fmt.Errorf("%w: have version %d, stored %d", shop.ErrConflict, version, stored))
}

func (s *pgUsers) Replace(ctx context.Context, a *user.Account) (*user.Account, error) {
	const op = "users.replace"
	doc := a.Clone()
	doc.Version = a.Version + 1
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, gatewayErr(op, 0, err)
	}

	saved, err := scanAccount(s.db.QueryRowContext(ctx,
		`UPDATE users SET email = $1, doc = $2, version = version + 1
		 WHERE id = $3 AND version = $4
		 RETURNING doc, version`,
		a.Email, string(data), a.ID, a.Version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.staleOrMissing(ctx, op, a.ID, a.Version)
	}
	if err != nil {
		return nil, pgErr(op, err)
	}
	return saved, nil
}

func (s *pgUsers) PatchOrders(ctx context.Context, id string, orders []order.Order, version int) (*user.Account, error) {
	const op = "users.patchOrders"
	if orders == nil {
		orders = []order.Order{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return nil, gatewayErr(op, 0, err)
	}

	saved, err := scanAccount(s.db.QueryRowContext(ctx,
		`UPDATE users SET doc = jsonb_set(doc, '{orders}', $1::jsonb), version = version + 1
		 WHERE id = $2 AND version = $3
		 RETURNING doc, version`,
		string(data), id, version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.staleOrMissing(ctx, op, id, version)
	}
	if err != nil {
		return nil, pgErr(op, err)
	}
	return saved, nil
}

func (s *pgUsers) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return pgErr("users.delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatewayErr("users.delete", 0, ErrNotFound)
	}
	return nil
}
