package store

import (
	"context"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/domain/user"
)

// UserStore holds user documents. Replace and PatchOrders are guarded by
// the document version: a write carrying a stale version fails with
// shop.ErrConflict and the stored document is returned with its new version.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) ([]user.Account, error)
	Get(ctx context.Context, id string) (*user.Account, error)
	List(ctx context.Context) ([]user.Account, error)
	Create(ctx context.Context, a *user.Account) (*user.Account, error)
	Replace(ctx context.Context, a *user.Account) (*user.Account, error)
	PatchOrders(ctx context.Context, id string, orders []order.Order, version int) (*user.Account, error)
	Delete(ctx context.Context, id string) error
}

// ProductStore holds the catalog. Search is the store's own free-text
// match and may be cruder than the storefront's filter.
type ProductStore interface {
	List(ctx context.Context) ([]product.Product, error)
	Search(ctx context.Context, q string) ([]product.Product, error)
	Get(ctx context.Context, id string) (*product.Product, error)
	Create(ctx context.Context, p product.Product) (*product.Product, error)
	Replace(ctx context.Context, p product.Product) (*product.Product, error)
	Delete(ctx context.Context, id string) error
}

// BlockStore holds block records.
type BlockStore interface {
	FindByUserID(ctx context.Context, userID string) ([]block.Record, error)
	FindByEmail(ctx context.Context, email string) ([]block.Record, error)
	List(ctx context.Context) ([]block.Record, error)
	Create(ctx context.Context, r block.Record) (*block.Record, error)
	Delete(ctx context.Context, id string) error
}

// Gateway bundles the three collections.
type Gateway struct {
	Users    UserStore
	Products ProductStore
	Blocks   BlockStore
}
