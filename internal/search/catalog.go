package search

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/infrastructure/store"
)

// Catalog answers product queries from the gateway.
type Catalog struct {
	products store.ProductStore
}

func NewCatalog(products store.ProductStore) *Catalog {
	return &Catalog{products: products}
}

func (c *Catalog) List(ctx context.Context) ([]product.Product, error) {
	list, err := c.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return list, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*product.Product, error) {
	p, err := c.products.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// Search asks the gateway first. When its search fails or finds nothing,
// the full list is filtered locally, since the gateway's own matching may
// skip fields such as ingredients.
func (c *Catalog) Search(ctx context.Context, query string) ([]product.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.List(ctx)
	}

	found, err := c.products.Search(ctx, query)
	if err != nil {
		log.Printf("[Search] Gateway search for %q failed, filtering locally: %v", query, err)
	} else if len(found) > 0 {
		return found, nil
	}

	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, query), nil
}

// Suggestions returns the suggestion list for query.
func (c *Catalog) Suggestions(ctx context.Context, query string) ([]product.Product, error) {
	if len([]rune(strings.TrimSpace(query))) < MinSuggestLength {
		return []product.Product{}, nil
	}
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return Suggest(all, query), nil
}
