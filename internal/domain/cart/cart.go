package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/money"
	"github.com/example/brownie-shop/internal/notify"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id is required")
)

// LineItem is a product snapshot taken when it was added, plus a quantity.
// It encodes flat, as the product fields with a quantity beside them.
type LineItem struct {
	product.Product
	Quantity int `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (li LineItem) Subtotal() (money.Amount, error) {
	price, err := li.UnitPrice()
	if err != nil {
		return 0, err
	}
	return price * money.Amount(li.Quantity), nil
}

// Sum totals a list of line items.
func Sum(items []LineItem) (money.Amount, error) {
	var total money.Amount
	for _, li := range items {
		sub, err := li.Subtotal()
		if err != nil {
			return 0, fmt.Errorf("line item %s: %w", li.ID, err)
		}
		total += sub
	}
	return total, nil
}

// CloneItems deep-copies a list of line items.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, li := range items {
		out[i] = LineItem{Product: li.Product.Clone(), Quantity: li.Quantity}
	}
	return out
}

// Mirror persists the cart between process restarts.
type Mirror interface {
	Save(ctx context.Context, key string, v any) error
}

// Store is the cart of one browsing session. Items keep insertion order and
// hold at most one line per product id. Every mutation is written through
// to the mirror; mirror failures are logged and otherwise ignored.
type Store struct {
	mu     sync.RWMutex
	items  []LineItem
	mirror Mirror
	key    string
	notes  notify.Sink
}

// NewStore builds a cart seeded with items previously loaded from the
// mirror. Items with a non-positive quantity are dropped.
func NewStore(items []LineItem, mirror Mirror, key string, notes notify.Sink) *Store {
	if notes == nil {
		notes = notify.Discard{}
	}
	kept := make([]LineItem, 0, len(items))
	for _, li := range items {
		if li.Quantity > 0 && li.ID != "" {
			kept = append(kept, li)
		}
	}
	return &Store{items: kept, mirror: mirror, key: key, notes: notes}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ID == productID {
			return i
		}
	}
	return -1
}

// Add puts quantity units of p into the cart, incrementing the existing line
// when p is already present.
func (s *Store) Add(ctx context.Context, p product.Product, quantity int) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := p.UnitPrice(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity += quantity
		plural := ""
		if quantity > 1 {
			plural = "'s"
		}
		s.notes.Push(notify.Success(
			fmt.Sprintf("Added %d more %s%s to cart! (Now %d)", quantity, p.Name, plural, s.items[i].Quantity),
			"➕",
		))
	} else {
		s.items = append(s.items, LineItem{Product: p.Clone(), Quantity: quantity})
		s.notes.Push(notify.Success(p.Name+" added to cart!", "🛒"))
	}

	s.persist(ctx)
	return nil
}

// Remove deletes the line for productID. Removing an absent product is a
// no-op and produces no notification.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(ctx, productID)
}

func (s *Store) remove(ctx context.Context, productID string) {
	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	name := s.items[i].Name
	s.items = append(s.items[:i], s.items[i+1:]...)
	if name != "" {
		s.notes.Push(notify.Info(name+" removed from cart", "🗑️"))
	}
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of productID. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.remove(ctx, productID)
		return
	}
	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.items[i].Quantity = quantity
	s.notes.Push(notify.Info(fmt.Sprintf("Updated %s quantity to %d", s.items[i].Name, quantity), "✏️"))
	s.persist(ctx)
}

// Clear empties the cart and tells the shopper.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
	s.notes.Push(notify.Info("Cart cleared successfully!", "🧹"))
	s.persist(ctx)
}

// Reset empties the cart without a notification. Checkout uses it after an
// order has been stored.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
	s.persist(ctx)
}

// Items returns a deep copy of the line items in display order.
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneItems(s.items)
}

// Total is the sum of unit price times quantity over every line.
func (s *Store) Total() (money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Sum(s.items)
}

// Count is the sum of quantities, used for the cart badge.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, li := range s.items {
		n += li.Quantity
	}
	return n
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

func (s *Store) persist(ctx context.Context) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Save(ctx, s.key, CloneItems(s.items)); err != nil {
		log.Printf("[Cart] Failed to mirror cart %s: %v", s.key, err)
	}
}
