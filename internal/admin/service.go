// Package admin backs the admin console: dashboard figures, catalog
// editing, order fulfilment and user moderation.
package admin

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/guard"
	"github.com/example/brownie-shop/internal/infrastructure/store"
	"github.com/example/brownie-shop/internal/money"
	"github.com/example/brownie-shop/internal/shop"
)

// RecentOrderCount is how many orders the dashboard lists.
const RecentOrderCount = 5

type Service struct {
	gw      store.Gateway
	guard   *guard.Guard
	emitter *events.Emitter
	now     func() time.Time
}

func NewService(gw store.Gateway, g *guard.Guard, emitter *events.Emitter) *Service {
	return &Service{gw: gw, guard: g, emitter: emitter, now: time.Now}
}

// OrderView is an order together with the account that placed it.
type OrderView struct {
	order.Order
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalRevenue  money.Amount `json:"totalRevenue"`
	TotalOrders   int          `json:"totalOrders"`
	ActiveUsers   int          `json:"activeUsers"`
	TotalProducts int          `json:"totalProducts"`
	RecentOrders  []OrderView  `json:"recentOrders"`
}

// Stats counts revenue from confirmed and delivered orders only. Active
// users are shoppers with at least one order.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.gw.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	products, err := s.gw.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	stats := &Stats{TotalProducts: len(products)}
	all := collectOrders(users)
	for _, u := range users {
		if len(u.Orders) > 0 && u.Role != user.RoleAdmin {
			stats.ActiveUsers++
		}
	}
	for _, o := range all {
		if o.Status == order.StatusConfirmed || o.Status == order.StatusDelivered {
			stats.TotalRevenue += o.Total
		}
	}
	stats.TotalOrders = len(all)

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	if len(all) > RecentOrderCount {
		all = all[:RecentOrderCount]
	}
	stats.RecentOrders = all
	return stats, nil
}

func collectOrders(users []user.Account) []OrderView {
	out := []OrderView{}
	for _, u := range users {
		for _, o := range u.Orders {
			o.UserID = u.ID
			out = append(out, OrderView{Order: o, UserName: u.DisplayName(), UserEmail: u.Email})
		}
	}
	return out
}

// ============================================
// Catalog
// ============================================

// CreateProduct fills blank fields with the catalog defaults.
func (s *Service) CreateProduct(ctx context.Context, p product.Product) (*product.Product, error) {
	prepared, err := product.Prepare(p, true)
	if err != nil {
		return nil, err
	}
	prepared.ID = ""
	created, err := s.gw.Products.Create(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	log.Printf("[Admin] Created product %s (%s)", created.ID, created.Name)
	return created, nil
}

// UpdateProduct replaces product id. Only the price is normalised.
func (s *Service) UpdateProduct(ctx context.Context, id string, p product.Product) (*product.Product, error) {
	prepared, err := product.Prepare(p, false)
	if err != nil {
		return nil, err
	}
	prepared.ID = id
	updated, err := s.gw.Products.Replace(ctx, prepared)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.gw.Products.Delete(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return product.ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	log.Printf("[Admin] Deleted product %s", id)
	return nil
}

// ============================================
// Orders
// ============================================

// ListOrders returns every order of every account, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]OrderView, error) {
	users, err := s.gw.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	all := collectOrders(users)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	return all, nil
}

// UpdateOrderStatus moves one order through the status machine and writes
// back only the account's order list.
func (s *Service) UpdateOrderStatus(ctx context.Context, userID, orderID, status string) (*order.Order, error) {
	target, err := order.ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}

	acc, err := s.gw.Users.Get(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	i, err := order.Find(acc.Orders, orderID)
	if err != nil {
		return nil, err
	}
	orders := append([]order.Order(nil), acc.Orders...)
	from := orders[i].Status
	if err := orders[i].TransitionTo(target, s.now()); err != nil {
		return nil, err
	}

	if _, err := s.gw.Users.PatchOrders(ctx, acc.ID, orders, acc.Version); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	updated := orders[i]
	log.Printf("[Admin] Order %s: %s -> %s", orderID, from, target)
	s.emitter.Emit(ctx, order.EventOrderStatusChanged, orderID, order.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    acc.ID,
		Email:     acc.Email,
		Name:      acc.DisplayName(),
		From:      from,
		To:        target,
		ChangedAt: *updated.UpdatedAt,
	})
	return &updated, nil
}

// ============================================
// Users
// ============================================

// UserView is a shopper account annotated with its block status.
type UserView struct {
	user.Account
	Blocked     bool   `json:"blocked"`
	BlockID     string `json:"blockId,omitempty"`
	BlockReason string `json:"blockReason,omitempty"`
}

// ListUsers returns every non-admin account without credentials.
func (s *Service) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.gw.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	records, err := s.guard.List(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]block.Record)
	byEmail := make(map[string]block.Record)
	for _, r := range records {
		if _, ok := byUser[r.UserID]; !ok && r.UserID != "" {
			byUser[r.UserID] = r
		}
		if _, ok := byEmail[r.Email]; !ok && r.Email != "" {
			byEmail[r.Email] = r
		}
	}

	out := []UserView{}
	for i := range users {
		u := &users[i]
		if u.Role == user.RoleAdmin {
			continue
		}
		pub := u.Public()
		pub.Normalize()
		view := UserView{Account: *pub}
		rec, ok := byUser[u.ID]
		if !ok {
			rec, ok = byEmail[u.Email]
		}
		if ok {
			view.Blocked = true
			view.BlockID = rec.ID
			view.BlockReason = rec.Reason
		}
		out = append(out, view)
	}
	return out, nil
}

// GetUser returns one account without credentials.
func (s *Service) GetUser(ctx context.Context, id string) (*user.Account, error) {
	acc, err := s.loadShopper(ctx, id)
	if err != nil {
		return nil, err
	}
	return acc.Public(), nil
}

// DeleteUser removes a shopper account. Admin accounts cannot be deleted
// from the console.
func (s *Service) DeleteUser(ctx context.Context, adminID, id string) error {
	if _, err := s.loadShopper(ctx, id); err != nil {
		return err
	}
	if err := s.gw.Users.Delete(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	log.Printf("[Admin] User %s deleted by %s", id, adminID)
	s.emitter.Emit(ctx, user.EventUserDeleted, id, user.UserDeleted{
		UserID:    id,
		DeletedBy: adminID,
		DeletedAt: s.now().UTC(),
	})
	return nil
}

// BlockUser stops a shopper from signing in.
func (s *Service) BlockUser(ctx context.Context, adminID, id, reason string) (*block.Record, error) {
	acc, err := s.loadShopper(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.guard.Block(ctx, acc.ID, acc.Email, adminID, reason)
}

// UnblockUser removes every block record for the shopper.
func (s *Service) UnblockUser(ctx context.Context, id string) (int, error) {
	acc, err := s.loadShopper(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.guard.UnblockUser(ctx, acc.ID, acc.Email)
}

func (s *Service) loadShopper(ctx context.Context, id string) (*user.Account, error) {
	acc, err := s.gw.Users.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if acc.IsAdmin() {
		return nil, fmt.Errorf("%w: admin accounts are managed outside the console", shop.ErrForbidden)
	}
	return acc, nil
}
