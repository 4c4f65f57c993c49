// Package checkout turns the cart of a signed-in shopper into an order.
package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/infrastructure/store"
	"github.com/example/brownie-shop/internal/notify"
	"github.com/example/brownie-shop/internal/session"
	"github.com/example/brownie-shop/internal/shop"
)

// Request is the checkout form.
type Request struct {
	ShippingAddress address.Address `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Payment         PaymentDetails  `json:"payment"`
}

type Service struct {
	users   store.UserStore
	emitter *events.Emitter
	now     func() time.Time
}

func NewService(users store.UserStore, emitter *events.Emitter) *Service {
	return &Service{users: users, emitter: emitter, now: time.Now}
}

// PlaceOrder appends an order built from the session's cart to the
// shopper's account. The account is re-read from the gateway and written
// back with the version it was read at, so a concurrent change makes the
// write fail instead of being overwritten. The cart is emptied only after
// the write succeeds.
func (s *Service) PlaceOrder(ctx context.Context, sess *session.Session, req Request) (*order.Order, error) {
	acc := sess.Account()
	if acc == nil {
		sess.Notes.Push(notify.Error("Please login to proceed to checkout"))
		return nil, shop.ErrNotAuthenticated
	}

	items := sess.Cart.Items()
	if len(items) == 0 {
		sess.Notes.Push(notify.Error("Your cart is empty"))
		return nil, shop.ErrEmptyCart
	}

	ship := req.ShippingAddress.Normalize()
	if err := ship.ValidateShipping(); err != nil {
		sess.Notes.Push(notify.Failure(err, "Please fill all shipping address fields"))
		return nil, err
	}

	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		sess.Notes.Push(notify.Failure(err, "Please choose a payment method"))
		return nil, err
	}
	if err := req.Payment.Validate(method); err != nil {
		sess.Notes.Push(notify.Failure(err, "Please check your payment details"))
		return nil, err
	}

	o, err := order.New(acc.ID, items, ship, method, s.now())
	if err != nil {
		sess.Notes.Push(notify.Error("Payment failed. Please try again."))
		return nil, err
	}

	saved, err := s.appendOrder(ctx, acc.ID, o)
	if err != nil {
		log.Printf("[Checkout] Failed to place order %s for %s: %v", o.ID, acc.ID, err)
		sess.Notes.Push(notify.Error("Payment failed. Please try again."))
		return nil, &shop.PaymentError{Err: err}
	}

	sess.Cart.Reset(ctx)
	sess.SignIn(ctx, saved)
	sess.Notes.Push(notify.Success("Order placed successfully!", "🎉"))

	log.Printf("[Checkout] Order %s placed by %s: %s", o.ID, acc.ID, o.Total)
	s.emitter.Emit(ctx, order.EventOrderPlaced, o.ID, order.Placed(o, saved.Email, saved.DisplayName()))
	return o, nil
}

func (s *Service) appendOrder(ctx context.Context, userID string, o *order.Order) (*user.Account, error) {
	acc, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	acc.Normalize()
	acc.Orders = append(acc.Orders, *o)

	saved, err := s.users.Replace(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return saved, nil
}

// History returns the shopper's orders, newest first. Orders are read from
// the gateway so that status changes made by an admin are visible.
func (s *Service) History(ctx context.Context, sess *session.Session) ([]order.Order, error) {
	acc := sess.Account()
	if acc == nil {
		return nil, shop.ErrNotAuthenticated
	}
	fresh, err := s.users.Get(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return order.NewestFirst(fresh.Orders), nil
}
