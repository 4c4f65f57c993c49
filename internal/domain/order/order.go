package order

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/cart"
	"github.com/example/brownie-shop/internal/money"
	"github.com/example/brownie-shop/internal/shop"
)

type Status string

// Orders start out confirmed; there is no separate confirmation step.
const (
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCOD  PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// TaxPercent and CODFee are flat for every order.
const TaxPercent = 5

var CODFee = money.Rupees(20)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrEmptyOrder     = errors.New("order must have at least one item")
	ErrInvalidStatus  = errors.New("invalid order status transition")
	ErrOrderCancelled = errors.New("order is already cancelled")
	ErrOrderDelivered = errors.New("order is already delivered")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validTransitions[st]; !ok {
		return "", shop.Invalid("status", fmt.Sprintf("unknown order status %q", s))
	}
	return st, nil
}

// ParsePaymentMethod validates a payment method name.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentCard, PaymentUPI, PaymentCOD:
		return m, nil
	}
	return "", shop.Invalid("paymentMethod", "payment method must be card, upi or cod")
}

// Costs is the price breakdown of an order. Total is fixed when the order
// is created and never recomputed.
type Costs struct {
	Subtotal money.Amount `json:"subtotal"`
	Tax      money.Amount `json:"tax"`
	CODFee   money.Amount `json:"codFee"`
	Total    money.Amount `json:"total"`
}

// CalculateCosts applies the flat tax and, for cash on delivery, the COD fee.
func CalculateCosts(subtotal money.Amount, method PaymentMethod) Costs {
	c := Costs{Subtotal: subtotal, Tax: subtotal.Percent(TaxPercent)}
	if method == PaymentCOD {
		c.CODFee = CODFee
	}
	c.Total = c.Subtotal + c.Tax + c.CODFee
	return c
}

type Order struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Date   time.Time       `json:"date"`
	Items  []cart.LineItem `json:"items"`
	Costs
	Status          Status          `json:"status"`
	ShippingAddress address.Address `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	UpdatedAt       *time.Time      `json:"updatedAt,omitempty"`
}

// Clone deep-copies the order.
func (o Order) Clone() Order {
	if o.Items != nil {
		o.Items = cart.CloneItems(o.Items)
	}
	if o.UpdatedAt != nil {
		t := *o.UpdatedAt
		o.UpdatedAt = &t
	}
	return o
}

// NewID returns a time-based order id.
func NewID(now time.Time) string {
	return "ORD" + strconv.FormatInt(now.UnixMilli(), 10)
}

// New snapshots items into a confirmed order. Payment is pending for cash on
// delivery and completed otherwise.
func New(userID string, items []cart.LineItem, ship address.Address, method PaymentMethod, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}
	subtotal, err := cart.Sum(items)
	if err != nil {
		return nil, err
	}

	paymentStatus := PaymentCompleted
	if method == PaymentCOD {
		paymentStatus = PaymentPending
	}

	return &Order{
		ID:              NewID(now),
		UserID:          userID,
		Date:            now.UTC(),
		Items:           cart.CloneItems(items),
		Costs:           CalculateCosts(subtotal, method),
		Status:          StatusConfirmed,
		ShippingAddress: ship,
		PaymentMethod:   method,
		PaymentStatus:   paymentStatus,
	}, nil
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	switch o.Status {
	case StatusCancelled:
		return ErrOrderCancelled
	case StatusDelivered:
		return ErrOrderDelivered
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}
}

// TransitionTo moves the order to target. Delivering a cash-on-delivery
// order marks its payment completed.
func (o *Order) TransitionTo(target Status, now time.Time) error {
	if !o.CanTransitionTo(target) {
		return o.transitionError(target)
	}
	o.Status = target
	if target == StatusDelivered && o.PaymentMethod == PaymentCOD {
		o.PaymentStatus = PaymentCompleted
	}
	at := now.UTC()
	o.UpdatedAt = &at
	return nil
}

// Find returns the index of the order with the given id.
func Find(orders []Order, id string) (int, error) {
	for i := range orders {
		if orders[i].ID == id {
			return i, nil
		}
	}
	return -1, ErrOrderNotFound
}

// NewestFirst returns a copy of orders sorted by date, newest first.
func NewestFirst(orders []Order) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
