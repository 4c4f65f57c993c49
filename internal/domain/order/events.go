package order

import (
	"time"

	"github.com/example/brownie-shop/internal/money"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderPlaced struct {
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Items         []PlacedItem  `json:"items"`
	Total         money.Amount  `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PlacedAt      time.Time     `json:"placed_at"`
}

type PlacedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// Placed builds the OrderPlaced payload for o.
func Placed(o *Order, email, name string) OrderPlaced {
	items := make([]PlacedItem, len(o.Items))
	for i, li := range o.Items {
		items[i] = PlacedItem{ProductID: li.ID, Name: li.Name, Price: li.Price, Quantity: li.Quantity}
	}
	return OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Email:         email,
		Name:          name,
		Items:         items,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		PlacedAt:      o.Date,
	}
}
