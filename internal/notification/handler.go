package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/events"
)

// Mailer sends the order emails.
type Mailer interface {
	SendOrderConfirmation(e order.OrderPlaced) error
	SendStatusUpdate(e order.OrderStatusChanged) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer) *Handler {
	return &Handler{mailer: mailer}
}

// HandleEvent processes an event from Kafka. Malformed messages are logged
// and skipped so that they do not block the partition.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return nil
	}

	switch event.Type {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case order.EventOrderStatusChanged:
		return h.handleStatusChanged(event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(event events.Event) error {
	var e order.OrderPlaced
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return nil
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	if e.Email == "" {
		log.Printf("[Notifier] No email on order %s, skipping", e.OrderID)
		return nil
	}

	if err := h.mailer.SendOrderConfirmation(e); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", e.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", e.Email, e.OrderID)
	return nil
}

func (h *Handler) handleStatusChanged(event events.Event) error {
	var e order.OrderStatusChanged
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderStatusChanged event: %v", err)
		return nil
	}

	if e.Email == "" {
		log.Printf("[Notifier] No email on order %s, skipping", e.OrderID)
		return nil
	}

	if err := h.mailer.SendStatusUpdate(e); err != nil {
		log.Printf("[Notifier] Failed to send status email to %s: %v", e.Email, err)
		return err
	}

	log.Printf("[Notifier] Status email (%s -> %s) sent to %s for order %s", e.From, e.To, e.Email, e.OrderID)
	return nil
}
