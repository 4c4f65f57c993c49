package email

import (
	"fmt"
	"net/smtp"

	"github.com/example/brownie-shop/internal/domain/order"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send sendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(e order.OrderPlaced) error {
	subject := fmt.Sprintf("Your Brownie Shop order #%s is confirmed", shortID(e.OrderID))
	body, err := BuildOrderConfirmationBody(e)
	if err != nil {
		return err
	}
	return s.deliver(e.Email, subject, body)
}

// SendStatusUpdate tells the shopper their order moved to a new status.
func (s *Service) SendStatusUpdate(e order.OrderStatusChanged) error {
	subject := fmt.Sprintf("Your Brownie Shop order #%s is %s", shortID(e.OrderID), e.To)
	return s.deliver(e.Email, subject, BuildStatusUpdateBody(e))
}

func (s *Service) deliver(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[len(orderID)-8:]
	}
	return orderID
}
