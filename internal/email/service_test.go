package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/money"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(sent *[]sentMail, err error) *Service {
	svc := NewService("localhost", "1025", "orders@brownie.shop")
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	}
	return svc
}

func placedFixture() order.OrderPlaced {
	return order.OrderPlaced{
		OrderID: "ORD1700000000000",
		UserID:  "u1",
		Email:   "asha@example.com",
		Name:    "Asha <Rao>",
		Items: []order.PlacedItem{
			{ProductID: "p1", Name: "Classic Fudge Brownie", Price: "₹699", Quantity: 2},
			{ProductID: "p2", Price: "₹1099", Quantity: 1},
		},
		Total:         money.Amount(262395),
		PaymentMethod: order.PaymentCOD,
		PlacedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	var sent []sentMail
	svc := newTestService(&sent, nil)

	require.NoError(t, svc.SendOrderConfirmation(placedFixture()))

	require.Len(t, sent, 1)
	assert.Equal(t, "localhost:1025", sent[0].addr)
	assert.Equal(t, "orders@brownie.shop", sent[0].from)
	assert.Equal(t, []string{"asha@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].msg, "Subject: Your Brownie Shop order #00000000 is confirmed")
	assert.Contains(t, sent[0].msg, "Classic Fudge Brownie")
	assert.Contains(t, sent[0].msg, "₹1,398")
	assert.Contains(t, sent[0].msg, "Cash on delivery")
}

func TestBuildOrderConfirmationBody_EscapesNames(t *testing.T) {
	body, err := BuildOrderConfirmationBody(placedFixture())
	require.NoError(t, err)

	assert.Contains(t, body, "Asha &lt;Rao&gt;")
	assert.NotContains(t, body, "<Rao>")
	// Missing names fall back to the product id.
	assert.Contains(t, body, ">p2<")
}

func TestBuildOrderConfirmationBody_BadPrice(t *testing.T) {
	e := placedFixture()
	e.Items[0].Price = "free"

	_, err := BuildOrderConfirmationBody(e)

	assert.Error(t, err)
}

func TestSendStatusUpdate(t *testing.T) {
	var sent []sentMail
	svc := newTestService(&sent, nil)

	err := svc.SendStatusUpdate(order.OrderStatusChanged{
		OrderID: "ORD1700000000000",
		Email:   "asha@example.com",
		Name:    "Asha",
		From:    order.StatusPreparing,
		To:      order.StatusShipped,
	})

	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].msg, "is shipped")
	assert.Contains(t, sent[0].msg, "on its way")
}

func TestSend_NoRecipient(t *testing.T) {
	var sent []sentMail
	svc := newTestService(&sent, nil)

	e := placedFixture()
	e.Email = ""

	assert.Error(t, svc.SendOrderConfirmation(e))
	assert.Empty(t, sent)
}

func TestSend_TransportError(t *testing.T) {
	var sent []sentMail
	svc := newTestService(&sent, errors.New("connection refused"))

	err := svc.SendOrderConfirmation(placedFixture())

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}
