package checkout

import (
	"regexp"
	"strings"

	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/shop"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
	upiPattern        = regexp.MustCompile(`^[\w.\-]{2,256}@[a-zA-Z]{2,64}$`)
)

// PaymentDetails is what the payment form collects. It is checked for
// shape and then dropped: no payment processor is contacted.
type PaymentDetails struct {
	CardNumber string `json:"cardNumber,omitempty"`
	Expiry     string `json:"expiryDate,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	UPIID      string `json:"upiId,omitempty"`
}

// Validate checks the fields the payment method needs. Cash on delivery
// needs none.
func (d PaymentDetails) Validate(method order.PaymentMethod) error {
	switch method {
	case order.PaymentCard:
		number := strings.ReplaceAll(strings.TrimSpace(d.CardNumber), " ", "")
		if number == "" {
			return shop.Invalid("cardNumber", "card number is required")
		}
		if !cardNumberPattern.MatchString(number) {
			return shop.Invalid("cardNumber", "card number must be 16 digits")
		}
		expiry := strings.TrimSpace(d.Expiry)
		if expiry == "" {
			return shop.Invalid("expiryDate", "expiry date is required")
		}
		if !expiryPattern.MatchString(expiry) {
			return shop.Invalid("expiryDate", "expiry must be in MM/YY format")
		}
		cvv := strings.TrimSpace(d.CVV)
		if cvv == "" {
			return shop.Invalid("cvv", "CVV is required")
		}
		if !cvvPattern.MatchString(cvv) {
			return shop.Invalid("cvv", "CVV must be 3 or 4 digits")
		}
	case order.PaymentUPI:
		upi := strings.TrimSpace(d.UPIID)
		if upi == "" {
			return shop.Invalid("upiId", "UPI ID is required")
		}
		if !upiPattern.MatchString(upi) {
			return shop.Invalid("upiId", "enter a valid UPI ID (ex: user@okicici)")
		}
	}
	return nil
}
