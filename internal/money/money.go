// Package money converts between the storefront's display price strings
// ("₹699") and integer paise amounts used for arithmetic.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol prefixes every price string on the wire.
const Symbol = "₹"

// Amount is a sum of money in paise (1/100 rupee).
type Amount int64

// PriceParseError reports a price string that is not Symbol followed by a
// non-negative integer.
type PriceParseError struct {
	Price string
}

func (e *PriceParseError) Error() string {
	return fmt.Sprintf("invalid price %q: expected %s followed by whole rupees", e.Price, Symbol)
}

// Rupees builds an Amount from whole rupees.
func Rupees(r int64) Amount { return Amount(r * 100) }

// ParsePrice parses a display price such as "₹699". The symbol is optional
// so that values typed into admin forms ("699") parse the same way.
func ParsePrice(s string) (Amount, error) {
	digits := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), Symbol))
	if digits == "" {
		return 0, &PriceParseError{Price: s}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, &PriceParseError{Price: s}
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &PriceParseError{Price: s}
	}
	return Rupees(n), nil
}

// PriceString renders whole rupees in wire format, e.g. "₹699".
func PriceString(rupees int64) string {
	return Symbol + strconv.FormatInt(rupees, 10)
}

// NormalizePrice strips any symbol and whitespace an admin typed and
// re-renders the price in wire format. An empty value becomes "₹0".
func NormalizePrice(s string) (string, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, Symbol, ""))
	if clean == "" {
		return PriceString(0), nil
	}
	a, err := ParsePrice(clean)
	if err != nil {
		return "", err
	}
	return PriceString(int64(a) / 100), nil
}

// Percent returns p percent of a, rounded half away from zero.
func (a Amount) Percent(p int64) Amount {
	return Amount(math.Round(float64(int64(a)*p) / 100))
}

// Float returns the amount in rupees.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

var printer = message.NewPrinter(language.English)

// String formats the amount for display with digit grouping: "₹1,897" or
// "₹34.95".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign, v = "-", -v
	}
	whole := printer.Sprintf("%d", v/100)
	if frac := v % 100; frac != 0 {
		return fmt.Sprintf("%s%s%s.%02d", sign, Symbol, whole, frac)
	}
	return sign + Symbol + whole
}

// MarshalJSON encodes the amount as a rupee number (34.95), matching the
// documents already stored by the gateway.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Float(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a rupee number.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", s, err)
	}
	*a = Amount(math.Round(f * 100))
	return nil
}
