package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		expected Amount
	}{
		{"with symbol", "₹699", Rupees(699)},
		{"zero", "₹0", 0},
		{"without symbol", "499", Rupees(499)},
		{"surrounding spaces", " ₹ 120 ", Rupees(120)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParsePrice(tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a)
		})
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, price := range []string{"", "₹", "₹69.9", "₹1,000", "$10", "₹-5", "abc"} {
		t.Run(price, func(t *testing.T) {
			_, err := ParsePrice(price)
			var pe *PriceParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, price, pe.Price)
		})
	}
}

func TestNormalizePrice(t *testing.T) {
	p, err := NormalizePrice("₹₹ 250")
	require.NoError(t, err)
	assert.Equal(t, "₹250", p)

	p, err = NormalizePrice("")
	require.NoError(t, err)
	assert.Equal(t, "₹0", p)

	_, err = NormalizePrice("cheap")
	assert.Error(t, err)
}

func TestAmount_Percent(t *testing.T) {
	assert.Equal(t, Rupees(50), Rupees(1000).Percent(5))
	assert.Equal(t, Amount(3495), Rupees(699).Percent(5))
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "₹1,897", Rupees(1897).String())
	assert.Equal(t, "₹34.95", Amount(3495).String())
	assert.Equal(t, "₹0", Amount(0).String())
	assert.Equal(t, "₹1,070.05", Amount(107005).String())
}

func TestAmount_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Tax Amount `json:"tax"`
	}{Tax: Amount(3495)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tax":34.95}`, string(b))

	var v struct {
		Total Amount `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"total":1070}`), &v))
	assert.Equal(t, Rupees(1070), v.Total)
}
