package product

import (
	"errors"
	"strings"

	"github.com/example/brownie-shop/internal/money"
	"github.com/example/brownie-shop/internal/shop"
)

var ErrProductNotFound = errors.New("product not found")

// Defaults applied to admin-created products when a field is left blank.
const (
	DefaultTag         = "New"
	DefaultCategory    = "Brownies"
	DefaultWeight      = "300g"
	DefaultServings    = "2-4 people"
	DefaultAllergens   = "Contains dairy, gluten, and nuts"
	DefaultDescription = "Delicious premium product"
	DefaultImage       = "/images/placeholder.jpg"
	DefaultIngredient  = "Premium ingredients"
)

// Product is a catalog entry. Price keeps the display format ("₹699").
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Weight      string   `json:"weight,omitempty"`
	Servings    string   `json:"servings,omitempty"`
	Allergens   string   `json:"allergens,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tag         string   `json:"tag,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// UnitPrice parses the display price.
func (p Product) UnitPrice() (money.Amount, error) {
	return money.ParsePrice(p.Price)
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	if p.Ingredients != nil {
		p.Ingredients = append([]string(nil), p.Ingredients...)
	}
	return p
}

// Prepare normalises an admin-submitted product: the price is re-rendered
// in wire format and, when withDefaults is set, blank fields are filled in.
func Prepare(p Product, withDefaults bool) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Product{}, shop.Invalid("name", "name is required")
	}

	price, err := money.NormalizePrice(p.Price)
	if err != nil {
		return Product{}, shop.Invalid("price", err.Error())
	}
	p.Price = price

	if !withDefaults {
		return p, nil
	}
	if p.Tag == "" {
		p.Tag = DefaultTag
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.Ingredients == nil {
		p.Ingredients = []string{DefaultIngredient}
	}
	if p.Weight == "" {
		p.Weight = DefaultWeight
	}
	if p.Servings == "" {
		p.Servings = DefaultServings
	}
	if p.Allergens == "" {
		p.Allergens = DefaultAllergens
	}
	if p.Description == "" {
		p.Description = DefaultDescription
	}
	if p.Image == "" {
		p.Image = DefaultImage
	}
	return p, nil
}
