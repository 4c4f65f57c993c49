// Package address holds shipping addresses and the whole-list transforms
// used by profile editing. Every transform returns a new slice; callers
// persist the full list back onto the account.
package address

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/shop"
)

var ErrAddressNotFound = errors.New("address not found")

type Type string

const (
	TypeHome  Type = "home"
	TypeWork  Type = "work"
	TypeOther Type = "other"
)

const DefaultCountry = "India"

type Address struct {
	ID          string `json:"id,omitempty"`
	FullName    string `json:"fullName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	AddressType Type   `json:"addressType,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

// NewID returns a time-based address id.
func NewID(now time.Time) string {
	return "addr_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Normalize trims every field and fills in the country and address type.
func (a Address) Normalize() Address {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	if a.AddressType == "" {
		a.AddressType = TypeHome
	}
	return a
}

// ValidateShipping checks what checkout needs: every required field is
// present and the phone is exactly ten digits.
func (a Address) ValidateShipping() error {
	required := []struct{ field, label, value string }{
		{"fullName", "full name", a.FullName},
		{"address", "address", a.Address},
		{"city", "city", a.City},
		{"state", "state", a.State},
		{"pincode", "PIN code", a.Pincode},
		{"phone", "phone number", a.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return shop.Invalid(r.field, r.label+" is required")
		}
	}
	if !isDigits(a.Phone, 10) {
		return shop.Invalid("phone", "please enter a valid 10-digit phone number")
	}
	return nil
}

// Validate applies the profile form rules on top of ValidateShipping.
func (a Address) Validate() error {
	if err := a.ValidateShipping(); err != nil {
		return err
	}
	if len(a.Pincode) < 6 {
		return shop.Invalid("pincode", "please enter a valid PIN code")
	}
	switch a.AddressType {
	case "", TypeHome, TypeWork, TypeOther:
	default:
		return shop.Invalid("addressType", "address type must be home, work or other")
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Clone copies a list so callers can transform it without aliasing.
func Clone(list []Address) []Address {
	out := make([]Address, len(list))
	copy(out, list)
	return out
}

// Add appends a with a fresh id. The first address becomes the default.
func Add(list []Address, a Address, now time.Time) ([]Address, Address) {
	a.ID = NewID(now)
	a.IsDefault = len(list) == 0
	return append(Clone(list), a), a
}

// Merge lays the non-blank fields of patch over a. The id and default flag
// are owned by the list and are never taken from patch.
func (a Address) Merge(patch Address) Address {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&a.FullName, patch.FullName)
	set(&a.Address, patch.Address)
	set(&a.City, patch.City)
	set(&a.State, patch.State)
	set(&a.Pincode, patch.Pincode)
	set(&a.Country, patch.Country)
	set(&a.Phone, patch.Phone)
	if patch.AddressType != "" {
		a.AddressType = patch.AddressType
	}
	return a
}

// Update merges patch over the address with the given id and validates the
// result.
func Update(list []Address, id string, patch Address) ([]Address, error) {
	out := Clone(list)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		merged := out[i].Merge(patch).Normalize()
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		out[i] = merged
		return out, nil
	}
	return nil, ErrAddressNotFound
}

// Reconcile normalises a list supplied wholesale: addresses without an id
// get one and exactly one address is the default, the first flagged one or
// else the first in the list.
func Reconcile(list []Address, now time.Time) []Address {
	out := make([]Address, len(list))
	seen := make(map[string]bool, len(list))
	for i, a := range list {
		out[i] = a.Normalize()
		if out[i].ID != "" {
			seen[out[i].ID] = true
		}
	}
	base := NewID(now)
	next := 0
	hasDefault := false
	for i := range out {
		if out[i].ID == "" {
			id := base
			for seen[id] {
				next++
				id = base + "_" + strconv.Itoa(next)
			}
			out[i].ID = id
			seen[id] = true
		}
		if out[i].IsDefault && hasDefault {
			out[i].IsDefault = false
		}
		hasDefault = hasDefault || out[i].IsDefault
	}
	if !hasDefault && len(out) > 0 {
		out[0].IsDefault = true
	}
	return out
}

// Delete removes the address with the given id. When the default address
// is removed the first remaining one takes its place.
func Delete(list []Address, id string) ([]Address, error) {
	out := make([]Address, 0, len(list))
	var removed *Address
	for i := range list {
		if list[i].ID == id {
			removed = &list[i]
			continue
		}
		out = append(out, list[i])
	}
	if removed == nil {
		return nil, ErrAddressNotFound
	}
	if removed.IsDefault && len(out) > 0 {
		out[0].IsDefault = true
	}
	return out, nil
}

// SetDefault marks id as the default and clears the flag everywhere else.
func SetDefault(list []Address, id string) ([]Address, error) {
	found := false
	out := Clone(list)
	for i := range out {
		out[i].IsDefault = out[i].ID == id
		found = found || out[i].IsDefault
	}
	if !found {
		return nil, ErrAddressNotFound
	}
	return out, nil
}

// Default returns the default address, if any.
func Default(list []Address) (Address, bool) {
	for _, a := range list {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}
