package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/shop"
)

var ErrUserNotFound = errors.New("user not found")

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	MinNameLength     = 3
	MinPasswordLength = 6
)

type Profile struct {
	Avatar    *string           `json:"avatar"`
	Phone     string            `json:"phone"`
	Addresses []address.Address `json:"addresses"`
}

// Account is the user document held by the gateway. Orders live inside it
// and every profile or order change rewrites the whole document. Version is
// bumped by the gateway on each write and used to reject stale writes.
type Account struct {
	ID           string        `json:"id"`
	FName        string        `json:"fname"`
	LName        string        `json:"lname,omitempty"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"passwordHash,omitempty"`
	Password     string        `json:"password,omitempty"` // legacy plaintext, cleared on next login
	Role         Role          `json:"role"`
	Profile      Profile       `json:"profile"`
	Orders       []order.Order `json:"orders"`
	CreatedAt    *time.Time    `json:"createdAt,omitempty"`
	Version      int           `json:"version"`
}

// Normalize backfills fields older documents may be missing.
func (a *Account) Normalize() {
	if a.Role == "" {
		a.Role = RoleUser
	}
	if a.Profile.Addresses == nil {
		a.Profile.Addresses = []address.Address{}
	}
	if a.Orders == nil {
		a.Orders = []order.Order{}
	}
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DisplayName is the first name, or the email when no name is set.
func (a *Account) DisplayName() string {
	if a.FName != "" {
		return a.FName
	}
	return a.Email
}

func (a *Account) FullName() string {
	return strings.TrimSpace(a.FName + " " + a.LName)
}

// Public returns a deep copy without credentials, fit for the session
// mirror and API responses.
func (a *Account) Public() *Account {
	c := a.Clone()
	c.PasswordHash = ""
	c.Password = ""
	return c
}

// Clone deep-copies the account.
func (a *Account) Clone() *Account {
	c := *a
	if a.Profile.Avatar != nil {
		v := *a.Profile.Avatar
		c.Profile.Avatar = &v
	}
	if a.Profile.Addresses != nil {
		c.Profile.Addresses = address.Clone(a.Profile.Addresses)
	}
	if a.Orders != nil {
		c.Orders = make([]order.Order, len(a.Orders))
		for i := range a.Orders {
			c.Orders[i] = a.Orders[i].Clone()
		}
	}
	if a.CreatedAt != nil {
		t := *a.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}

// Registration is the sign-up form.
type Registration struct {
	FName           string `json:"fname"`
	LName           string `json:"lname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"cpassword"`
}

func (r Registration) Validate() error {
	if len(strings.TrimSpace(r.FName)) < MinNameLength {
		return shop.Invalid("fname", "first name must be at least 3 characters")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < MinPasswordLength {
		return shop.Invalid("password", "password must be at least 6 characters")
	}
	if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
		return shop.Invalid("cpassword", "passwords do not match")
	}
	return nil
}

// NewAccount builds the document created at registration: role user, an
// empty profile and no orders. The id is assigned by the gateway.
func NewAccount(r Registration, passwordHash string, now time.Time) *Account {
	created := now.UTC()
	return &Account{
		FName:        strings.TrimSpace(r.FName),
		LName:        strings.TrimSpace(r.LName),
		Email:        strings.TrimSpace(r.Email),
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Profile:      Profile{Addresses: []address.Address{}},
		Orders:       []order.Order{},
		CreatedAt:    &created,
	}
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	if len(c.Password) < MinPasswordLength {
		return shop.Invalid("password", "password must be at least 6 characters")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return shop.Invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return shop.Invalid("email", "enter a valid email")
	}
	return nil
}

// ProfilePatch carries the profile fields to change. Nil fields are left
// as they are.
type ProfilePatch struct {
	Avatar    *string            `json:"avatar,omitempty"`
	Phone     *string            `json:"phone,omitempty"`
	Addresses *[]address.Address `json:"addresses,omitempty"`
}

// Apply merges p over the existing profile. A replacement address list is
// reconciled so every address has an id and exactly one is the default.
func (p ProfilePatch) Apply(profile Profile, now time.Time) Profile {
	if p.Avatar != nil {
		v := *p.Avatar
		profile.Avatar = &v
	}
	if p.Phone != nil {
		profile.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Addresses != nil {
		profile.Addresses = address.Reconcile(*p.Addresses, now)
	}
	if profile.Addresses == nil {
		profile.Addresses = []address.Address{}
	}
	return profile
}

// Validate checks the phone and any replacement addresses.
func (p ProfilePatch) Validate() error {
	if p.Addresses != nil {
		for _, a := range *p.Addresses {
			if err := a.Normalize().Validate(); err != nil {
				return err
			}
		}
	}
	if p.Phone == nil {
		return nil
	}
	phone := strings.TrimSpace(*p.Phone)
	if phone == "" {
		return nil
	}
	if len(phone) != 10 || strings.Trim(phone, "0123456789") != "" {
		return shop.Invalid("phone", "please enter a valid 10-digit phone number")
	}
	return nil
}
