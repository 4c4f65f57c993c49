// Package account signs shoppers up, in and out, and edits the profile of
// the signed-in account.
package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/auth"
	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/guard"
	"github.com/example/brownie-shop/internal/infrastructure/store"
	"github.com/example/brownie-shop/internal/notify"
	"github.com/example/brownie-shop/internal/session"
	"github.com/example/brownie-shop/internal/shop"
)

var ErrEmailTaken = errors.New("an account with this email already exists")

// Service works on the account held by a session. Every profile change is
// a read-modify-write of the whole user document, guarded by its version.
type Service struct {
	users   store.UserStore
	guard   *guard.Guard
	emitter *events.Emitter

	now          func() time.Time
	hashPassword func(string) (string, error)
}

func NewService(users store.UserStore, g *guard.Guard, emitter *events.Emitter) *Service {
	return &Service{
		users:        users,
		guard:        g,
		emitter:      emitter,
		now:          time.Now,
		hashPassword: auth.HashPassword,
	}
}

// Register creates a shopper account. It does not sign the shopper in.
func (s *Service) Register(ctx context.Context, sess *session.Session, r user.Registration) (*user.Account, error) {
	if err := r.Validate(); err != nil {
		sess.Notes.Push(notify.Failure(err, "Registration failed. Please try again."))
		return nil, err
	}

	email := strings.TrimSpace(r.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		sess.Notes.Push(notify.Error("Registration failed. Please try again."))
		return nil, &shop.RegistrationError{Err: err}
	}
	if len(existing) > 0 {
		sess.Notes.Push(notify.Error("An account with this email already exists"))
		return nil, &shop.RegistrationError{Err: ErrEmailTaken}
	}

	hash, err := s.hashPassword(r.Password)
	if err != nil {
		sess.Notes.Push(notify.Error("Registration failed. Please try again."))
		return nil, &shop.RegistrationError{Err: err}
	}

	created, err := s.users.Create(ctx, user.NewAccount(r, hash, s.now()))
	if err != nil {
		log.Printf("[Account] Failed to register %s: %v", email, err)
		sess.Notes.Push(notify.Error("Registration failed. Please try again."))
		return nil, &shop.RegistrationError{Err: err}
	}

	sess.Notes.Push(notify.Success("Account created successfully!", ""))
	s.emitter.Emit(ctx, user.EventUserRegistered, created.ID, user.UserRegistered{
		UserID:       created.ID,
		Email:        created.Email,
		Name:         created.FullName(),
		RegisteredAt: s.now().UTC(),
	})
	return created.Public(), nil
}

// Login signs the shopper in. Block records are consulted before the
// password is looked at, and again once the account is known, so a blocked
// shopper never learns whether the password was right.
func (s *Service) Login(ctx context.Context, sess *session.Session, c user.Credentials) (*user.Account, error) {
	if err := c.Validate(); err != nil {
		sess.Notes.Push(notify.Failure(err, "Invalid email or password"))
		return nil, err
	}
	email := strings.TrimSpace(c.Email)

	if err := s.vetoIfBlocked(ctx, sess, "", email); err != nil {
		return nil, err
	}

	candidates, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		sess.Notes.Push(notify.Error("Login failed. Please try again."))
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	var acc *user.Account
	for i := range candidates {
		if verify(&candidates[i], c.Password) {
			acc = candidates[i].Clone()
			break
		}
	}
	if acc == nil {
		sess.Notes.Push(notify.Error("Invalid email or password"))
		return nil, shop.ErrInvalidCredentials
	}

	if err := s.vetoIfBlocked(ctx, sess, acc.ID, acc.Email); err != nil {
		return nil, err
	}

	acc.Normalize()
	if acc.PasswordHash == "" {
		acc = s.upgradeLegacyPassword(ctx, acc, c.Password)
	}

	sess.SignIn(ctx, acc)
	sess.Notes.Push(notify.Success(fmt.Sprintf("Welcome back, %s!", acc.DisplayName()), ""))
	log.Printf("[Account] User %s signed in", acc.ID)
	return acc.Public(), nil
}

func (s *Service) vetoIfBlocked(ctx context.Context, sess *session.Session, userID, email string) error {
	rec, err := s.guard.Check(ctx, userID, email)
	if err != nil {
		sess.Notes.Push(notify.Error("Login failed. Please try again."))
		return err
	}
	if rec != nil {
		sess.Notes.Push(notify.Error("Your account has been blocked. Reason: " + rec.Reason))
		return &shop.BlockedAccountError{Reason: rec.Reason}
	}
	return nil
}

func verify(a *user.Account, password string) bool {
	if a.PasswordHash != "" {
		return auth.CheckPassword(password, a.PasswordHash)
	}
	return auth.CheckLegacyPassword(password, a.Password)
}

// upgradeLegacyPassword replaces a plaintext password with its hash. The
// login goes ahead even if the write fails.
func (s *Service) upgradeLegacyPassword(ctx context.Context, acc *user.Account, password string) *user.Account {
	hash, err := s.hashPassword(password)
	if err != nil {
		log.Printf("[Account] Failed to hash legacy password for %s: %v", acc.ID, err)
		return acc
	}
	upgraded := acc.Clone()
	upgraded.PasswordHash = hash
	upgraded.Password = ""
	saved, err := s.users.Replace(ctx, upgraded)
	if err != nil {
		log.Printf("[Account] Failed to upgrade legacy password for %s: %v", acc.ID, err)
		return acc
	}
	saved.Normalize()
	return saved
}

// Logout signs the shopper out. The cart is kept.
func (s *Service) Logout(ctx context.Context, sess *session.Session) {
	sess.SignOut(ctx)
	sess.Notes.Push(notify.Info("Logged out successfully", ""))
}

// Current returns the signed-in account.
func (s *Service) Current(sess *session.Session) (*user.Account, error) {
	acc := sess.Account()
	if acc == nil {
		return nil, shop.ErrNotAuthenticated
	}
	return acc, nil
}

// UpdateProfile merges patch over the stored profile.
func (s *Service) UpdateProfile(ctx context.Context, sess *session.Session, patch user.ProfilePatch) (*user.Account, error) {
	if err := patch.Validate(); err != nil {
		sess.Notes.Push(notify.Failure(err, "Failed to update profile"))
		return nil, err
	}
	acc, err := s.updateProfile(ctx, sess, func(p user.Profile) (user.Profile, error) {
		return patch.Apply(p, s.now()), nil
	})
	s.report(sess, err, "Profile updated successfully!", "Failed to update profile")
	return acc, err
}

// AddAddress appends a to the address book. The first address becomes the
// default.
func (s *Service) AddAddress(ctx context.Context, sess *session.Session, a address.Address) (*user.Account, error) {
	a = a.Normalize()
	if err := a.Validate(); err != nil {
		sess.Notes.Push(notify.Failure(err, "Failed to add address. Please try again."))
		return nil, err
	}
	acc, err := s.updateProfile(ctx, sess, func(p user.Profile) (user.Profile, error) {
		p.Addresses, _ = address.Add(p.Addresses, a, s.now())
		return p, nil
	})
	s.report(sess, err, "Address added successfully!", "Failed to add address. Please try again.")
	return acc, err
}

// UpdateAddress merges the non-blank fields of patch over address id.
func (s *Service) UpdateAddress(ctx context.Context, sess *session.Session, id string, patch address.Address) (*user.Account, error) {
	acc, err := s.updateProfile(ctx, sess, func(p user.Profile) (user.Profile, error) {
		list, err := address.Update(p.Addresses, id, patch)
		p.Addresses = list
		return p, err
	})
	s.report(sess, err, "Address updated successfully!", "Failed to update address")
	return acc, err
}

// DeleteAddress removes address id.
func (s *Service) DeleteAddress(ctx context.Context, sess *session.Session, id string) (*user.Account, error) {
	acc, err := s.updateProfile(ctx, sess, func(p user.Profile) (user.Profile, error) {
		list, err := address.Delete(p.Addresses, id)
		p.Addresses = list
		return p, err
	})
	s.report(sess, err, "Address deleted successfully!", "Failed to delete address")
	return acc, err
}

// SetDefaultAddress makes id the only default address.
func (s *Service) SetDefaultAddress(ctx context.Context, sess *session.Session, id string) (*user.Account, error) {
	acc, err := s.updateProfile(ctx, sess, func(p user.Profile) (user.Profile, error) {
		list, err := address.SetDefault(p.Addresses, id)
		p.Addresses = list
		return p, err
	})
	s.report(sess, err, "Default address updated!", "Failed to set default address")
	return acc, err
}

func (s *Service) report(sess *session.Session, err error, success, failure string) {
	switch {
	case err == nil:
		sess.Notes.Push(notify.Success(success, ""))
	case errors.Is(err, shop.ErrConflict):
		sess.Notes.Push(notify.Error(failure + ": your account changed elsewhere, please retry"))
	default:
		sess.Notes.Push(notify.Failure(err, failure))
	}
}

// updateProfile reloads the account, applies mutate to its profile and
// writes the whole document back with the version it was read at. The
// session is refreshed from what the gateway returns.
func (s *Service) updateProfile(ctx context.Context, sess *session.Session, mutate func(user.Profile) (user.Profile, error)) (*user.Account, error) {
	current := sess.Account()
	if current == nil {
		return nil, shop.ErrNotAuthenticated
	}

	acc, err := s.users.Get(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	acc.Normalize()

	profile, err := mutate(acc.Profile)
	if err != nil {
		return nil, err
	}
	acc.Profile = profile

	saved, err := s.users.Replace(ctx, acc)
	if err != nil {
		log.Printf("[Account] Failed to save profile for %s: %v", acc.ID, err)
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	sess.SignIn(ctx, saved)
	return saved.Public(), nil
}
