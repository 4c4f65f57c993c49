package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/guard"
	"github.com/example/brownie-shop/internal/infrastructure/store/mocks"
	"github.com/example/brownie-shop/internal/mirror"
	"github.com/example/brownie-shop/internal/notify"
	"github.com/example/brownie-shop/internal/session"
	"github.com/example/brownie-shop/internal/shop"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc    *Service
	gw     *mocks.MockGateway
	events *events.Recorder
	sess   *session.Session
	tick   int
}

func cheapHash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h), err
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	gw := mocks.NewMockGateway()
	rec := &events.Recorder{}
	emitter := events.NewEmitter(rec)
	g := guard.New(gw.Gateway().Blocks, emitter)

	env := &testEnv{gw: gw, events: rec}
	svc := NewService(gw.Gateway().Users, g, emitter)
	svc.hashPassword = cheapHash
	// Each call moves the clock a second so generated ids differ.
	svc.now = func() time.Time {
		env.tick++
		return fixedNow.Add(time.Duration(env.tick) * time.Second)
	}
	env.svc = svc

	sess, err := session.NewManager(mirror.NewMemory()).Create(context.Background())
	require.NoError(t, err)
	env.sess = sess
	return env
}

func (e *testEnv) seedUser(t *testing.T, id, email, password string) {
	t.Helper()
	hash, err := cheapHash(password)
	require.NoError(t, err)
	e.gw.SetUser(user.Account{ID: id, FName: "Asha", Email: email, PasswordHash: hash, Role: user.RoleUser, Version: 1})
}

func (e *testEnv) lastNote() notify.Notification {
	notes := e.sess.Notes.Drain()
	if len(notes) == 0 {
		return notify.Notification{}
	}
	return notes[len(notes)-1]
}

func validAddress(name string) address.Address {
	return address.Address{
		FullName: name,
		Address:  "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  "560001",
		Phone:    "9876543210",
	}
}

// ============================================
// Registration
// ============================================

func TestService_RegisterThenLogin(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	created, err := env.svc.Register(ctx, env.sess, user.Registration{FName: "Asha", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, created.PasswordHash)
	assert.Equal(t, notify.Success("Account created successfully!", ""), env.lastNote())
	assert.False(t, env.sess.IsAuthenticated())
	assert.Equal(t, []string{user.EventUserRegistered}, env.events.Types())

	stored, ok := env.gw.GetUser(created.ID)
	require.True(t, ok)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.Empty(t, stored.Password)

	acc, err := env.svc.Login(ctx, env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, acc.Role)
	assert.Equal(t, []address.Address{}, acc.Profile.Addresses)
	assert.Nil(t, acc.Profile.Avatar)
	assert.Empty(t, acc.Profile.Phone)
	assert.Equal(t, notify.Success("Welcome back, Asha!", ""), env.lastNote())
	assert.True(t, env.sess.IsAuthenticated())
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")

	_, err := env.svc.Register(context.Background(), env.sess, user.Registration{FName: "Asha", Email: "a@x.com", Password: "secret1"})

	var regErr *shop.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, 0, env.gw.CallCount("users.create"))
}

func TestService_Register_GatewayFailure(t *testing.T) {
	env := setupTestService(t)
	env.gw.FailOn("users.create", errors.New("connection refused"))

	_, err := env.svc.Register(context.Background(), env.sess, user.Registration{FName: "Asha", Email: "a@x.com", Password: "secret1"})

	var regErr *shop.RegistrationError
	assert.ErrorAs(t, err, &regErr)
	assert.Equal(t, notify.Error("Registration failed. Please try again."), env.lastNote())
	assert.Empty(t, env.events.Types())
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		reg   user.Registration
		field string
	}{
		{"short name", user.Registration{FName: "As", Email: "a@x.com", Password: "secret1"}, "fname"},
		{"bad email", user.Registration{FName: "Asha", Email: "not-an-email", Password: "secret1"}, "email"},
		{"short password", user.Registration{FName: "Asha", Email: "a@x.com", Password: "12345"}, "password"},
		{"mismatch", user.Registration{FName: "Asha", Email: "a@x.com", Password: "secret1", ConfirmPassword: "secret2"}, "cpassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestService(t)

			_, err := env.svc.Register(context.Background(), env.sess, tt.reg)

			var ve *shop.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, env.gw.Calls)
		})
	}
}

// ============================================
// Login
// ============================================

func TestService_Login_BlockedBeforeCredentials(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")
	env.gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com", Reason: block.DefaultReason})

	acc, err := env.svc.Login(context.Background(), env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})

	assert.Nil(t, acc)
	reason, blocked := shop.IsBlocked(err)
	require.True(t, blocked)
	assert.Equal(t, "Violation of terms", reason)
	assert.Contains(t, err.Error(), "Violation of terms")
	assert.Contains(t, env.lastNote().Message, "Violation of terms")
	assert.False(t, env.sess.IsAuthenticated())
	assert.Equal(t, 0, env.gw.CallCount("users.findByEmail"), "credentials must not be checked")
}

func TestService_Login_BlockedWithWrongPassword(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")
	env.gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com", Reason: "Spam"})

	_, err := env.svc.Login(context.Background(), env.sess, user.Credentials{Email: "a@x.com", Password: "wrong-password"})

	_, blocked := shop.IsBlocked(err)
	assert.True(t, blocked)
	assert.NotErrorIs(t, err, shop.ErrInvalidCredentials)
}

func TestService_Login_BlockedByUserID(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")
	env.gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "old@x.com", Reason: "Chargebacks"})

	_, err := env.svc.Login(context.Background(), env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})

	reason, blocked := shop.IsBlocked(err)
	require.True(t, blocked)
	assert.Equal(t, "Chargebacks", reason)
	assert.False(t, env.sess.IsAuthenticated())
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")
	ctx := context.Background()

	_, err := env.svc.Login(ctx, env.sess, user.Credentials{Email: "a@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, shop.ErrInvalidCredentials)
	assert.Equal(t, notify.Error("Invalid email or password"), env.lastNote())

	_, err = env.svc.Login(ctx, env.sess, user.Credentials{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, shop.ErrInvalidCredentials)
	assert.False(t, env.sess.IsAuthenticated())
}

func TestService_Login_BlockLookupFailsClosed(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")
	env.gw.FailOn("blocks.findByEmail", errors.New("timeout"))

	_, err := env.svc.Login(context.Background(), env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})

	assert.Error(t, err)
	assert.False(t, env.sess.IsAuthenticated())
	assert.Equal(t, notify.Error("Login failed. Please try again."), env.lastNote())
}

func TestService_Login_UpgradesLegacyPassword(t *testing.T) {
	env := setupTestService(t)
	env.gw.SetUser(user.Account{ID: "u1", FName: "Asha", Email: "a@x.com", Password: "secret1", Version: 1})

	acc, err := env.svc.Login(context.Background(), env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, acc.Role)

	stored, _ := env.gw.GetUser("u1")
	assert.Empty(t, stored.Password)
	require.NotEmpty(t, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	assert.Equal(t, 2, stored.Version)
}

func TestService_Login_LegacyUpgradeFailureStillSignsIn(t *testing.T) {
	env := setupTestService(t)
	env.gw.SetUser(user.Account{ID: "u1", FName: "Asha", Email: "a@x.com", Password: "secret1", Version: 1})
	env.gw.FailOn("users.replace", errors.New("read only"))

	_, err := env.svc.Login(context.Background(), env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})

	require.NoError(t, err)
	assert.True(t, env.sess.IsAuthenticated())
}

func TestService_Logout(t *testing.T) {
	env := setupTestService(t)
	env.seedUser(t, "u1", "a@x.com", "secret1")
	ctx := context.Background()
	_, err := env.svc.Login(ctx, env.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	env.svc.Logout(ctx, env.sess)

	assert.False(t, env.sess.IsAuthenticated())
	assert.Equal(t, notify.Info("Logged out successfully", ""), env.lastNote())
	_, err = env.svc.Current(env.sess)
	assert.ErrorIs(t, err, shop.ErrNotAuthenticated)
}

// ============================================
// Profile and addresses
// ============================================

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.seedUser(t, "u1", "a@x.com", "secret1")
	_, err := e.svc.Login(context.Background(), e.sess, user.Credentials{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	e.sess.Notes.Drain()
}

func TestService_UpdateProfile_NotAuthenticated(t *testing.T) {
	env := setupTestService(t)
	phone := "9876543210"

	_, err := env.svc.UpdateProfile(context.Background(), env.sess, user.ProfilePatch{Phone: &phone})

	assert.ErrorIs(t, err, shop.ErrNotAuthenticated)
	assert.Empty(t, env.gw.Calls)
}

func TestService_UpdateProfile_MergesOverExisting(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	ctx := context.Background()

	_, err := env.svc.AddAddress(ctx, env.sess, validAddress("Home"))
	require.NoError(t, err)

	phone := "9876543210"
	acc, err := env.svc.UpdateProfile(ctx, env.sess, user.ProfilePatch{Phone: &phone})
	require.NoError(t, err)

	assert.Equal(t, "9876543210", acc.Profile.Phone)
	assert.Len(t, acc.Profile.Addresses, 1, "fields not in the patch are preserved")
	assert.Equal(t, "9876543210", env.sess.Account().Profile.Phone)
	assert.Equal(t, notify.Success("Profile updated successfully!", ""), env.lastNote())

	stored, _ := env.gw.GetUser("u1")
	assert.NotEmpty(t, stored.PasswordHash, "credentials survive a profile rewrite")
}

func TestService_UpdateProfile_InvalidPhone(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	phone := "12345"

	_, err := env.svc.UpdateProfile(context.Background(), env.sess, user.ProfilePatch{Phone: &phone})

	assert.True(t, shop.IsValidation(err))
	assert.Equal(t, 0, env.gw.CallCount("users.replace"))
}

func TestService_UpdateProfile_Conflict(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	env.gw.FailOn("users.replace", fmt.Errorf("%w: stale", shop.ErrConflict))
	phone := "9876543210"

	_, err := env.svc.UpdateProfile(context.Background(), env.sess, user.ProfilePatch{Phone: &phone})

	assert.ErrorIs(t, err, shop.ErrConflict)
	assert.Equal(t, notify.KindError, env.lastNote().Kind)
	assert.Empty(t, env.sess.Account().Profile.Phone)
}

func countDefaults(list []address.Address) int {
	n := 0
	for _, a := range list {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestService_Addresses_DefaultUniqueness(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	ctx := context.Background()

	acc, err := env.svc.AddAddress(ctx, env.sess, validAddress("Home"))
	require.NoError(t, err)
	require.Len(t, acc.Profile.Addresses, 1)
	assert.True(t, acc.Profile.Addresses[0].IsDefault, "first address is the default")
	assert.Equal(t, address.DefaultCountry, acc.Profile.Addresses[0].Country)

	acc, err = env.svc.AddAddress(ctx, env.sess, validAddress("Work"))
	require.NoError(t, err)
	acc, err = env.svc.AddAddress(ctx, env.sess, validAddress("Other"))
	require.NoError(t, err)
	require.Len(t, acc.Profile.Addresses, 3)
	assert.Equal(t, 1, countDefaults(acc.Profile.Addresses))

	second := acc.Profile.Addresses[1].ID
	acc, err = env.svc.SetDefaultAddress(ctx, env.sess, second)
	require.NoError(t, err)
	assert.Equal(t, 1, countDefaults(acc.Profile.Addresses))
	assert.True(t, acc.Profile.Addresses[1].IsDefault)
	assert.Equal(t, notify.Success("Default address updated!", ""), env.lastNote())

	acc, err = env.svc.DeleteAddress(ctx, env.sess, second)
	require.NoError(t, err)
	require.Len(t, acc.Profile.Addresses, 2)
	assert.Equal(t, 1, countDefaults(acc.Profile.Addresses))

	stored, _ := env.gw.GetUser("u1")
	assert.Equal(t, acc.Profile.Addresses, stored.Profile.Addresses)
}

func TestService_UpdateAddress(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	ctx := context.Background()
	acc, err := env.svc.AddAddress(ctx, env.sess, validAddress("Home"))
	require.NoError(t, err)
	id := acc.Profile.Addresses[0].ID

	patch := validAddress("Asha Rao")
	patch.City = "Mysuru"
	acc, err = env.svc.UpdateAddress(ctx, env.sess, id, patch)
	require.NoError(t, err)

	got := acc.Profile.Addresses[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Mysuru", got.City)
	assert.True(t, got.IsDefault)

	_, err = env.svc.UpdateAddress(ctx, env.sess, "addr_missing", patch)
	assert.ErrorIs(t, err, address.ErrAddressNotFound)
	assert.Equal(t, notify.Error("Failed to update address"), env.lastNote())
}

func TestService_UpdateAddress_PartialPatch(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	ctx := context.Background()
	work := validAddress("Asha Rao")
	work.AddressType = address.TypeWork
	acc, err := env.svc.AddAddress(ctx, env.sess, work)
	require.NoError(t, err)
	id := acc.Profile.Addresses[0].ID

	acc, err = env.svc.UpdateAddress(ctx, env.sess, id, address.Address{City: "Mysuru"})
	require.NoError(t, err)

	got := acc.Profile.Addresses[0]
	assert.Equal(t, "Mysuru", got.City)
	assert.Equal(t, "Asha Rao", got.FullName)
	assert.Equal(t, address.TypeWork, got.AddressType)
	assert.Equal(t, notify.Success("Address updated successfully!", ""), env.lastNote())
}

func TestService_UpdateAddress_InvalidMerge(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	ctx := context.Background()
	acc, err := env.svc.AddAddress(ctx, env.sess, validAddress("Home"))
	require.NoError(t, err)
	replaces := env.gw.CallCount("users.replace")

	_, err = env.svc.UpdateAddress(ctx, env.sess, acc.Profile.Addresses[0].ID, address.Address{Phone: "123"})

	assert.True(t, shop.IsValidation(err))
	assert.Equal(t, replaces, env.gw.CallCount("users.replace"))
}

func TestService_UpdateProfile_AddressListKeepsSingleDefault(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	home, work := validAddress("Home"), validAddress("Work")
	home.IsDefault, work.IsDefault = true, true
	list := []address.Address{home, work}

	acc, err := env.svc.UpdateProfile(context.Background(), env.sess, user.ProfilePatch{Addresses: &list})
	require.NoError(t, err)

	require.Len(t, acc.Profile.Addresses, 2)
	assert.Equal(t, 1, countDefaults(acc.Profile.Addresses))
	assert.NotEmpty(t, acc.Profile.Addresses[0].ID)
	assert.NotEmpty(t, acc.Profile.Addresses[1].ID)
	assert.NotEqual(t, acc.Profile.Addresses[0].ID, acc.Profile.Addresses[1].ID)

	stored, _ := env.gw.GetUser("u1")
	assert.Equal(t, acc.Profile.Addresses, stored.Profile.Addresses)
}

func TestService_UpdateProfile_InvalidAddressList(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	list := []address.Address{{FullName: "Asha"}}

	_, err := env.svc.UpdateProfile(context.Background(), env.sess, user.ProfilePatch{Addresses: &list})

	assert.True(t, shop.IsValidation(err))
	assert.Equal(t, 0, env.gw.CallCount("users.replace"))
}

func TestService_AddAddress_Invalid(t *testing.T) {
	env := setupTestService(t)
	env.login(t)
	a := validAddress("Home")
	a.Pincode = "5600"

	_, err := env.svc.AddAddress(context.Background(), env.sess, a)

	var ve *shop.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "pincode", ve.Field)
	assert.Equal(t, notify.Error("Please enter a valid PIN code"), env.lastNote())
}
