package address

import (
	"testing"
	"time"

	"github.com/example/brownie-shop/internal/shop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() Address {
	return Address{
		FullName: "Asha Rao",
		Address:  "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  "560001",
		Phone:    "9876543210",
	}
}

func countDefaults(list []Address) int {
	n := 0
	for _, a := range list {
		if a.IsDefault {
			n++
		}
	}
	return n
}

// ============================================
// Validation Tests
// ============================================

func TestAddress_Validate_Success(t *testing.T) {
	assert.NoError(t, validAddress().Validate())
}

func TestAddress_Validate_MissingField(t *testing.T) {
	a := validAddress()
	a.City = "  "

	err := a.Validate()

	var ve *shop.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "city", ve.Field)
}

func TestAddress_Validate_Phone(t *testing.T) {
	for _, phone := range []string{"98765", "98765432101", "98765abcde"} {
		a := validAddress()
		a.Phone = phone

		var ve *shop.ValidationError
		require.ErrorAs(t, a.Validate(), &ve, phone)
		assert.Equal(t, "phone", ve.Field)
	}
}

func TestAddress_Validate_ShortPincode(t *testing.T) {
	a := validAddress()
	a.Pincode = "5600"

	var ve *shop.ValidationError
	require.ErrorAs(t, a.Validate(), &ve)
	assert.Equal(t, "pincode", ve.Field)

	// Checkout only needs the pincode present.
	assert.NoError(t, a.ValidateShipping())
}

func TestAddress_Validate_AddressType(t *testing.T) {
	a := validAddress()
	a.AddressType = "castle"

	assert.True(t, shop.IsValidation(a.Validate()))
}

func TestAddress_Normalize(t *testing.T) {
	a := validAddress()
	a.City = " Pune "

	n := a.Normalize()

	assert.Equal(t, "Pune", n.City)
	assert.Equal(t, DefaultCountry, n.Country)
	assert.Equal(t, TypeHome, n.AddressType)
}

// ============================================
// List Transform Tests
// ============================================

func TestAdd_FirstAddressIsDefault(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	list, added := Add(nil, validAddress(), now)

	require.Len(t, list, 1)
	assert.Equal(t, "addr_1700000000000", added.ID)
	assert.True(t, added.IsDefault)

	list, second := Add(list, validAddress(), now.Add(time.Millisecond))
	assert.False(t, second.IsDefault)
	assert.Equal(t, 1, countDefaults(list))
}

func TestAdd_DoesNotAliasInput(t *testing.T) {
	list := make([]Address, 1, 4)
	list[0] = Address{ID: "a"}

	out, _ := Add(list, validAddress(), time.Now())
	out[0].City = "changed"

	assert.Empty(t, list[0].City)
}

func TestUpdate_KeepsIDAndDefault(t *testing.T) {
	list := []Address{{ID: "a", City: "Pune", IsDefault: true}, {ID: "b", City: "Goa"}}
	patch := validAddress()
	patch.ID = "zzz"

	out, err := Update(list, "a", patch)

	require.NoError(t, err)
	assert.Equal(t, "a", out[0].ID)
	assert.True(t, out[0].IsDefault)
	assert.Equal(t, "Bengaluru", out[0].City)
	assert.Equal(t, "Pune", list[0].City)
}

func TestUpdate_NotFound(t *testing.T) {
	_, err := Update([]Address{{ID: "a"}}, "x", validAddress())

	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestUpdate_PartialPatchMergesOverStored(t *testing.T) {
	stored := validAddress()
	stored.ID = "a"
	stored.AddressType = TypeWork
	stored.IsDefault = true

	out, err := Update([]Address{stored}, "a", Address{City: " Mysuru "})

	require.NoError(t, err)
	assert.Equal(t, "Mysuru", out[0].City)
	assert.Equal(t, "Asha Rao", out[0].FullName)
	assert.Equal(t, "9876543210", out[0].Phone)
	assert.Equal(t, TypeWork, out[0].AddressType)
	assert.True(t, out[0].IsDefault)
}

func TestUpdate_OmittedTypeKeepsStoredType(t *testing.T) {
	stored := validAddress()
	stored.ID = "a"
	stored.AddressType = TypeWork
	patch := validAddress()
	patch.City = "Mysuru"

	out, err := Update([]Address{stored}, "a", patch)

	require.NoError(t, err)
	assert.Equal(t, TypeWork, out[0].AddressType)
}

func TestUpdate_InvalidMergedResult(t *testing.T) {
	stored := validAddress()
	stored.ID = "a"

	_, err := Update([]Address{stored}, "a", Address{Phone: "123"})

	assert.True(t, shop.IsValidation(err))
}

func TestReconcile_AssignsIDsAndSingleDefault(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	list := []Address{
		{City: "Pune", IsDefault: true},
		{ID: NewID(now), City: "Goa", IsDefault: true},
		{City: "Agra"},
	}

	out := Reconcile(list, now)

	require.Len(t, out, 3)
	assert.Equal(t, 1, countDefaults(out))
	assert.True(t, out[0].IsDefault)
	seen := map[string]bool{}
	for _, a := range out {
		assert.NotEmpty(t, a.ID)
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}
	assert.Equal(t, "", list[0].ID)
}

func TestReconcile_PromotesFirstWhenNoDefault(t *testing.T) {
	out := Reconcile([]Address{{ID: "a"}, {ID: "b"}}, time.Now())

	assert.True(t, out[0].IsDefault)
	assert.Equal(t, 1, countDefaults(out))
	assert.Empty(t, Reconcile(nil, time.Now()))
}

func TestDelete_PromotesNextDefault(t *testing.T) {
	list := []Address{{ID: "a", IsDefault: true}, {ID: "b"}, {ID: "c"}}

	out, err := Delete(list, "a")

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsDefault)
	assert.Equal(t, 1, countDefaults(out))
}

func TestDelete_Last(t *testing.T) {
	out, err := Delete([]Address{{ID: "a", IsDefault: true}}, "a")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDelete_NotFound(t *testing.T) {
	_, err := Delete([]Address{{ID: "a"}}, "x")

	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestSetDefault_MutualExclusion(t *testing.T) {
	list := []Address{{ID: "a", IsDefault: true}, {ID: "b"}, {ID: "c"}}

	out, err := SetDefault(list, "c")

	require.NoError(t, err)
	assert.Equal(t, 1, countDefaults(out))
	def, ok := Default(out)
	require.True(t, ok)
	assert.Equal(t, "c", def.ID)
	assert.True(t, list[0].IsDefault)
}

func TestSetDefault_NotFoundLeavesNothing(t *testing.T) {
	_, err := SetDefault([]Address{{ID: "a", IsDefault: true}}, "x")

	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestDefaultUniqueness_AnySequence(t *testing.T) {
	var list []Address
	now := time.UnixMilli(1)
	ids := []string{}
	for i := 0; i < 5; i++ {
		var a Address
		list, a = Add(list, validAddress(), now.Add(time.Duration(i)*time.Millisecond))
		ids = append(ids, a.ID)
		assert.Equal(t, 1, countDefaults(list))
	}
	for _, id := range []string{ids[3], ids[1], ids[4]} {
		var err error
		list, err = SetDefault(list, id)
		require.NoError(t, err)
		assert.Equal(t, 1, countDefaults(list))
	}
}
