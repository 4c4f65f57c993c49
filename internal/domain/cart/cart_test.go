package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/money"
	"github.com/example/brownie-shop/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	saves [][]LineItem
	err   error
}

func (m *recordingMirror) Save(_ context.Context, _ string, v any) error {
	m.saves = append(m.saves, v.([]LineItem))
	return m.err
}

func (m *recordingMirror) last() []LineItem {
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

var (
	kunafa = product.Product{ID: "1", Name: "Kunafa Brownie", Price: "₹699"}
	fudge  = product.Product{ID: "2", Name: "Walnut Fudge", Price: "₹499"}
)

func newTestStore() (*Store, *recordingMirror, *notify.Queue) {
	m := &recordingMirror{}
	q := notify.NewQueue()
	return NewStore(nil, m, "session:s1:cart", q), m, q
}

// ============================================
// Add Tests
// ============================================

func TestStore_Add_NewItem(t *testing.T) {
	s, m, q := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, kunafa, 1))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, items, m.last())
	assert.Equal(t, []notify.Notification{notify.Success("Kunafa Brownie added to cart!", "🛒")}, q.Drain())
}

func TestStore_Add_SameProductIncrements(t *testing.T) {
	s, _, q := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, kunafa, 2))
	require.NoError(t, s.Add(ctx, kunafa, 3))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	notes := q.Drain()
	require.Len(t, notes, 2)
	assert.Equal(t, "Added 3 more Kunafa Brownie's to cart! (Now 5)", notes[1].Message)
	assert.Equal(t, "➕", notes[1].Icon)
}

func TestStore_Add_SingularMessage(t *testing.T) {
	s, _, q := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, kunafa, 1))
	q.Drain()

	require.NoError(t, s.Add(ctx, kunafa, 1))

	assert.Equal(t, "Added 1 more Kunafa Brownie to cart! (Now 2)", q.Drain()[0].Message)
}

func TestStore_Add_KeepsInsertionOrder(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, fudge, 1))
	require.NoError(t, s.Add(ctx, kunafa, 1))
	require.NoError(t, s.Add(ctx, fudge, 1))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].ID)
	assert.Equal(t, "1", items[1].ID)
}

func TestStore_Add_Invalid(t *testing.T) {
	s, m, _ := newTestStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.Add(ctx, kunafa, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, s.Add(ctx, kunafa, -1), ErrInvalidQuantity)
	assert.ErrorIs(t, s.Add(ctx, product.Product{Name: "x", Price: "₹1"}, 1), ErrInvalidProduct)

	var pe *money.PriceParseError
	assert.ErrorAs(t, s.Add(ctx, product.Product{ID: "3", Price: "699 INR"}, 1), &pe)

	assert.True(t, s.IsEmpty())
	assert.Empty(t, m.saves)
}

func TestStore_Add_SnapshotIsIndependent(t *testing.T) {
	s, _, _ := newTestStore()
	p := product.Product{ID: "9", Name: "Box", Price: "₹100", Ingredients: []string{"cocoa"}}

	require.NoError(t, s.Add(context.Background(), p, 1))
	p.Ingredients[0] = "changed"

	assert.Equal(t, "cocoa", s.Items()[0].Ingredients[0])
}

// ============================================
// Remove / Update / Clear Tests
// ============================================

func TestStore_Remove(t *testing.T) {
	s, m, q := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, kunafa, 1))
	require.NoError(t, s.Add(ctx, fudge, 1))
	q.Drain()

	s.Remove(ctx, "1")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)
	assert.Len(t, m.last(), 1)
	assert.Equal(t, []notify.Notification{notify.Info("Kunafa Brownie removed from cart", "🗑️")}, q.Drain())
}

func TestStore_Remove_Absent(t *testing.T) {
	s, m, q := newTestStore()

	s.Remove(context.Background(), "nope")

	assert.Empty(t, m.saves)
	assert.Empty(t, q.Drain())
}

func TestStore_UpdateQuantity_AbsoluteSet(t *testing.T) {
	s, _, q := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, kunafa, 4))
	q.Drain()

	s.UpdateQuantity(ctx, "1", 2)

	assert.Equal(t, 2, s.Items()[0].Quantity)
	assert.Equal(t, "Updated Kunafa Brownie quantity to 2", q.Drain()[0].Message)
}

func TestStore_UpdateQuantity_NonPositiveRemoves(t *testing.T) {
	for _, qty := range []int{0, -5} {
		s, _, _ := newTestStore()
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, kunafa, 1))
		require.NoError(t, s.Add(ctx, fudge, 1))

		s.UpdateQuantity(ctx, "1", qty)

		for _, li := range s.Items() {
			assert.NotEqual(t, "1", li.ID)
		}
		assert.Equal(t, 1, s.Count())
	}
}

func TestStore_Clear(t *testing.T) {
	s, m, q := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, kunafa, 1))
	q.Drain()

	s.Clear(ctx)

	assert.True(t, s.IsEmpty())
	assert.Empty(t, m.last())
	assert.Equal(t, "Cart cleared successfully!", q.Drain()[0].Message)
}

func TestStore_Reset_IsSilent(t *testing.T) {
	s, _, q := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, kunafa, 1))
	q.Drain()

	s.Reset(ctx)

	assert.True(t, s.IsEmpty())
	assert.Empty(t, q.Drain())
}

// ============================================
// Derived Value Tests
// ============================================

func TestStore_TotalAndCount(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, kunafa, 2))
	require.NoError(t, s.Add(ctx, fudge, 1))

	total, err := s.Total()

	require.NoError(t, err)
	assert.Equal(t, money.Rupees(1897), total)
	assert.Equal(t, 3, s.Count())
}

func TestStore_Total_BadPriceFromMirror(t *testing.T) {
	restored := []LineItem{{Product: product.Product{ID: "1", Price: "abc"}, Quantity: 1}}
	s := NewStore(restored, nil, "k", nil)

	_, err := s.Total()

	var pe *money.PriceParseError
	assert.ErrorAs(t, err, &pe)
}

func TestNewStore_DropsInvalidRestoredLines(t *testing.T) {
	restored := []LineItem{
		{Product: kunafa, Quantity: 0},
		{Product: fudge, Quantity: 2},
		{Product: product.Product{Name: "no id"}, Quantity: 1},
	}

	s := NewStore(restored, nil, "k", nil)

	assert.Equal(t, 2, s.Count())
}

func TestStore_MirrorFailureIsBestEffort(t *testing.T) {
	m := &recordingMirror{err: errors.New("redis down")}
	s := NewStore(nil, m, "k", nil)

	err := s.Add(context.Background(), kunafa, 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, s.Count())
}

func TestLineItem_JSONIsFlat(t *testing.T) {
	li := LineItem{Product: kunafa, Quantity: 2}

	b, err := json.Marshal(li)

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","name":"Kunafa Brownie","description":"","price":"₹699","quantity":2}`, string(b))
}
