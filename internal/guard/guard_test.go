package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/infrastructure/store/mocks"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func setupTestGuard() (*Guard, *mocks.MockGateway, *events.Recorder) {
	gw := mocks.NewMockGateway()
	rec := &events.Recorder{}
	g := New(gw.Gateway().Blocks, events.NewEmitter(rec))
	g.now = func() time.Time { return fixedNow }
	return g, gw, rec
}

func TestGuard_CheckByEmail(t *testing.T) {
	g, gw, _ := setupTestGuard()
	ctx := context.Background()
	gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com", Reason: "Spam"})
	gw.SetBlock(block.Record{ID: "block_2", UserID: "u1", Email: "a@x.com", Reason: "Later"})

	rec, err := g.CheckByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Spam", rec.Reason, "first match wins")

	rec, err = g.CheckByEmail(ctx, "other@x.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGuard_CheckByUserID(t *testing.T) {
	g, gw, _ := setupTestGuard()
	ctx := context.Background()
	gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com", Reason: "Spam"})

	rec, err := g.CheckByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "block_1", rec.ID)

	rec, err = g.CheckByUserID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, gw.CallCount("blocks.findByUserId"))
}

func TestGuard_Check_FailsClosed(t *testing.T) {
	g, gw, _ := setupTestGuard()
	gw.FailOn("blocks.findByEmail", errors.New("connection refused"))

	rec, err := g.CheckByEmail(context.Background(), "a@x.com")

	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestGuard_Block(t *testing.T) {
	g, gw, rec := setupTestGuard()
	ctx := context.Background()

	created, err := g.Block(ctx, "u1", "a@x.com", "admin1", "  ")

	require.NoError(t, err)
	assert.Equal(t, "block_1709287200000", created.ID)
	assert.Equal(t, block.DefaultReason, created.Reason)
	assert.Equal(t, "admin1", created.BlockedBy)
	assert.Len(t, gw.BlockRecords(), 1)
	assert.Equal(t, []string{block.EventUserBlocked}, rec.Types())
}

func TestGuard_Block_AlreadyBlocked(t *testing.T) {
	g, gw, rec := setupTestGuard()
	gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com", Reason: "Spam"})

	existing, err := g.Block(context.Background(), "u1", "a@x.com", "admin1", "Again")

	assert.ErrorIs(t, err, block.ErrAlreadyBlocked)
	require.NotNil(t, existing)
	assert.Equal(t, "Spam", existing.Reason)
	assert.Len(t, gw.BlockRecords(), 1)
	assert.Empty(t, rec.Types())
}

func TestGuard_Unblock(t *testing.T) {
	g, gw, _ := setupTestGuard()
	ctx := context.Background()
	gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com"})

	require.NoError(t, g.Unblock(ctx, "block_1"))
	assert.Empty(t, gw.BlockRecords())

	assert.ErrorIs(t, g.Unblock(ctx, "block_1"), block.ErrRecordNotFound)
}

func TestGuard_UnblockUser_RemovesDuplicates(t *testing.T) {
	g, gw, rec := setupTestGuard()
	ctx := context.Background()
	gw.SetBlock(block.Record{ID: "block_1", UserID: "u1", Email: "a@x.com"})
	gw.SetBlock(block.Record{ID: "block_2", UserID: "u1", Email: "a@x.com"})
	gw.SetBlock(block.Record{ID: "block_3", UserID: "", Email: "a@x.com"})
	gw.SetBlock(block.Record{ID: "block_4", UserID: "u2", Email: "b@x.com"})

	removed, err := g.UnblockUser(ctx, "u1", "a@x.com")

	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	remaining := gw.BlockRecords()
	require.Len(t, remaining, 1)
	assert.Equal(t, "block_4", remaining[0].ID)
	assert.Equal(t, []string{block.EventUserUnblocked}, rec.Types())

	found, err := g.Check(ctx, "u1", "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGuard_UnblockUser_NotBlocked(t *testing.T) {
	g, _, _ := setupTestGuard()

	removed, err := g.UnblockUser(context.Background(), "u1", "a@x.com")

	assert.ErrorIs(t, err, block.ErrRecordNotFound)
	assert.Zero(t, removed)
}
