// Package guard decides whether a user may sign in, based on the block
// records held by the gateway.
package guard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/infrastructure/store"
)

type Guard struct {
	blocks  store.BlockStore
	emitter *events.Emitter
	now     func() time.Time
}

func New(blocks store.BlockStore, emitter *events.Emitter) *Guard {
	return &Guard{blocks: blocks, emitter: emitter, now: time.Now}
}

// CheckByUserID returns the first block record for userID, or nil. Lookup
// failures are returned so that callers fail closed.
func (g *Guard) CheckByUserID(ctx context.Context, userID string) (*block.Record, error) {
	if userID == "" {
		return nil, nil
	}
	records, err := g.blocks.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check block status: %w", err)
	}
	return first(records), nil
}

// CheckByEmail returns the first block record for email, or nil.
func (g *Guard) CheckByEmail(ctx context.Context, email string) (*block.Record, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	records, err := g.blocks.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check block status: %w", err)
	}
	return first(records), nil
}

// Check looks a user up by id and then by email.
func (g *Guard) Check(ctx context.Context, userID, email string) (*block.Record, error) {
	rec, err := g.CheckByUserID(ctx, userID)
	if err != nil || rec != nil {
		return rec, err
	}
	return g.CheckByEmail(ctx, email)
}

// Block records a block for the user. A user that already has a record
// keeps it and ErrAlreadyBlocked is returned.
func (g *Guard) Block(ctx context.Context, userID, email, adminID, reason string) (*block.Record, error) {
	existing, err := g.Check(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, block.ErrAlreadyBlocked
	}

	rec := block.New(userID, email, adminID, reason, g.now())
	created, err := g.blocks.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to block user: %w", err)
	}

	log.Printf("[Guard] Blocked user %s (%s): %s", created.UserID, created.Email, created.Reason)
	g.emitter.Emit(ctx, block.EventUserBlocked, created.UserID, block.UserBlocked{
		BlockID:   created.ID,
		UserID:    created.UserID,
		Email:     created.Email,
		BlockedBy: created.BlockedBy,
		Reason:    created.Reason,
		BlockedAt: created.BlockedAt,
	})
	return created, nil
}

// Unblock deletes one block record by id.
func (g *Guard) Unblock(ctx context.Context, recordID string) error {
	if err := g.blocks.Delete(ctx, recordID); err != nil {
		if store.IsNotFound(err) {
			return block.ErrRecordNotFound
		}
		return fmt.Errorf("failed to unblock: %w", err)
	}
	return nil
}

// UnblockUser deletes every record for the user, so that duplicates
// written by older versions cannot keep vetoing logins. It returns the
// number of records removed.
func (g *Guard) UnblockUser(ctx context.Context, userID, email string) (int, error) {
	seen := make(map[string]bool)
	var ids []string
	collect := func(records []block.Record) {
		for _, r := range records {
			if !seen[r.ID] {
				seen[r.ID] = true
				ids = append(ids, r.ID)
			}
		}
	}

	if userID != "" {
		records, err := g.blocks.FindByUserID(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to list block records: %w", err)
		}
		collect(records)
	}
	if email = strings.TrimSpace(email); email != "" {
		records, err := g.blocks.FindByEmail(ctx, email)
		if err != nil {
			return 0, fmt.Errorf("failed to list block records: %w", err)
		}
		collect(records)
	}
	if len(ids) == 0 {
		return 0, block.ErrRecordNotFound
	}

	removed := 0
	for _, id := range ids {
		if err := g.blocks.Delete(ctx, id); err != nil && !store.IsNotFound(err) {
			return removed, fmt.Errorf("failed to unblock: %w", err)
		}
		removed++
	}

	log.Printf("[Guard] Unblocked user %s (%d records)", userID, removed)
	g.emitter.Emit(ctx, block.EventUserUnblocked, userID, block.UserUnblocked{
		UserID:      userID,
		Removed:     removed,
		UnblockedAt: g.now().UTC(),
	})
	return removed, nil
}

// List returns every block record.
func (g *Guard) List(ctx context.Context) ([]block.Record, error) {
	records, err := g.blocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list block records: %w", err)
	}
	return records, nil
}

func first(records []block.Record) *block.Record {
	if len(records) == 0 {
		return nil
	}
	r := records[0]
	return &r
}
