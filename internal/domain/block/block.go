package block

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultReason is recorded when an admin blocks without giving a reason.
const DefaultReason = "Violation of terms"

var (
	ErrAlreadyBlocked = errors.New("user is already blocked")
	ErrRecordNotFound = errors.New("block record not found")
)

// Record vetoes logins for a user id or email.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	BlockedBy string    `json:"blockedBy"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blockedAt"`
}

// NewID returns a time-based block record id.
func NewID(now time.Time) string {
	return "block_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// New builds a record, falling back to DefaultReason.
func New(userID, email, adminID, reason string, now time.Time) Record {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReason
	}
	return Record{
		ID:        NewID(now),
		UserID:    userID,
		Email:     strings.TrimSpace(email),
		BlockedBy: adminID,
		Reason:    reason,
		BlockedAt: now.UTC(),
	}
}
