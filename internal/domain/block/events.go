package block

import "time"

const (
	EventUserBlocked   = "UserBlocked"
	EventUserUnblocked = "UserUnblocked"
)

type UserBlocked struct {
	BlockID   string    `json:"block_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	BlockedBy string    `json:"blocked_by"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blocked_at"`
}

type UserUnblocked struct {
	UserID      string    `json:"user_id"`
	Removed     int       `json:"removed"`
	UnblockedAt time.Time `json:"unblocked_at"`
}
