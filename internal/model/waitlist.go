package model

import "time"

// WaitlistEntry is an ephemeral waitlist membership for a full event.
// Entries live in redis, not in the booking ledger: they are scored by
// join time, carry an absolute expiry (lazy, never swept) and are
// destroyed on promotion, explicit removal or expiry.
type WaitlistEntry struct {
	EventID   uint64    `json:"event_id"`
	UserID    uint64    `json:"user_id"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joined_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry's absolute expiry has passed and it
// is therefore no longer eligible for promotion or ranged reads.
func (w WaitlistEntry) Expired(now time.Time) bool {
	return now.After(w.ExpiresAt)
}
