package model

import "time"

// User represents an account that can book seats and join waitlists.
// Fields:
//   - ID: primary key.
//   - Email: unique login identifier, stored lowercase.
//   - FullName: optional display name.
//   - PasswordHash: bcrypt hash; the plain password is never stored.
//   - Role: "user" or "admin".
//   - IsActive: soft-disable flag for accounts.
//   - CreatedAt / UpdatedAt: row timestamps in UTC.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken mirrors one row of the refresh_tokens table.  Only the
// SHA-256 hash of the raw token is persisted.
type RefreshToken struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
