package models

import "time"

// ResetToken is a single-use grant for a password reset or email
// verification. Only the SHA-256 of the emailed value is stored.
type ResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	IsExpired bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
