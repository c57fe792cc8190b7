package auth

// Package auth contains domain-level types for users, sessions, and token
// claims. It is pure and free of framework/adapter concerns.

import "time"

// User is the identity record persisted at signup. Email is unique and
// case-sensitive as stored. PasswordHash is never serialized outward.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary returns the client-facing shape of a user. The password hash
// never leaves this package through any other path.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the only user representation returned to clients.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the server-side record binding an issued token to a user,
// enabling revocation. The token references the user; it does not own it.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Token      string    `json:"token"`
	DeviceInfo string    `json:"device_info,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastActive time.Time `json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
// An expired session is treated as nonexistent by all lookups.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Claims is the logical payload signed into a bearer token.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
