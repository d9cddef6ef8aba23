package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLogin    time.Time
}

// APIKey is a business-scoped credential. Only the SHA-256 hash of the key
// material is stored; Scopes narrows what the key may do regardless of the
// owning user's role.
type APIKey struct {
	ID         int64
	BusinessID int64
	Name       string
	KeyHash    string
	Scopes     []string
	Revoked    bool
	CreatedAt  time.Time
}
