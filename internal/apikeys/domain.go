package apikeys

import "time"

// APIKey is the management view of a business API key. Key material is never
// stored or returned after creation; only the SHA-256 hash persists.
type APIKey struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	Name       string    `json:"name,omitempty"`
	Scopes     []string  `json:"scopes"`
	Revoked    bool      `json:"revoked"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreatedKey pairs a stored key with its plaintext material, returned exactly
// once at creation time.
type CreatedKey struct {
	APIKey
	Key string `json:"key"`
}
