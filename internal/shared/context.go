package shared

import "context"

// AuthMethod distinguishes how a principal authenticated.
type AuthMethod string

const (
	// AuthMethodToken marks bearer-token authentication.
	AuthMethodToken AuthMethod = "token"
	// AuthMethodAPIKey marks API-key authentication.
	AuthMethodAPIKey AuthMethod = "api_key"
)

// Principal is the authenticated actor a request executes on behalf of.
// For API-key requests the user is the owning business's owner and Scopes
// carries the key's grants, which narrow what the request may do.
type Principal struct {
	UserID     int64
	Email      string
	Role       string
	Method     AuthMethod
	BusinessID int64
	Scopes     []string
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == "admin"
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
