package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/shared"
)

const apiKeyHeader = "X-API-Key"

// Middleware resolves request credentials to a principal in context.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func (m Middleware) resolve(r *http.Request) *shared.Principal {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		principal, err := m.Service.ResolveToken(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("bearer token rejected", slog.Any("error", err))
			}
			return nil
		}
		return principal
	}
	if key := r.Header.Get(apiKeyHeader); key != "" {
		principal, err := m.Service.ResolveAPIKey(r.Context(), key)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("api key rejected", slog.Any("error", err))
			}
			return nil
		}
		return principal
	}
	return nil
}

// Authenticate requires a resolvable credential and stores the principal in
// context; requests without one are rejected with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := m.resolve(r)
		if principal == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional resolves credentials when present but lets anonymous requests
// through unchanged.
func (m Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal := m.resolve(r); principal != nil {
			r = r.WithContext(shared.ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}
