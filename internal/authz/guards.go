package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/shared"
)

// Business carries the ownership edge the guards need.
type Business struct {
	ID      int64
	OwnerID int64
}

// Transaction carries the transaction-to-business ownership edge.
type Transaction struct {
	ID         int64
	BusinessID int64
}

// ResourceResolver performs the point lookups guards rely on.
type ResourceResolver interface {
	BusinessResolver
	FindBusiness(ctx context.Context, id int64) (Business, error)
	BusinessesOwnedBy(ctx context.Context, ownerID int64) ([]Business, error)
	FindTransaction(ctx context.Context, id int64) (Transaction, error)
}

type businessContextKey struct{}

// ContextWithBusiness stores the guard-resolved business in context.
func ContextWithBusiness(ctx context.Context, b Business) context.Context {
	return context.WithValue(ctx, businessContextKey{}, b)
}

// BusinessFromContext returns the guard-resolved business, ok=false when no
// guard ran.
func BusinessFromContext(ctx context.Context) (Business, bool) {
	b, ok := ctx.Value(businessContextKey{}).(Business)
	return b, ok
}

// Guards bundles the ordered authorization checks mounted ahead of handlers.
// Every guard short-circuits: the first failure wins and the wrapped handler
// never runs.
type Guards struct {
	Policy   *Policy
	Resolver ResourceResolver
	Logger   *slog.Logger
}

func pathID(r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) *shared.Principal {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return nil
	}
	return principal
}

// RequirePermission enforces a capability check, using the business_id path
// parameter as the ownership target when present.
func (g Guards) RequirePermission(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := requirePrincipal(w, r)
			if principal == nil {
				return
			}
			businessID, _ := pathID(r, "business_id")
			if !g.Policy.HasPermission(r.Context(), principal, capability, businessID) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SelfOrAdmin passes when the path user_id names the principal or the
// principal is an admin.
func (g Guards) SelfOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r)
		if principal == nil {
			return
		}
		userID, ok := pathID(r, "user_id")
		if ok && userID != principal.UserID && !principal.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveTargetBusiness applies the business_id parameter rules: explicit id
// when present; admins without one pass with no target; non-admins infer only
// when they own exactly one business, anything else is an explicit 400.
func (g Guards) resolveTargetBusiness(w http.ResponseWriter, r *http.Request, principal *shared.Principal) (Business, bool, bool) {
	businessID, ok := pathID(r, "business_id")
	if !ok {
		if principal.IsAdmin() {
			return Business{}, false, true
		}
		owned, err := g.Resolver.BusinessesOwnedBy(r.Context(), principal.UserID)
		if err != nil || len(owned) != 1 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "business_id required")
			return Business{}, false, false
		}
		businessID = owned[0].ID
	}

	business, err := g.Resolver.FindBusiness(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "business not found")
		} else {
			g.logError(r, "resolve business", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return Business{}, false, false
	}
	if business.OwnerID != principal.UserID && !principal.IsAdmin() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Business owner access required")
		return Business{}, false, false
	}
	return business, true, true
}

// BusinessOwnerOrAdmin gates business-scoped operations on the ownership
// chain.
func (g Guards) BusinessOwnerOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r)
		if principal == nil {
			return
		}
		business, resolved, ok := g.resolveTargetBusiness(w, r, principal)
		if !ok {
			return
		}
		if resolved {
			r = r.WithContext(ContextWithBusiness(r.Context(), business))
		}
		next.ServeHTTP(w, r)
	})
}

// TransactionAccess resolves the transaction named in the path and defers to
// the business ownership rule on its owning business. A missing transaction
// is a 404 before any permission evaluation; an existing one the caller may
// not reach is a 403. Requests without a transaction_id (create flows) pass
// through untouched.
func (g Guards) TransactionAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r)
		if principal == nil {
			return
		}
		txID, ok := pathID(r, "transaction_id")
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		tx, err := g.Resolver.FindTransaction(r.Context(), txID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "transaction not found")
			} else {
				g.logError(r, "resolve transaction", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			}
			return
		}
		business, err := g.Resolver.FindBusiness(r.Context(), tx.BusinessID)
		if err != nil {
			g.logError(r, "resolve transaction business", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if business.OwnerID != principal.UserID && !principal.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "Transaction access denied")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithBusiness(r.Context(), business)))
	})
}

func (g Guards) logError(r *http.Request, msg string, err error) {
	if g.Logger != nil {
		g.Logger.Error(msg, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}
