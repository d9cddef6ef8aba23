// Package authz implements the role and scope based permission policy plus
// the resource ownership guards evaluated ahead of each handler.
package authz

import (
	"context"

	"github.com/fincompass/fincompass/internal/shared"
)

// Capability tokens take the form <resource>:<action>.
const (
	CapUsersRead    = "users:read"
	CapUsersWrite   = "users:write"
	CapUsersDelete  = "users:delete"
	CapBusinessesRead   = "businesses:read"
	CapBusinessesWrite  = "businesses:write"
	CapBusinessesDelete = "businesses:delete"
	CapCategoriesRead   = "categories:read"
	CapCategoriesWrite  = "categories:write"
	CapCategoriesDelete = "categories:delete"
	CapTransactionsRead   = "transactions:read"
	CapTransactionsWrite  = "transactions:write"
	CapTransactionsDelete = "transactions:delete"
	CapOCRDocumentsRead   = "ocr_documents:read"
	CapOCRDocumentsWrite  = "ocr_documents:write"
	CapOCRDocumentsDelete = "ocr_documents:delete"
	CapModelsRead   = "models:read"
	CapModelsWrite  = "models:write"
	CapModelsDelete = "models:delete"
	CapModelRunsRead   = "model_runs:read"
	CapModelRunsWrite  = "model_runs:write"
	CapModelRunsDelete = "model_runs:delete"
	CapForecastsRead   = "forecasts:read"
	CapForecastsWrite  = "forecasts:write"
	CapForecastsDelete = "forecasts:delete"
	CapRiskScoresRead   = "risk_scores:read"
	CapRiskScoresWrite  = "risk_scores:write"
	CapRiskScoresDelete = "risk_scores:delete"
	CapAlertsRead   = "alerts:read"
	CapAlertsWrite  = "alerts:write"
	CapAlertsDelete = "alerts:delete"
	CapScenariosRead   = "scenarios:read"
	CapScenariosWrite  = "scenarios:write"
	CapScenariosDelete = "scenarios:delete"
	CapAPIKeysRead   = "api_keys:read"
	CapAPIKeysWrite  = "api_keys:write"
	CapAPIKeysDelete = "api_keys:delete"
)

// Roles recognised by the policy table. A user row carrying the legacy
// business_owner role is treated as owner.
const (
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleAnalyst = "analyst"
	RoleViewer  = "viewer"
)

// Scope bundles attachable to API keys. Business administration and key
// management are reachable only through ScopeAdmin, never the narrower
// bundles.
const (
	ScopeRead   = "read"
	ScopeWrite  = "write"
	ScopeDelete = "delete"
	ScopeAdmin  = "admin"
)

// BusinessResolver supplies the ownership lookup the policy needs when a
// capability targets a specific business.
type BusinessResolver interface {
	BusinessOwner(ctx context.Context, businessID int64) (int64, error)
}

// Policy decides allow/deny for a principal, capability and optional target
// business. The role and scope tables are built once and never mutated.
type Policy struct {
	rolePerms  map[string]map[string]struct{}
	scopePerms map[string]map[string]struct{}
	businesses BusinessResolver
}

// NewPolicy builds the immutable policy tables.
func NewPolicy(businesses BusinessResolver) *Policy {
	return &Policy{
		rolePerms:  buildRoleTable(),
		scopePerms: buildScopeTable(),
		businesses: businesses,
	}
}

func toSet(caps []string) map[string]struct{} {
	set := make(map[string]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

func allCapabilities() []string {
	return []string{
		CapUsersRead, CapUsersWrite, CapUsersDelete,
		CapBusinessesRead, CapBusinessesWrite, CapBusinessesDelete,
		CapCategoriesRead, CapCategoriesWrite, CapCategoriesDelete,
		CapTransactionsRead, CapTransactionsWrite, CapTransactionsDelete,
		CapOCRDocumentsRead, CapOCRDocumentsWrite, CapOCRDocumentsDelete,
		CapModelsRead, CapModelsWrite, CapModelsDelete,
		CapModelRunsRead, CapModelRunsWrite, CapModelRunsDelete,
		CapForecastsRead, CapForecastsWrite, CapForecastsDelete,
		CapRiskScoresRead, CapRiskScoresWrite, CapRiskScoresDelete,
		CapAlertsRead, CapAlertsWrite, CapAlertsDelete,
		CapScenariosRead, CapScenariosWrite, CapScenariosDelete,
		CapAPIKeysRead, CapAPIKeysWrite, CapAPIKeysDelete,
	}
}

func buildRoleTable() map[string]map[string]struct{} {
	return map[string]map[string]struct{}{
		RoleAdmin: toSet(allCapabilities()),
		RoleOwner: toSet([]string{
			CapBusinessesRead, CapBusinessesWrite,
			CapCategoriesRead, CapCategoriesWrite, CapCategoriesDelete,
			CapTransactionsRead, CapTransactionsWrite, CapTransactionsDelete,
			CapOCRDocumentsRead, CapOCRDocumentsWrite, CapOCRDocumentsDelete,
			CapModelsRead, CapModelsWrite, CapModelsDelete,
			CapModelRunsRead, CapModelRunsWrite, CapModelRunsDelete,
			CapForecastsRead, CapForecastsWrite, CapForecastsDelete,
			CapRiskScoresRead, CapRiskScoresWrite, CapRiskScoresDelete,
			CapAlertsRead, CapAlertsWrite, CapAlertsDelete,
			CapScenariosRead, CapScenariosWrite, CapScenariosDelete,
			CapAPIKeysRead, CapAPIKeysWrite, CapAPIKeysDelete,
		}),
		RoleManager: toSet([]string{
			CapCategoriesRead, CapCategoriesWrite,
			CapTransactionsRead, CapTransactionsWrite,
			CapOCRDocumentsRead, CapOCRDocumentsWrite,
			CapModelsRead, CapModelsWrite,
			CapModelRunsRead, CapModelRunsWrite,
			CapForecastsRead, CapForecastsWrite,
			CapRiskScoresRead, CapRiskScoresWrite,
			CapAlertsRead, CapAlertsWrite,
			CapScenariosRead, CapScenariosWrite,
		}),
		RoleAnalyst: toSet([]string{
			CapCategoriesRead, CapTransactionsRead, CapOCRDocumentsRead,
			CapModelsRead, CapModelRunsRead, CapForecastsRead,
			CapRiskScoresRead, CapAlertsRead, CapScenariosRead,
		}),
		RoleViewer: toSet([]string{
			CapCategoriesRead, CapTransactionsRead, CapForecastsRead,
			CapRiskScoresRead, CapAlertsRead,
		}),
	}
}

func buildScopeTable() map[string]map[string]struct{} {
	return map[string]map[string]struct{}{
		ScopeRead: toSet([]string{
			CapCategoriesRead, CapTransactionsRead, CapOCRDocumentsRead,
			CapModelsRead, CapModelRunsRead, CapForecastsRead,
			CapRiskScoresRead, CapAlertsRead, CapScenariosRead,
		}),
		ScopeWrite: toSet([]string{
			CapCategoriesWrite, CapTransactionsWrite, CapOCRDocumentsWrite,
			CapModelsWrite, CapModelRunsWrite, CapForecastsWrite,
			CapRiskScoresWrite, CapAlertsWrite, CapScenariosWrite,
		}),
		ScopeDelete: toSet([]string{
			CapCategoriesDelete, CapTransactionsDelete, CapOCRDocumentsDelete,
			CapModelsDelete, CapModelRunsDelete, CapForecastsDelete,
			CapRiskScoresDelete, CapAlertsDelete, CapScenariosDelete,
		}),
		ScopeAdmin: toSet([]string{
			CapBusinessesRead, CapBusinessesWrite, CapBusinessesDelete,
			CapAPIKeysRead, CapAPIKeysWrite, CapAPIKeysDelete,
		}),
	}
}

func normalizeRole(role string) string {
	switch role {
	case "":
		return RoleViewer
	case "business_owner":
		return RoleOwner
	default:
		return role
	}
}

// rolePermissions returns the capability set for a role, empty for unknown
// roles.
func (p *Policy) rolePermissions(role string) map[string]struct{} {
	return p.rolePerms[normalizeRole(role)]
}

// scopePermissions returns the union of capability bundles for the scopes.
func (p *Policy) scopePermissions(scopes []string) map[string]struct{} {
	union := make(map[string]struct{})
	for _, s := range scopes {
		for c := range p.scopePerms[s] {
			union[c] = struct{}{}
		}
	}
	return union
}

// HasPermission reports whether the principal may exercise the capability,
// optionally against a target business. It never returns an error: any
// ambiguity (nil principal, unknown capability, unresolvable business) is a
// plain deny for the caller to surface as 403.
//
// Role grants define the ceiling; for non-admin token principals ownership of
// the target business defines the reach. API-key principals are limited to
// their scope bundles on top of everything else.
func (p *Policy) HasPermission(ctx context.Context, principal *shared.Principal, capability string, businessID int64) bool {
	if principal == nil {
		return false
	}

	if principal.Method == shared.AuthMethodAPIKey {
		_, ok := p.scopePermissions(principal.Scopes)[capability]
		return ok
	}

	if _, ok := p.rolePermissions(principal.Role)[capability]; !ok {
		return false
	}
	if businessID != 0 && !principal.IsAdmin() {
		if p.businesses == nil {
			return false
		}
		ownerID, err := p.businesses.BusinessOwner(ctx, businessID)
		if err != nil || ownerID != principal.UserID {
			return false
		}
	}
	return true
}
