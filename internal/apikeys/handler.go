package apikeys

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/shared"
)

// Handler exposes API key management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guards    authz.Guards
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guards authz.Guards) *Handler {
	return &Handler{logger: logger, service: service, guards: guards, validator: validator.New()}
}

// MountRoutes registers API key routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapAPIKeysRead)).Get("/", h.list)
		r.With(h.guards.RequirePermission(authz.CapAPIKeysWrite)).Post("/", h.create)
	})
	r.Route("/{api_key_id}", func(r chi.Router) {
		r.With(h.guards.RequirePermission(authz.CapAPIKeysWrite)).Post("/revoke", h.revoke)
		r.With(h.guards.RequirePermission(authz.CapAPIKeysDelete)).Delete("/", h.remove)
	})
}

type createKeyRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=120"`
	Scopes []string `json:"scopes" validate:"dive,oneof=read write delete admin"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	keys, err := h.service.List(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list api keys", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, keys)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	var req createKeyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), businessID, req.Name, req.Scopes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	key, ok := h.authorizeKey(w, r)
	if !ok {
		return
	}
	revoked, err := h.service.Revoke(r.Context(), key.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, revoked)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	key, ok := h.authorizeKey(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), key.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "api key deleted"})
}

// authorizeKey resolves the key named in the path and enforces the business
// ownership chain. A missing key is a 404 before ownership is evaluated.
func (h *Handler) authorizeKey(w http.ResponseWriter, r *http.Request) (*APIKey, bool) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return nil, false
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "api_key_id"), 10, 64)
	key, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "api key not found")
		} else {
			h.logger.Error("resolve api key", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return nil, false
	}
	business, err := h.guards.Resolver.FindBusiness(r.Context(), key.BusinessID)
	if err != nil {
		h.logger.Error("resolve api key business", slog.Any("error", err))
		httpx.RespondError(w, err)
		return nil, false
	}
	if business.OwnerID != principal.UserID && !principal.IsAdmin() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
		return nil, false
	}
	return key, true
}
