package business

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/shared"
)

// Handler exposes business endpoints.
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

// MountRoutes registers business routes. The router mounts these behind the
// authentication middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guards.RequirePermission(authz.CapBusinessesRead)).Get("/", h.list)
	r.With(h.guards.RequirePermission(authz.CapBusinessesWrite)).Post("/", h.create)
	r.Route("/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapBusinessesRead)).Get("/", h.get)
		r.With(h.guards.RequirePermission(authz.CapBusinessesWrite)).Put("/", h.update)
		r.With(h.guards.RequirePermission(authz.CapBusinessesDelete)).Delete("/", h.remove)
	})
}

// ServeCreate exposes the creation endpoint for the combined signup flow,
// which registers a business under /auth without the permission guard.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r)
}

type businessRequest struct {
	Name     string         `json:"name" validate:"required"`
	Country  string         `json:"country"`
	City     string         `json:"city"`
	Currency string         `json:"currency"`
	Timezone string         `json:"timezone"`
	Settings map[string]any `json:"settings"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var (
		businesses []Business
		err        error
	)
	if principal.IsAdmin() {
		businesses, err = h.service.ListAll(r.Context())
	} else {
		businesses, err = h.service.ListForOwner(r.Context(), principal.UserID)
	}
	if err != nil {
		h.logger.Error("list businesses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, businesses)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req businessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), principal.UserID, Business{
		Name:     req.Name,
		Country:  req.Country,
		City:     req.City,
		Currency: req.Currency,
		Timezone: req.Timezone,
		Settings: req.Settings,
	})
	if err != nil {
		h.logger.Error("create business", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := h.pathID(r)
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := h.pathID(r)
	var req businessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	updated, err := h.service.Update(r.Context(), id, Business{
		Name:     req.Name,
		Country:  req.Country,
		City:     req.City,
		Currency: req.Currency,
		Timezone: req.Timezone,
		Settings: req.Settings,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), h.pathID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "business deleted"})
}

func (h *Handler) pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	return id
}
