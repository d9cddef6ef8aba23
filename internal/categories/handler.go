package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
)

// Handler exposes category endpoints.
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

// MountRoutes registers category routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapCategoriesRead)).Get("/", h.list)
		r.With(h.guards.RequirePermission(authz.CapCategoriesWrite)).Post("/", h.create)
	})
	r.Route("/{category_id}", func(r chi.Router) {
		r.With(h.guards.RequirePermission(authz.CapCategoriesRead)).Get("/", h.get)
		r.With(h.guards.RequirePermission(authz.CapCategoriesWrite)).Put("/", h.update)
		r.With(h.guards.RequirePermission(authz.CapCategoriesDelete)).Delete("/", h.remove)
	})
}

type categoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=income expense"`
	ParentID *int64 `json:"parent_id"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	items, err := h.service.ListByBusiness(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), Category{
		BusinessID: businessID,
		Name:       req.Name,
		Type:       req.Type,
		ParentID:   req.ParentID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), h.pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	updated, err := h.service.Update(r.Context(), h.pathID(r), Category{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

func (h *Handler) pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "category_id"), 10, 64)
	return id
}
