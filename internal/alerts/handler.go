package alerts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
)

// Handler exposes alert endpoints.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	guards    authz.Guards
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo *Repository, guards authz.Guards) *Handler {
	return &Handler{logger: logger, repo: repo, guards: guards, validator: validator.New()}
}

// MountRoutes registers alert routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapAlertsRead)).Get("/", h.list)
		r.With(h.guards.RequirePermission(authz.CapAlertsWrite)).Post("/", h.create)
	})
	r.Route("/{alert_id}", func(r chi.Router) {
		r.With(h.guards.RequirePermission(authz.CapAlertsRead)).Get("/", h.get)
		r.With(h.guards.RequirePermission(authz.CapAlertsWrite)).Post("/resolve", h.resolve)
		r.With(h.guards.RequirePermission(authz.CapAlertsDelete)).Delete("/", h.remove)
	})
}

type alertRequest struct {
	Level               string `json:"level" validate:"required,oneof=info warning critical"`
	Message             string `json:"message" validate:"required"`
	LinkedTransactionID *int64 `json:"linked_transaction_id"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	onlyOpen := r.URL.Query().Get("open") == "true"
	items, err := h.repo.ListByBusiness(r.Context(), businessID, onlyOpen)
	if err != nil {
		h.logger.Error("list alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	var req alertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.repo.Create(r.Context(), Alert{
		BusinessID:          businessID,
		Level:               req.Level,
		Message:             req.Message,
		LinkedTransactionID: req.LinkedTransactionID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Get(r.Context(), h.pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Resolve(r.Context(), h.pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), h.pathID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "alert deleted"})
}

func (h *Handler) pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "alert_id"), 10, 64)
	return id
}
