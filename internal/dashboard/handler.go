package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
)

// Handler exposes the dashboard metrics endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guards  authz.Guards
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guards authz.Guards) *Handler {
	return &Handler{logger: logger, service: service, guards: guards}
}

// MountRoutes registers dashboard routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/metrics/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapRiskScoresRead)).Get("/", h.metrics)
	})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	snapshot, err := h.service.Metrics(r.Context(), businessID)
	if err != nil {
		h.logger.Error("dashboard metrics", slog.Int64("business_id", businessID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}
