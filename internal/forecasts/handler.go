package forecasts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
)

// Handler exposes forecast endpoints.
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

// MountRoutes registers forecast routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapForecastsRead)).Get("/", h.list)
		r.With(h.guards.RequirePermission(authz.CapForecastsWrite)).Post("/", h.create)
	})
	r.Route("/{forecast_id}", func(r chi.Router) {
		r.With(h.guards.RequirePermission(authz.CapForecastsRead)).Get("/", h.get)
		r.With(h.guards.RequirePermission(authz.CapForecastsWrite)).Put("/", h.update)
		r.With(h.guards.RequirePermission(authz.CapForecastsDelete)).Delete("/", h.remove)
	})
}

type forecastRequest struct {
	Granularity    string         `json:"granularity" validate:"omitempty,oneof=daily weekly monthly"`
	PeriodStart    string         `json:"period_start"`
	PeriodEnd      string         `json:"period_end"`
	PredictedValue *float64       `json:"predicted_value"`
	LowerBound     *float64       `json:"lower_bound"`
	UpperBound     *float64       `json:"upper_bound"`
	Metadata       map[string]any `json:"forecast_metadata"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	items, err := h.service.List(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list forecasts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Granularity == "" || req.PeriodStart == "" || req.PeriodEnd == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "granularity, period_start and period_end are required")
		return
	}
	forecast, ok := h.buildForecast(w, req)
	if !ok {
		return
	}
	forecast.BusinessID = businessID
	created, err := h.service.Create(r.Context(), forecast)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.service.Get(r.Context(), h.pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, forecast)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	patch, ok := h.buildForecast(w, req)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), h.pathID(r), patch)
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "forecast deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (forecastRequest, bool) {
	var req forecastRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) buildForecast(w http.ResponseWriter, req forecastRequest) (Forecast, bool) {
	forecast := Forecast{
		Granularity:    req.Granularity,
		PredictedValue: req.PredictedValue,
		LowerBound:     req.LowerBound,
		UpperBound:     req.UpperBound,
		Metadata:       req.Metadata,
	}
	if req.PeriodStart != "" {
		start, err := time.Parse("2006-01-02", req.PeriodStart)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_start must be YYYY-MM-DD")
			return forecast, false
		}
		forecast.PeriodStart = start
	}
	if req.PeriodEnd != "" {
		end, err := time.Parse("2006-01-02", req.PeriodEnd)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_end must be YYYY-MM-DD")
			return forecast, false
		}
		forecast.PeriodEnd = end
	}
	return forecast, true
}

func (h *Handler) pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "forecast_id"), 10, 64)
	return id
}
