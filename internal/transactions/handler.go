package transactions

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

// Handler exposes transaction endpoints.
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

// MountRoutes registers transaction routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapTransactionsRead)).Get("/", h.list)
		r.With(h.guards.RequirePermission(authz.CapTransactionsWrite)).Post("/", h.create)
	})
	r.Route("/{transaction_id}", func(r chi.Router) {
		r.Use(h.guards.TransactionAccess)
		r.With(h.guards.RequirePermission(authz.CapTransactionsRead)).Get("/", h.get)
		r.With(h.guards.RequirePermission(authz.CapTransactionsWrite)).Put("/", h.update)
		r.With(h.guards.RequirePermission(authz.CapTransactionsDelete)).Delete("/", h.remove)
	})
}

type transactionRequest struct {
	Date        string  `json:"date" validate:"required"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Direction   string  `json:"direction" validate:"required,oneof=inflow outflow"`
	CategoryID  *int64  `json:"category_id"`
	Source      string  `json:"source"`
	AITag       string  `json:"ai_tag"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	filter := ListFilter{BusinessID: businessID}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = from
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = to
		}
	}
	filter.Direction = r.URL.Query().Get("direction")
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
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
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	created, err := h.service.Create(r.Context(), Transaction{
		BusinessID:  businessID,
		Date:        date,
		Description: req.Description,
		Amount:      req.Amount,
		Direction:   req.Direction,
		CategoryID:  req.CategoryID,
		Source:      req.Source,
		AITag:       req.AITag,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Get(r.Context(), h.pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

type updateTransactionRequest struct {
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	Direction   *string  `json:"direction" validate:"omitempty,oneof=inflow outflow"`
	CategoryID  *int64   `json:"category_id"`
	IsAnomalous *bool    `json:"is_anomalous"`
	AITag       *string  `json:"ai_tag"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	patch := UpdatePatch{
		Description: req.Description,
		Amount:      req.Amount,
		Direction:   req.Direction,
		CategoryID:  req.CategoryID,
		IsAnomalous: req.IsAnomalous,
		AITag:       req.AITag,
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		patch.Date = &date
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (transactionRequest, bool) {
	var req transactionRequest
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

func (h *Handler) pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "transaction_id"), 10, 64)
	return id
}
