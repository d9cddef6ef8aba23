package riskscores

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/platform/httpx"
)

// RepositoryPort defines data access methods for risk scores.
type RepositoryPort interface {
	Create(ctx context.Context, rs RiskScore) (*RiskScore, error)
	Get(ctx context.Context, id int64) (*RiskScore, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]RiskScore, error)
	Latest(ctx context.Context, businessID int64) (*RiskScore, error)
	Delete(ctx context.Context, id int64) error
}

// MetricsInvalidator bumps the dashboard metrics cache after writes. New or
// deleted scores change the risk breakdown the dashboard serves.
type MetricsInvalidator interface {
	Bump(ctx context.Context) error
}

// Handler exposes risk score endpoints. The module is thin enough that the
// handler talks to the repository directly.
type Handler struct {
	logger    *slog.Logger
	repo      RepositoryPort
	guards    authz.Guards
	metrics   MetricsInvalidator
	validator *validator.Validate
}

// NewHandler constructs a Handler. metrics may be nil when caching is off.
func NewHandler(logger *slog.Logger, repo RepositoryPort, guards authz.Guards, metrics MetricsInvalidator) *Handler {
	return &Handler{logger: logger, repo: repo, guards: guards, metrics: metrics, validator: validator.New()}
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.metrics == nil {
		return
	}
	if err := h.metrics.Bump(ctx); err != nil {
		h.logger.Warn("bump metrics cache", slog.Any("error", err))
	}
}

// MountRoutes registers risk score routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business/{business_id}", func(r chi.Router) {
		r.Use(h.guards.BusinessOwnerOrAdmin)
		r.With(h.guards.RequirePermission(authz.CapRiskScoresRead)).Get("/", h.list)
		r.With(h.guards.RequirePermission(authz.CapRiskScoresRead)).Get("/latest", h.latest)
		r.With(h.guards.RequirePermission(authz.CapRiskScoresWrite)).Post("/", h.create)
	})
	r.Route("/{risk_score_id}", func(r chi.Router) {
		r.With(h.guards.RequirePermission(authz.CapRiskScoresRead)).Get("/", h.get)
		r.With(h.guards.RequirePermission(authz.CapRiskScoresDelete)).Delete("/", h.remove)
	})
}

type riskScoreRequest struct {
	LiquidityScore    float64        `json:"liquidity_score"`
	CashflowRiskScore float64        `json:"cashflow_risk_score"`
	VolatilityIndex   float64        `json:"volatility_index"`
	DrawdownProb      float64        `json:"drawdown_prob" validate:"gte=0,lte=1"`
	Details           map[string]any `json:"details"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	scores, err := h.repo.ListByBusiness(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list risk scores", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, scores)
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	score, err := h.repo.Latest(r.Context(), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, score)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(chi.URLParam(r, "business_id"), 10, 64)
	var req riskScoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.repo.Create(r.Context(), RiskScore{
		BusinessID:        businessID,
		LiquidityScore:    req.LiquidityScore,
		CashflowRiskScore: req.CashflowRiskScore,
		VolatilityIndex:   req.VolatilityIndex,
		DrawdownProb:      req.DrawdownProb,
		Details:           req.Details,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.invalidate(r.Context())
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "risk_score_id"), 10, 64)
	score, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, score)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "risk_score_id"), 10, 64)
	if err := h.repo.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "risk score deleted"})
}
