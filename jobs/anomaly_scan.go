package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/ai"
	"github.com/fincompass/fincompass/internal/alerts"
	jobmetrics "github.com/fincompass/fincompass/internal/jobs"
	"github.com/fincompass/fincompass/internal/transactions"
)

const anomalySystemPrompt = "You are a fraud detection assistant. Respond only in JSON."

// Tagger is the narrow LLM contract the scan uses for anomaly labels.
type Tagger interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// AnomalyScanJob flags transactions whose amounts stand out from the
// business's recent history, raises alerts for them and asks the LLM for a
// short classification tag, falling back to a fixed label when the model is
// unreachable or returns garbage.
type AnomalyScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Tagger  Tagger
	clock   func() time.Time
}

// NewAnomalyScanJob initialises the anomaly scan handler.
func NewAnomalyScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics, tagger Tagger) *AnomalyScanJob {
	return &AnomalyScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		Tagger:  tagger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the anomaly scan logic.
func (j *AnomalyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("anomaly scan: handler not configured")
	}
	var payload AnomalyScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 90
	}
	if payload.Z <= 0 {
		payload.Z = 2.5
	}

	tracker := j.metrics().Track(TaskAnomalyScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.Int("window_days", payload.WindowDays),
		slog.Float64("z_threshold", payload.Z),
	)
	logger.Info("starting anomaly scan")

	flagged, err := j.scan(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed anomaly scan", slog.Int("flagged", flagged))
	return resultErr
}

type scanCandidate struct {
	transactions.Transaction
	ZScore float64
}

func (j *AnomalyScanJob) scan(ctx context.Context, payload AnomalyScanPayload) (int, error) {
	from := j.now().AddDate(0, 0, -payload.WindowDays)
	txRepo := transactions.NewRepository(j.Pool)
	alertRepo := alerts.NewRepository(j.Pool)

	businessIDs, err := j.targetBusinesses(ctx, payload.BusinessID)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, businessID := range businessIDs {
		txs, err := txRepo.List(ctx, transactions.ListFilter{BusinessID: businessID, From: from})
		if err != nil {
			return flagged, err
		}
		candidates := outliers(txs, payload.Z)
		for _, c := range candidates {
			tag := j.tagFor(ctx, c.Transaction)
			if err := txRepo.MarkAnomalous(ctx, c.ID, tag); err != nil {
				j.logger().Warn("mark anomalous",
					slog.Int64("transaction_id", c.ID),
					slog.Any("error", err))
				continue
			}
			txID := c.ID
			if _, err := alertRepo.Create(ctx, alerts.Alert{
				BusinessID:          businessID,
				Level:               alerts.LevelWarning,
				Message:             fmt.Sprintf("Unusual %s of %.2f detected (%s)", c.Direction, c.Amount, tag),
				LinkedTransactionID: &txID,
			}); err != nil {
				j.logger().Warn("create anomaly alert",
					slog.Int64("transaction_id", c.ID),
					slog.Any("error", err))
			}
			flagged++
		}
		j.metrics().AddAnomalies(businessID, len(candidates))
	}
	return flagged, nil
}

func (j *AnomalyScanJob) targetBusinesses(ctx context.Context, businessID int64) ([]int64, error) {
	if businessID > 0 {
		return []int64{businessID}, nil
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM businesses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// outliers returns the transactions whose signed amounts deviate from the
// window mean by at least z standard deviations. Already flagged rows are
// skipped so repeated scans stay idempotent.
func outliers(txs []transactions.Transaction, z float64) []scanCandidate {
	if len(txs) < 3 {
		return nil
	}
	values := make([]float64, len(txs))
	var sum float64
	for i, tx := range txs {
		values[i] = tx.Signed()
		sum += values[i]
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return nil
	}

	var out []scanCandidate
	for i, tx := range txs {
		if tx.IsAnomalous {
			continue
		}
		score := math.Abs((values[i] - mean) / stddev)
		if score >= z {
			out = append(out, scanCandidate{Transaction: tx, ZScore: score})
		}
	}
	return out
}

type anomalyVerdict struct {
	Tag string `json:"tag"`
}

// tagFor asks the LLM for a short classification. Any failure, including
// malformed output, falls back to a fixed label.
func (j *AnomalyScanJob) tagFor(ctx context.Context, tx transactions.Transaction) string {
	const fallback = "unusual"
	if j.Tagger == nil {
		return fallback
	}
	prompt := fmt.Sprintf(
		"Classify this transaction anomaly.\nDescription: %s\nAmount: %.2f\nDirection: %s\nDate: %s\n"+
			`Respond with JSON only: {"tag": "short classification"}`,
		tx.Description, tx.Amount, tx.Direction, tx.Date.Format("2006-01-02"))
	raw, err := j.Tagger.Generate(ctx, anomalySystemPrompt, prompt)
	if err != nil {
		return fallback
	}
	var verdict anomalyVerdict
	if err := json.Unmarshal([]byte(ai.StripFences(raw)), &verdict); err != nil || verdict.Tag == "" {
		return fallback
	}
	return verdict.Tag
}

func (j *AnomalyScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnomalyScan))
	}
	return slog.Default().With(slog.String("job", TaskAnomalyScan))
}

func (j *AnomalyScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnomalyScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
