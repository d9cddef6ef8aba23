package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fincompass/fincompass/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRiskAssess is the task type for periodic risk score snapshots.
	TaskRiskAssess = "risk:assess"
	// TaskAnomalyScan is the task type for transaction anomaly scans.
	TaskAnomalyScan = "transactions:anomaly_scan"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RiskAssessPayload scopes a risk assessment run. BusinessID 0 assesses
// every business.
type RiskAssessPayload struct {
	BusinessID int64 `json:"business_id"`
}

// AnomalyScanPayload tunes the anomaly scan window and sensitivity.
type AnomalyScanPayload struct {
	BusinessID int64   `json:"business_id"`
	WindowDays int     `json:"window_days"`
	Z          float64 `json:"z"`
}

// NewRiskAssessTask constructs an Asynq task.
func NewRiskAssessTask(payload RiskAssessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRiskAssess, data), nil
}

// NewAnomalyScanTask constructs an Asynq task.
func NewAnomalyScanTask(payload AnomalyScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnomalyScan, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueRiskAssess enqueues a risk assessment run.
func (c *Client) EnqueueRiskAssess(ctx context.Context, payload RiskAssessPayload) (*asynq.TaskInfo, error) {
	task, err := NewRiskAssessTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// EnqueueAnomalyScan enqueues an anomaly scan.
func (c *Client) EnqueueAnomalyScan(ctx context.Context, payload AnomalyScanPayload) (*asynq.TaskInfo, error) {
	task, err := NewAnomalyScanTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
