package alerts

import "time"

// Alert levels.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Alert is a business-scoped notification, optionally linked to the
// transaction that raised it.
type Alert struct {
	ID                  int64      `json:"id"`
	BusinessID          int64      `json:"business_id"`
	Level               string     `json:"level"`
	Message             string     `json:"message"`
	LinkedTransactionID *int64     `json:"linked_transaction_id,omitempty"`
	Resolved            bool       `json:"resolved"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}
