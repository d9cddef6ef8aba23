package transactions

import "time"

// Direction of a cash movement.
const (
	DirectionInflow  = "inflow"
	DirectionOutflow = "outflow"
)

// Transaction is a single dated cash movement for a business. Amount is
// non-negative; amount and direction together define the signed cashflow
// contribution.
type Transaction struct {
	ID          int64     `json:"id"`
	BusinessID  int64     `json:"business_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Direction   string    `json:"direction"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	Source      string    `json:"source,omitempty"`
	IsAnomalous bool      `json:"is_anomalous"`
	AITag       string    `json:"ai_tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Signed returns the cashflow contribution of the transaction.
func (t Transaction) Signed() float64 {
	if t.Direction == DirectionOutflow {
		return -t.Amount
	}
	return t.Amount
}
