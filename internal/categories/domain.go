package categories

import "time"

// Category types mirror the transaction directions they classify.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Category groups transactions within a business.
type Category struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
