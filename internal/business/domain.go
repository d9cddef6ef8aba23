package business

import "time"

// Business is the unit every financial resource hangs off. Settings is a
// free-form map; the dashboard reads current_cash from it when present.
type Business struct {
	ID        int64          `json:"id"`
	OwnerID   int64          `json:"owner_id"`
	Name      string         `json:"name"`
	Country   string         `json:"country,omitempty"`
	City      string         `json:"city,omitempty"`
	Currency  string         `json:"currency"`
	Timezone  string         `json:"timezone"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
