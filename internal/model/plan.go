package model

import (
	"time"

	"github.com/lib/pq"
)

// Well-known plan ids. The id doubles as the marketing tier: premium
// plans 1..4 send that many emails per day, 13 is the manual VIP tier.
const (
	PlanFree = 0
	PlanVIP  = 13
)

// Plan is a named frequency/price policy. Plans are read-mostly
// reference data; exactly one frequency policy is authoritative per id.
type Plan struct {
	ID             int            `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	DisplayName    string         `json:"display_name" db:"display_name"`
	PriceSoles     float64        `json:"price_soles" db:"price_soles"`
	FrequencyHours int            `json:"frequency_hours" db:"frequency_hours"`
	MaxPerDay      int            `json:"max_emails_per_day" db:"max_emails_per_day"`
	PinnedTimes    pq.StringArray `json:"pinned_times,omitempty" db:"pinned_times"`
	Description    string         `json:"description" db:"description"`
	IsActive       bool           `json:"is_active" db:"is_active"`
}

// Interval is the minimum duration between two sends on this plan.
func (p Plan) Interval() time.Duration {
	return time.Duration(p.FrequencyHours) * time.Hour
}
