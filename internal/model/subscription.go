package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription links a subscriber to a plan. At most one active
// subscription exists per subscriber at any instant; activating a new
// one supersedes (cancels) the prior active row in the same transaction.
type Subscription struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	SubscriberID uuid.UUID          `json:"subscriber_id" db:"subscriber_id"`
	PlanID       int                `json:"plan_id" db:"plan_id"`
	Status       SubscriptionStatus `json:"status" db:"status"`
	ProviderRef  *string            `json:"provider_ref,omitempty" db:"provider_ref"`
	StartedAt    time.Time          `json:"started_at" db:"started_at"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty" db:"expires_at"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
}
