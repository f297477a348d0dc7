package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
	// DeliveryStatusCycleReset marks the sentinel row written when a
	// subscriber has received the whole catalog and their cycle restarts.
	// Sentinel rows use CycleResetPhraseID and never count as "sent".
	DeliveryStatusCycleReset DeliveryStatus = "cycle_reset"
)

// CycleResetPhraseID is the reserved phrase id on cycle-reset sentinel
// rows. It never collides with a real catalog entry.
var CycleResetPhraseID = uuid.Nil

// HistoryRecord is the durable record that a phrase was sent to a
// subscriber. (SubscriberID, PhraseID) is unique for non-sentinel rows.
// PlanID is the plan active at send time, kept for analytics only.
type HistoryRecord struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	SubscriberID uuid.UUID      `json:"subscriber_id" db:"subscriber_id"`
	PhraseID     uuid.UUID      `json:"phrase_id" db:"phrase_id"`
	PlanID       *int           `json:"plan_id,omitempty" db:"plan_id"`
	Status       DeliveryStatus `json:"status" db:"status"`
	SentAt       time.Time      `json:"sent_at" db:"sent_at"`
}
