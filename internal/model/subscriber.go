package model

import (
	"time"

	"github.com/google/uuid"
)

type AuthMethod string

const (
	AuthMethodEmail  AuthMethod = "email"
	AuthMethodGoogle AuthMethod = "google"
)

type Subscriber struct {
	Base
	Email      string     `json:"email" db:"email"`
	Name       *string    `json:"name,omitempty" db:"name"`
	GoogleID   *string    `json:"google_id,omitempty" db:"google_id"`
	AvatarURL  *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	AuthMethod AuthMethod `json:"auth_method" db:"auth_method"`
}

// ActiveSubscriber is the join row the dispatch worker fans out over:
// a subscriber together with the plan on their current active subscription.
type ActiveSubscriber struct {
	SubscriberID uuid.UUID `db:"subscriber_id"`
	Email        string    `db:"email"`
	PlanID       int       `db:"plan_id"`
	Plan         Plan      `db:"-"`
}

// PhraseStats reports a subscriber's progress through the catalog.
type PhraseStats struct {
	SubscriberID     uuid.UUID  `json:"subscriber_id"`
	TotalPhrases     int        `json:"total_phrases_available"`
	PhrasesReceived  int        `json:"phrases_received"`
	PhrasesRemaining int        `json:"phrases_remaining"`
	CompletionPct    float64    `json:"completion_percentage"`
	LastSentAt       *time.Time `json:"last_phrase_sent,omitempty"`
	CycleCompleted   bool       `json:"cycle_completed"`
}
