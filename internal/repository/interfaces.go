package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

// ErrConflict is returned when a write lost a race against a concurrent
// writer for the same subscriber (lock not granted, serialization
// failure). Callers retry the whole per-subscriber sequence once.
var ErrConflict = errors.New("conflicting concurrent modification")

// All repository interfaces in one file
type (
	// PhraseRepository reads the immutable phrase catalog.
	PhraseRepository interface {
		List(ctx context.Context) ([]*model.Phrase, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Phrase, error)
		Count(ctx context.Context) (int, error)
	}

	// HistoryRepository is the send-history ledger for the engine.
	HistoryRepository interface {
		CountSent(ctx context.Context, subscriberID uuid.UUID) (int, error)
		SeenPhraseIDs(ctx context.Context, subscriberID uuid.UUID) (map[uuid.UUID]struct{}, error)
		LastSentAt(ctx context.Context, subscriberID uuid.UUID) (*time.Time, error)
		CountSentSince(ctx context.Context, subscriberID uuid.UUID, since time.Time) (int, error)
		// UpsertSent records a delivery; returns true when the
		// (subscriber, phrase) pair was new, false when an existing row
		// was refreshed.
		UpsertSent(ctx context.Context, rec *model.HistoryRecord) (bool, error)
		// ResetCycle atomically writes the cycle-reset sentinel and
		// prunes the subscriber's history down to keepMostRecent rows.
		// Serialized per subscriber; returns ErrConflict when a
		// concurrent reset or selection holds the subscriber.
		ResetCycle(ctx context.Context, subscriberID uuid.UUID, keepMostRecent int) error
		// Prune removes rows from completed cycles beyond
		// keepMostRecent. Rows at or after the latest cycle-reset
		// sentinel stay, so the active cycle's seen set is never
		// touched; subscribers with no sentinel lose nothing.
		Prune(ctx context.Context, subscriberID uuid.UUID, keepMostRecent int) (int64, error)
	}

	SubscriberRepository interface {
		Create(ctx context.Context, sub *model.Subscriber) error
		Get(ctx context.Context, id uuid.UUID) (*model.Subscriber, error)
		GetByEmail(ctx context.Context, email string) (*model.Subscriber, error)
		ListIDs(ctx context.Context) ([]uuid.UUID, error)
	}

	PlanRepository interface {
		Get(ctx context.Context, id int) (*model.Plan, error)
		ListActive(ctx context.Context) ([]*model.Plan, error)
	}

	SubscriptionRepository interface {
		// Activate inserts an active subscription for the subscriber,
		// cancelling any prior active row in the same transaction.
		Activate(ctx context.Context, sub *model.Subscription) error
		GetActive(ctx context.Context, subscriberID uuid.UUID) (*model.Subscription, error)
		Cancel(ctx context.Context, subscriberID uuid.UUID) error
		ListActiveSubscribers(ctx context.Context) ([]*model.ActiveSubscriber, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, p *model.Payment) error
		GetByTransactionID(ctx context.Context, provider model.PaymentProvider, txID string) (*model.Payment, error)
	}
)
