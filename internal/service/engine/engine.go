package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
	"github.com/pseudosapiens/phrase-api/internal/repository"
)

var (
	// ErrNoContentAvailable means the phrase catalog is empty. Nothing
	// can be sent until content is loaded; not retryable this cycle.
	ErrNoContentAvailable = errors.New("no phrases available in catalog")

	// ErrConcurrentModification is returned when a cycle reset or
	// selection lost a race for the same subscriber. The caller retries
	// the whole per-subscriber sequence once.
	ErrConcurrentModification = repository.ErrConflict
)

const DefaultRetentionCount = 50

// Config tunes the engine.
type Config struct {
	// RetentionCount is how many history rows survive a cycle reset.
	RetentionCount int
	// Location sets the day boundary for max-per-day caps and pinned
	// send times (e.g. America/Lima).
	Location *time.Location
}

// Service decides what to send next and whether a send is due. It owns
// no transport or billing state; plans and subscriptions are read-only
// inputs and history records are its only writes. Every operation is
// safe to re-run from scratch for a given subscriber.
type Service struct {
	phrases repository.PhraseRepository
	history repository.HistoryRepository
	cfg     Config

	// intn is the selection RNG, injectable for tests. The default is
	// the process-wide generator, which is safe for concurrent use.
	intn func(n int) int
}

func NewService(phrases repository.PhraseRepository, history repository.HistoryRepository, cfg Config) *Service {
	if cfg.RetentionCount <= 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		phrases: phrases,
		history: history,
		cfg:     cfg,
		intn:    rand.IntN,
	}
}

// Stats reports a subscriber's progress through the current cycle.
func (s *Service) Stats(ctx context.Context, subscriberID uuid.UUID) (*model.PhraseStats, error) {
	total, err := s.phrases.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog: %w", err)
	}

	received, err := s.history.CountSent(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sent history: %w", err)
	}

	lastSentAt, err := s.history.LastSentAt(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sent time: %w", err)
	}

	remaining := total - received
	if remaining < 0 {
		remaining = 0
	}

	pct := 0.0
	if total > 0 {
		pct = float64(received) / float64(total) * 100
	}

	return &model.PhraseStats{
		SubscriberID:     subscriberID,
		TotalPhrases:     total,
		PhrasesReceived:  received,
		PhrasesRemaining: remaining,
		CompletionPct:    pct,
		LastSentAt:       lastSentAt,
		CycleCompleted:   total > 0 && received >= total,
	}, nil
}
