package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

// RecordSent idempotently commits a delivery to the history ledger.
// wasNew is false when the (subscriber, phrase) pair already existed;
// the row is refreshed instead of erroring, so a retried transport
// send never double-counts and the per-subscriber send loop is safe to
// re-run after partial failure.
func (s *Service) RecordSent(ctx context.Context, subscriberID, phraseID uuid.UUID, planID int, sentAt time.Time) (wasNew bool, err error) {
	if phraseID == model.CycleResetPhraseID {
		return false, fmt.Errorf("phrase id %s is reserved", phraseID)
	}

	rec := &model.HistoryRecord{
		SubscriberID: subscriberID,
		PhraseID:     phraseID,
		PlanID:       &planID,
		Status:       model.DeliveryStatusSent,
		SentAt:       sentAt,
	}

	wasNew, err = s.history.UpsertSent(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("failed to record delivery: %w", err)
	}
	return wasNew, nil
}

// RecordFailed notes a transport failure. Failed rows never count as
// seen, so the phrase stays eligible for the next attempt.
func (s *Service) RecordFailed(ctx context.Context, subscriberID, phraseID uuid.UUID, planID int, sentAt time.Time) error {
	if phraseID == model.CycleResetPhraseID {
		return fmt.Errorf("phrase id %s is reserved", phraseID)
	}

	rec := &model.HistoryRecord{
		SubscriberID: subscriberID,
		PhraseID:     phraseID,
		PlanID:       &planID,
		Status:       model.DeliveryStatusFailed,
		SentAt:       sentAt,
	}

	if _, err := s.history.UpsertSent(ctx, rec); err != nil {
		return fmt.Errorf("failed to record delivery failure: %w", err)
	}
	return nil
}
