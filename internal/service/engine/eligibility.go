package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

// IsDue reports whether a send is due for the subscriber under the
// given plan at time now. The plan is always the subscriber's currently
// active one, passed in by the caller: plan changes take effect on the
// next check, never mid-flight. A subscriber with no history is always
// due.
func (s *Service) IsDue(ctx context.Context, subscriberID uuid.UUID, plan model.Plan, now time.Time) (bool, error) {
	lastSentAt, err := s.history.LastSentAt(ctx, subscriberID)
	if err != nil {
		return false, fmt.Errorf("failed to get last sent time: %w", err)
	}

	local := now.In(s.cfg.Location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)

	sentToday, err := s.history.CountSentSince(ctx, subscriberID, dayStart)
	if err != nil {
		return false, fmt.Errorf("failed to count sends today: %w", err)
	}

	return evalDue(plan, lastSentAt, sentToday, now, s.cfg.Location), nil
}

// evalDue is the pure frequency policy. There is no shared wall-clock
// grid: the slot is relative to the subscriber's own last send, except
// for plans that pin sends to fixed local times of day.
func evalDue(plan model.Plan, lastSentAt *time.Time, sentToday int, now time.Time, loc *time.Location) bool {
	if plan.MaxPerDay > 0 && sentToday >= plan.MaxPerDay {
		return false
	}

	if len(plan.PinnedTimes) > 0 {
		return duePinned(plan.PinnedTimes, lastSentAt, now, loc)
	}

	if lastSentAt == nil {
		return true
	}
	return now.Sub(*lastSentAt) >= plan.Interval()
}

// duePinned: due once the current time has reached a pinned local time
// of day that no send has covered yet today.
func duePinned(pinned []string, lastSentAt *time.Time, now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	for _, hm := range pinned {
		t, err := time.Parse("15:04", hm)
		if err != nil {
			continue
		}
		window := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		if local.Before(window) {
			continue
		}
		if lastSentAt == nil || lastSentAt.Before(window) {
			return true
		}
	}
	return false
}

// DueSubscribers applies IsDue across a population. Per-subscriber
// lookup failures skip that subscriber for this run rather than failing
// the batch; the next scheduled run self-heals.
func (s *Service) DueSubscribers(ctx context.Context, subs []*model.ActiveSubscriber, now time.Time) ([]*model.ActiveSubscriber, error) {
	due := make([]*model.ActiveSubscriber, 0, len(subs))
	var lastErr error
	for _, sub := range subs {
		ok, err := s.IsDue(ctx, sub.SubscriberID, sub.Plan, now)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			due = append(due, sub)
		}
	}
	return due, lastErr
}
