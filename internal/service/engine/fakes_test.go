package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

// In-memory collaborators for engine tests. They mirror the contracts
// of the postgres repositories, including the (subscriber, phrase)
// uniqueness rule and sentinel handling.

type fakeCatalog struct {
	phrases []*model.Phrase
	listErr error
}

func (c *fakeCatalog) List(ctx context.Context) ([]*model.Phrase, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.phrases, nil
}

func (c *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (*model.Phrase, error) {
	for _, p := range c.phrases {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, context.Canceled
}

func (c *fakeCatalog) Count(ctx context.Context) (int, error) {
	if c.listErr != nil {
		return 0, c.listErr
	}
	return len(c.phrases), nil
}

type fakeLedger struct {
	mu       sync.Mutex
	records  []*model.HistoryRecord
	resetErr error
	resets   int
}

func (l *fakeLedger) CountSent(ctx context.Context, subscriberID uuid.UUID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.records {
		if r.SubscriberID == subscriberID && r.Status == model.DeliveryStatusSent {
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) SeenPhraseIDs(ctx context.Context, subscriberID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	for _, r := range l.records {
		if r.SubscriberID == subscriberID && r.Status == model.DeliveryStatusSent {
			seen[r.PhraseID] = struct{}{}
		}
	}
	return seen, nil
}

func (l *fakeLedger) LastSentAt(ctx context.Context, subscriberID uuid.UUID) (*time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var last *time.Time
	for _, r := range l.records {
		if r.SubscriberID != subscriberID || r.Status != model.DeliveryStatusSent {
			continue
		}
		if last == nil || r.SentAt.After(*last) {
			t := r.SentAt
			last = &t
		}
	}
	return last, nil
}

func (l *fakeLedger) CountSentSince(ctx context.Context, subscriberID uuid.UUID, since time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.records {
		if r.SubscriberID == subscriberID && r.Status == model.DeliveryStatusSent && !r.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) UpsertSent(ctx context.Context, rec *model.HistoryRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.SubscriberID == rec.SubscriberID && r.PhraseID == rec.PhraseID && r.Status != model.DeliveryStatusCycleReset {
			// A failed attempt never overwrites a delivered row.
			if !(r.Status == model.DeliveryStatusSent && rec.Status == model.DeliveryStatusFailed) {
				r.Status = rec.Status
				r.SentAt = rec.SentAt
				r.PlanID = rec.PlanID
			}
			return false, nil
		}
	}
	cp := *rec
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	l.records = append(l.records, &cp)
	return true, nil
}

func (l *fakeLedger) ResetCycle(ctx context.Context, subscriberID uuid.UUID, keepMostRecent int) error {
	if l.resetErr != nil {
		return l.resetErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets++
	l.records = append(l.records, &model.HistoryRecord{
		ID:           uuid.New(),
		SubscriberID: subscriberID,
		PhraseID:     model.CycleResetPhraseID,
		Status:       model.DeliveryStatusCycleReset,
		SentAt:       time.Now().UTC(),
	})
	l.pruneLocked(subscriberID, keepMostRecent)
	return nil
}

// Prune mirrors the postgres contract: only rows older than the latest
// cycle-reset sentinel are candidates, and without a sentinel nothing
// is removed.
func (l *fakeLedger) Prune(ctx context.Context, subscriberID uuid.UUID, keepMostRecent int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sentinelAt *time.Time
	for _, r := range l.records {
		if r.SubscriberID == subscriberID && r.Status == model.DeliveryStatusCycleReset {
			if sentinelAt == nil || r.SentAt.After(*sentinelAt) {
				t := r.SentAt
				sentinelAt = &t
			}
		}
	}
	if sentinelAt == nil {
		return 0, nil
	}

	var mine []*model.HistoryRecord
	var others []*model.HistoryRecord
	for _, r := range l.records {
		if r.SubscriberID == subscriberID {
			mine = append(mine, r)
		} else {
			others = append(others, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].SentAt.After(mine[j].SentAt) })

	var pruned int64
	kept := others
	for i, r := range mine {
		if i < keepMostRecent || !r.SentAt.Before(*sentinelAt) {
			kept = append(kept, r)
		} else {
			pruned++
		}
	}
	l.records = kept
	return pruned, nil
}

func (l *fakeLedger) pruneLocked(subscriberID uuid.UUID, keepMostRecent int) {
	var mine []*model.HistoryRecord
	var others []*model.HistoryRecord
	for _, r := range l.records {
		if r.SubscriberID == subscriberID {
			mine = append(mine, r)
		} else {
			others = append(others, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].SentAt.After(mine[j].SentAt) })
	if len(mine) > keepMostRecent {
		mine = mine[:keepMostRecent]
	}
	l.records = append(others, mine...)
}

func (l *fakeLedger) rowsFor(subscriberID uuid.UUID) []*model.HistoryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.HistoryRecord
	for _, r := range l.records {
		if r.SubscriberID == subscriberID {
			out = append(out, r)
		}
	}
	return out
}

func catalogOf(n int) *fakeCatalog {
	c := &fakeCatalog{}
	for i := 0; i < n; i++ {
		c.phrases = append(c.phrases, &model.Phrase{
			ID:     uuid.New(),
			Text:   "phrase",
			Author: "author",
		})
	}
	return c
}
