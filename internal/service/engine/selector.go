package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

// Selection is the outcome of SelectNext. CycleReset reports that the
// subscriber had exhausted the catalog and their history was pruned
// before this phrase was chosen.
type Selection struct {
	Phrase     *model.Phrase
	CycleReset bool
}

// SelectNext picks the next phrase for a subscriber: uniformly at
// random among phrases not yet sent to them. When the whole catalog has
// been seen, it records an auditable cycle-reset sentinel, prunes the
// history to the retention bound, and selects again from the reopened
// pool. Exclusions are derived from durable history, never passed in,
// so the call is safe to retry; only the reset branch writes.
func (s *Service) SelectNext(ctx context.Context, subscriberID uuid.UUID) (*Selection, error) {
	phrases, err := s.phrases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	if len(phrases) == 0 {
		return nil, ErrNoContentAvailable
	}

	seenCount, err := s.history.CountSent(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sent history: %w", err)
	}

	reset := false
	if seenCount >= len(phrases) {
		if err := s.history.ResetCycle(ctx, subscriberID, s.cfg.RetentionCount); err != nil {
			return nil, fmt.Errorf("failed to reset cycle: %w", err)
		}
		reset = true
	}

	seen, err := s.history.SeenPhraseIDs(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seen phrases: %w", err)
	}

	candidates := make([]*model.Phrase, 0, len(phrases)-len(seen))
	for _, p := range phrases {
		if _, ok := seen[p.ID]; !ok {
			candidates = append(candidates, p)
		}
	}

	// A catalog no larger than the retention bound can still be fully
	// seen right after a reset; the whole catalog reopens in that case.
	// Recording such a pick refreshes its retained row (wasNew=false),
	// which callers treat as normal on a reset pass.
	if len(candidates) == 0 {
		candidates = phrases
	}

	return &Selection{
		Phrase:     candidates[s.intn(len(candidates))],
		CycleReset: reset,
	}, nil
}
