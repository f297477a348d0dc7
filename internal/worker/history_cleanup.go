package worker

import (
	"context"
	"time"

	"github.com/pseudosapiens/phrase-api/internal/repository"
	"github.com/pseudosapiens/phrase-api/pkg/logger"
)

// HistoryCleanupWorker bounds history growth by pruning rows from
// completed cycles. The repository only deletes rows older than a
// subscriber's latest cycle-reset sentinel, so the active cycle's seen
// set survives cleanup and subscribers still in their first cycle are
// left alone. Disabled by default in config.
type HistoryCleanupWorker struct {
	history       repository.HistoryRepository
	subscribers   repository.SubscriberRepository
	retentionRows int
	interval      time.Duration
	logger        *logger.Logger
}

func NewHistoryCleanupWorker(
	history repository.HistoryRepository,
	subscribers repository.SubscriberRepository,
	retentionRows int,
	interval time.Duration,
	log *logger.Logger,
) *HistoryCleanupWorker {
	return &HistoryCleanupWorker{
		history:       history,
		subscribers:   subscribers,
		retentionRows: retentionRows,
		interval:      interval,
		logger:        log,
	}
}

func (w *HistoryCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "history cleanup failed")
			}
		}
	}
}

func (w *HistoryCleanupWorker) cleanup(ctx context.Context) error {
	ids, err := w.subscribers.ListIDs(ctx)
	if err != nil {
		return err
	}

	var pruned int64
	for _, id := range ids {
		n, err := w.history.Prune(ctx, id, w.retentionRows)
		if err != nil {
			w.logger.Error(err, "failed to prune subscriber history", "subscriber_id", id)
			continue
		}
		pruned += n
	}

	w.logger.Info("history cleanup pass complete", "subscribers", len(ids), "pruned_rows", pruned)
	return nil
}
