package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pseudosapiens/phrase-api/internal/email"
	"github.com/pseudosapiens/phrase-api/internal/model"
	"github.com/pseudosapiens/phrase-api/internal/service/engine"
	"github.com/pseudosapiens/phrase-api/internal/service/subscription"
	"github.com/pseudosapiens/phrase-api/pkg/auth"
	"github.com/pseudosapiens/phrase-api/pkg/locker"
	"github.com/pseudosapiens/phrase-api/pkg/logger"
	"github.com/pseudosapiens/phrase-api/pkg/metrics"
)

type DispatchConfig struct {
	Interval    time.Duration
	LeaseTTL    time.Duration
	Concurrency int
	// BaseURL is the public site root for unsubscribe links.
	BaseURL string
}

// DispatchWorker is the periodic trigger that fans the engine out over
// the subscriber population: eligibility gate, selection, transport
// send, then dispatch recording. Each subscriber's sequence runs under
// a redis lease so concurrent scheduler runs never race on one
// subscriber; subscribers are otherwise independent.
type DispatchWorker struct {
	subs    *subscription.Service
	engine  *engine.Service
	sender  email.Sender
	tokens  auth.TokenService
	locks   *locker.Locker
	config  DispatchConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewDispatchWorker(
	subs *subscription.Service,
	eng *engine.Service,
	sender email.Sender,
	tokens auth.TokenService,
	locks *locker.Locker,
	config DispatchConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *DispatchWorker {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = 2 * time.Minute
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	return &DispatchWorker{
		subs:    subs,
		engine:  eng,
		sender:  sender,
		tokens:  tokens,
		locks:   locks,
		config:  config,
		logger:  log,
		metrics: m,
	}
}

func (w *DispatchWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("starting dispatch worker",
		"interval", w.config.Interval.String(),
		"concurrency", w.config.Concurrency,
	)

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down dispatch worker")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DispatchWorker) runOnce(ctx context.Context) {
	now := time.Now().UTC()

	subs, err := w.subs.ListActiveSubscribers(ctx)
	if err != nil {
		w.logger.Error(err, "failed to load active subscribers")
		return
	}

	due, err := w.engine.DueSubscribers(ctx, subs, now)
	if err != nil {
		w.logger.Warn("eligibility check failed for some subscribers", "error", err.Error())
	}
	w.metrics.DueSubscribers.Set(float64(len(due)))

	w.logger.Info("dispatch pass", "active", len(subs), "due", len(due))

	sem := make(chan struct{}, w.config.Concurrency)
	var wg sync.WaitGroup
	for _, sub := range due {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(sub *model.ActiveSubscriber) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := w.dispatchWithRetry(ctx, sub); err != nil {
				w.metrics.SendFailures.Inc()
				w.logger.Error(err, "dispatch failed", "subscriber_id", sub.SubscriberID)
			}
		}(sub)
	}
	wg.Wait()
}

// dispatchWithRetry retries a conflicted sequence once; anything else
// waits for the next scheduled pass.
func (w *DispatchWorker) dispatchWithRetry(ctx context.Context, sub *model.ActiveSubscriber) error {
	err := w.dispatchOne(ctx, sub)
	if errors.Is(err, engine.ErrConcurrentModification) {
		return w.dispatchOne(ctx, sub)
	}
	return err
}

func (w *DispatchWorker) dispatchOne(ctx context.Context, sub *model.ActiveSubscriber) error {
	start := time.Now()
	defer func() {
		w.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	lease, err := w.locks.Acquire(ctx, "subscriber:"+sub.SubscriberID.String(), w.config.LeaseTTL)
	if errors.Is(err, locker.ErrNotAcquired) {
		// Another run holds this subscriber; their send is in good hands.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to acquire subscriber lease: %w", err)
	}
	defer lease.Release(ctx)

	// Re-check under the lease: a racing run may have just sent.
	now := time.Now().UTC()
	stillDue, err := w.engine.IsDue(ctx, sub.SubscriberID, sub.Plan, now)
	if err != nil {
		return err
	}
	if !stillDue {
		return nil
	}

	selStart := time.Now()
	sel, err := w.engine.SelectNext(ctx, sub.SubscriberID)
	w.metrics.SelectionDuration.Observe(time.Since(selStart).Seconds())
	if errors.Is(err, engine.ErrNoContentAvailable) {
		w.logger.Warn("catalog empty, nothing to send", "subscriber_id", sub.SubscriberID)
		return nil
	}
	if err != nil {
		return err
	}
	if sel.CycleReset {
		w.metrics.CycleResets.Inc()
		w.logger.Info("subscriber completed full catalog, cycle reset", "subscriber_id", sub.SubscriberID)
	}

	token, err := w.tokens.GenerateUnsubscribeToken(sub.SubscriberID)
	if err != nil {
		return fmt.Errorf("failed to build unsubscribe token: %w", err)
	}
	body, err := email.RenderPhrase(sel.Phrase, w.config.BaseURL+"/api/v1/unsubscribe?token="+token)
	if err != nil {
		return err
	}

	if err := w.sender.Send(ctx, sub.Email, email.Subject(sel.Phrase), body); err != nil {
		if recErr := w.engine.RecordFailed(ctx, sub.SubscriberID, sel.Phrase.ID, sub.PlanID, now); recErr != nil {
			w.logger.Error(recErr, "failed to record send failure", "subscriber_id", sub.SubscriberID)
		}
		return fmt.Errorf("transport send failed: %w", err)
	}

	wasNew, err := w.engine.RecordSent(ctx, sub.SubscriberID, sel.Phrase.ID, sub.PlanID, now)
	if err != nil {
		return err
	}
	// Right after a cycle reset the selector may legitimately pick a
	// phrase whose retained row already exists; only count replays
	// outside a reset as suspicious.
	if !wasNew && !sel.CycleReset {
		w.metrics.AlreadyRecorded.Inc()
	}
	w.metrics.EmailsSent.Inc()

	w.logger.Info("phrase dispatched",
		"subscriber_id", sub.SubscriberID,
		"phrase_id", sel.Phrase.ID,
		"plan_id", sub.PlanID,
		"cycle_reset", sel.CycleReset,
	)
	return nil
}
