package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

func (r *subscriptionRepository) Activate(ctx context.Context, sub *model.Subscription) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Supersede any prior active row so at most one active
		// subscription exists per subscriber.
		supersede := `
			UPDATE subscriptions
			SET status = $1, cancelled_at = $2
			WHERE subscriber_id = $3 AND status = $4
		`
		now := time.Now()
		_, err := tx.ExecContext(ctx, supersede,
			model.SubscriptionStatusCancelled,
			now,
			sub.SubscriberID,
			model.SubscriptionStatusActive,
		)
		if err != nil {
			return fmt.Errorf("failed to supersede active subscription: %w", err)
		}

		insert := `
			INSERT INTO subscriptions (
				id, subscriber_id, plan_id, status, provider_ref,
				started_at, expires_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		sub.ID = uuid.New()
		sub.Status = model.SubscriptionStatusActive
		sub.StartedAt = now

		_, err = tx.ExecContext(ctx, insert,
			sub.ID,
			sub.SubscriberID,
			sub.PlanID,
			sub.Status,
			sub.ProviderRef,
			sub.StartedAt,
			sub.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert subscription: %w", err)
		}
		return nil
	})
}

func (r *subscriptionRepository) GetActive(ctx context.Context, subscriberID uuid.UUID) (*model.Subscription, error) {
	query := `
		SELECT id, subscriber_id, plan_id, status, provider_ref,
			   started_at, expires_at, cancelled_at
		FROM subscriptions
		WHERE subscriber_id = $1 AND status = $2
	`
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, query, subscriberID, model.SubscriptionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Cancel(ctx context.Context, subscriberID uuid.UUID) error {
	query := `
		UPDATE subscriptions
		SET status = $1, cancelled_at = $2
		WHERE subscriber_id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		model.SubscriptionStatusCancelled,
		time.Now(),
		subscriberID,
		model.SubscriptionStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no active subscription found")
	}
	return nil
}

func (r *subscriptionRepository) ListActiveSubscribers(ctx context.Context) ([]*model.ActiveSubscriber, error) {
	query := `
		SELECT s.subscriber_id, u.email, s.plan_id
		FROM subscriptions s
		JOIN subscribers u ON u.id = s.subscriber_id
		WHERE s.status = $1
		  AND (s.expires_at IS NULL OR s.expires_at > NOW())
	`
	var subs []*model.ActiveSubscriber
	if err := r.db.SelectContext(ctx, &subs, query, model.SubscriptionStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}
	return subs, nil
}
