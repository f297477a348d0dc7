package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pseudosapiens/phrase-api/internal/model"
	"github.com/pseudosapiens/phrase-api/internal/repository"
)

func (r *historyRepository) CountSent(ctx context.Context, subscriberID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_phrase_history
		WHERE subscriber_id = $1 AND status = $2
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subscriberID, model.DeliveryStatusSent); err != nil {
		return 0, fmt.Errorf("failed to count sent history: %w", err)
	}
	return count, nil
}

func (r *historyRepository) SeenPhraseIDs(ctx context.Context, subscriberID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	query := `
		SELECT phrase_id
		FROM user_phrase_history
		WHERE subscriber_id = $1 AND status = $2
	`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, subscriberID, model.DeliveryStatusSent); err != nil {
		return nil, fmt.Errorf("failed to list seen phrase ids: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

func (r *historyRepository) LastSentAt(ctx context.Context, subscriberID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT sent_at
		FROM user_phrase_history
		WHERE subscriber_id = $1 AND status = $2
		ORDER BY sent_at DESC
		LIMIT 1
	`
	var sentAt time.Time
	err := r.db.GetContext(ctx, &sentAt, query, subscriberID, model.DeliveryStatusSent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sent time: %w", err)
	}
	return &sentAt, nil
}

func (r *historyRepository) CountSentSince(ctx context.Context, subscriberID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_phrase_history
		WHERE subscriber_id = $1 AND status = $2 AND sent_at >= $3
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subscriberID, model.DeliveryStatusSent, since); err != nil {
		return 0, fmt.Errorf("failed to count sends since %v: %w", since, err)
	}
	return count, nil
}

func (r *historyRepository) UpsertSent(ctx context.Context, rec *model.HistoryRecord) (bool, error) {
	// (xmax = 0) distinguishes a fresh insert from a conflict update,
	// which is the AlreadyRecorded soft signal upstream. A 'failed'
	// write never overwrites an existing 'sent' row: after a cycle
	// reset the selector may retry a phrase whose retained row is
	// already delivered, and a transport failure on that retry must
	// not erase the delivery.
	query := `
		INSERT INTO user_phrase_history (
			id, subscriber_id, phrase_id, plan_id, status, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subscriber_id, phrase_id)
			WHERE phrase_id <> '00000000-0000-0000-0000-000000000000'
		DO UPDATE SET
			plan_id = CASE
				WHEN user_phrase_history.status = 'sent' AND EXCLUDED.status = 'failed'
				THEN user_phrase_history.plan_id
				ELSE EXCLUDED.plan_id
			END,
			status = CASE
				WHEN user_phrase_history.status = 'sent' AND EXCLUDED.status = 'failed'
				THEN user_phrase_history.status
				ELSE EXCLUDED.status
			END,
			sent_at = CASE
				WHEN user_phrase_history.status = 'sent' AND EXCLUDED.status = 'failed'
				THEN user_phrase_history.sent_at
				ELSE EXCLUDED.sent_at
			END
		RETURNING (xmax = 0) AS was_new
	`
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var wasNew bool
	err := r.db.GetContext(ctx, &wasNew, query,
		rec.ID,
		rec.SubscriberID,
		rec.PhraseID,
		rec.PlanID,
		rec.Status,
		rec.SentAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert history record: %w", err)
	}
	return wasNew, nil
}

func (r *historyRepository) ResetCycle(ctx context.Context, subscriberID uuid.UUID, keepMostRecent int) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Per-subscriber advisory lock scoped to this transaction keeps
		// two racing resets (or a reset racing a selection) from
		// interleaving their sentinel and prune writes.
		var locked bool
		err := tx.GetContext(ctx, &locked,
			`SELECT pg_try_advisory_xact_lock(hashtextextended($1, 0))`,
			subscriberID.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to take subscriber lock: %w", err)
		}
		if !locked {
			return repository.ErrConflict
		}

		sentinel := `
			INSERT INTO user_phrase_history (
				id, subscriber_id, phrase_id, status, sent_at
			) VALUES ($1, $2, $3, $4, $5)
		`
		_, err = tx.ExecContext(ctx, sentinel,
			uuid.New(),
			subscriberID,
			model.CycleResetPhraseID,
			model.DeliveryStatusCycleReset,
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert cycle reset sentinel: %w", err)
		}

		if _, err := pruneTx(ctx, tx, subscriberID, keepMostRecent); err != nil {
			return err
		}
		return nil
	})
}

// Prune deletes rows from completed cycles only. Rows at or after the
// subscriber's latest cycle-reset sentinel belong to the active cycle
// and decide what is "not yet sent", so they are never touched; a
// subscriber with no sentinel is still in their first cycle and loses
// nothing.
func (r *historyRepository) Prune(ctx context.Context, subscriberID uuid.UUID, keepMostRecent int) (int64, error) {
	query := `
		DELETE FROM user_phrase_history
		WHERE subscriber_id = $1
		  AND sent_at < COALESCE((
			SELECT MAX(sent_at)
			FROM user_phrase_history
			WHERE subscriber_id = $1 AND status = $3
		  ), '-infinity'::timestamptz)
		  AND id NOT IN (
			SELECT id
			FROM user_phrase_history
			WHERE subscriber_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		  )
	`
	result, err := r.db.ExecContext(ctx, query, subscriberID, keepMostRecent, model.DeliveryStatusCycleReset)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func pruneTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, keepMostRecent int) (int64, error) {
	query := `
		DELETE FROM user_phrase_history
		WHERE subscriber_id = $1
		  AND id NOT IN (
			SELECT id
			FROM user_phrase_history
			WHERE subscriber_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		  )
	`
	result, err := tx.ExecContext(ctx, query, subscriberID, keepMostRecent)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
