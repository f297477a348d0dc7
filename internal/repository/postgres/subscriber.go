package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

func (r *subscriberRepository) Create(ctx context.Context, sub *model.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			id, email, name, google_id, avatar_url, auth_method,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.Email,
		sub.Name,
		sub.GoogleID,
		sub.AvatarURL,
		sub.AuthMethod,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}

func (r *subscriberRepository) Get(ctx context.Context, id uuid.UUID) (*model.Subscriber, error) {
	query := `
		SELECT id, email, name, google_id, avatar_url, auth_method,
			   created_at, updated_at
		FROM subscribers
		WHERE id = $1
	`
	var sub model.Subscriber
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return &sub, nil
}

func (r *subscriberRepository) GetByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	query := `
		SELECT id, email, name, google_id, avatar_url, auth_method,
			   created_at, updated_at
		FROM subscribers
		WHERE email = $1
	`
	var sub model.Subscriber
	if err := r.db.GetContext(ctx, &sub, query, email); err != nil {
		return nil, fmt.Errorf("failed to get subscriber by email: %w", err)
	}
	return &sub, nil
}

func (r *subscriberRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM subscribers`); err != nil {
		return nil, fmt.Errorf("failed to list subscriber ids: %w", err)
	}
	return ids, nil
}
