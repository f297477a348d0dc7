package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

func (r *phraseRepository) List(ctx context.Context) ([]*model.Phrase, error) {
	query := `
		SELECT id, text, author
		FROM phrases
	`
	var phrases []*model.Phrase
	if err := r.db.SelectContext(ctx, &phrases, query); err != nil {
		return nil, fmt.Errorf("failed to list phrases: %w", err)
	}
	return phrases, nil
}

func (r *phraseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Phrase, error) {
	query := `
		SELECT id, text, author
		FROM phrases
		WHERE id = $1
	`
	var phrase model.Phrase
	if err := r.db.GetContext(ctx, &phrase, query, id); err != nil {
		return nil, fmt.Errorf("failed to get phrase: %w", err)
	}
	return &phrase, nil
}

func (r *phraseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM phrases`); err != nil {
		return 0, fmt.Errorf("failed to count phrases: %w", err)
	}
	return count, nil
}
