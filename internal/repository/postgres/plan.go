package postgres

import (
	"context"
	"fmt"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

func (r *planRepository) Get(ctx context.Context, id int) (*model.Plan, error) {
	query := `
		SELECT id, name, display_name, price_soles, frequency_hours,
			   max_emails_per_day, pinned_times, description, is_active
		FROM subscription_plans
		WHERE id = $1
	`
	var plan model.Plan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) ListActive(ctx context.Context) ([]*model.Plan, error) {
	query := `
		SELECT id, name, display_name, price_soles, frequency_hours,
			   max_emails_per_day, pinned_times, description, is_active
		FROM subscription_plans
		WHERE is_active = true
		ORDER BY id
	`
	var plans []*model.Plan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}
	return plans, nil
}
