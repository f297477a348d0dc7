package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, provider, order_id, transaction_id, email, plan_id,
			amount_cents, currency, status, raw_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	p.ID = uuid.New()
	p.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Provider,
		p.OrderID,
		p.TransactionID,
		p.Email,
		p.PlanID,
		p.AmountCents,
		p.Currency,
		p.Status,
		p.RawPayload,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, provider model.PaymentProvider, txID string) (*model.Payment, error) {
	query := `
		SELECT id, provider, order_id, transaction_id, email, plan_id,
			   amount_cents, currency, status, raw_payload, created_at
		FROM payments
		WHERE provider = $1 AND transaction_id = $2
	`
	var p model.Payment
	if err := r.db.GetContext(ctx, &p, query, provider, txID); err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}
