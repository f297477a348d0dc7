package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentProvider string

const (
	PaymentProviderIzipay      PaymentProvider = "izipay"
	PaymentProviderMercadoPago PaymentProvider = "mercadopago"
)

type PaymentStatus string

const (
	PaymentStatusAuthorised PaymentStatus = "authorised"
	PaymentStatusRefused    PaymentStatus = "refused"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Payment records a provider notification that drove (or failed to
// drive) a plan activation. RawPayload keeps the provider body for
// reconciliation.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Provider      PaymentProvider `json:"provider" db:"provider"`
	OrderID       string          `json:"order_id" db:"order_id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	Email         string          `json:"email" db:"email"`
	PlanID        *int            `json:"plan_id,omitempty" db:"plan_id"`
	AmountCents   int64           `json:"amount_cents" db:"amount_cents"`
	Currency      string          `json:"currency" db:"currency"`
	Status        PaymentStatus   `json:"status" db:"status"`
	RawPayload    []byte          `json:"-" db:"raw_payload"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
