package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pseudosapiens/phrase-api/internal/model"
	"github.com/pseudosapiens/phrase-api/internal/repository"
	"github.com/pseudosapiens/phrase-api/internal/service/subscriber"
	"github.com/pseudosapiens/phrase-api/internal/service/subscription"
	"github.com/pseudosapiens/phrase-api/pkg/logger"
)

const orderIDPrefix = "pseudosapiens_plan_"

// Notification is a provider-agnostic payment event after signature
// verification and field extraction.
type Notification struct {
	Provider      model.PaymentProvider
	TransactionID string
	OrderID       string
	Email         string
	AmountCents   int64
	Currency      string
	Status        model.PaymentStatus
	RawPayload    []byte
}

type Service struct {
	payments    repository.PaymentRepository
	subscribers *subscriber.Service
	subs        *subscription.Service
	hmacKey     []byte
	logger      *logger.Logger
}

func NewService(payments repository.PaymentRepository, subscribers *subscriber.Service, subs *subscription.Service, hmacKey string, log *logger.Logger) *Service {
	return &Service{
		payments:    payments,
		subscribers: subscribers,
		subs:        subs,
		hmacKey:     []byte(hmacKey),
		logger:      log,
	}
}

// VerifySignature checks the provider's HMAC-SHA256 hex signature over
// the raw body with a constant-time compare.
func (s *Service) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

// Process records the notification and, for an authorised payment,
// activates the purchased plan. Idempotent per (provider, transaction):
// a replayed webhook is a no-op.
func (s *Service) Process(ctx context.Context, n *Notification) error {
	if existing, err := s.payments.GetByTransactionID(ctx, n.Provider, n.TransactionID); err == nil && existing != nil {
		s.logger.Info("payment already processed", "provider", n.Provider, "transaction_id", n.TransactionID)
		return nil
	}

	planID, planErr := PlanFromOrderID(n.OrderID)

	p := &model.Payment{
		Provider:      n.Provider,
		OrderID:       n.OrderID,
		TransactionID: n.TransactionID,
		Email:         n.Email,
		AmountCents:   n.AmountCents,
		Currency:      n.Currency,
		Status:        n.Status,
		RawPayload:    n.RawPayload,
	}
	if planErr == nil {
		p.PlanID = &planID
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	if n.Status != model.PaymentStatusAuthorised {
		s.logger.Info("payment not authorised, no activation",
			"provider", n.Provider,
			"status", n.Status,
			"order_id", n.OrderID,
		)
		return nil
	}

	if planErr != nil {
		return fmt.Errorf("authorised payment with unparseable order id %q: %w", n.OrderID, planErr)
	}

	// Signup is idempotent; a checkout from a brand-new email creates
	// the subscriber on the spot.
	sub, err := s.subscribers.Signup(ctx, n.Email, nil)
	if err != nil {
		return fmt.Errorf("failed to resolve subscriber for payment: %w", err)
	}

	ref := string(n.Provider) + ":" + n.TransactionID
	if _, err := s.subs.Activate(ctx, sub.ID, planID, &ref, nil); err != nil {
		return fmt.Errorf("failed to activate plan %d for %s: %w", planID, n.Email, err)
	}

	s.logger.Info("premium plan activated", "email", n.Email, "plan_id", planID, "provider", n.Provider)
	return nil
}

// PlanFromOrderID extracts the plan from checkout order ids of the form
// pseudosapiens_plan_<id>_<timestamp>_<hash>.
func PlanFromOrderID(orderID string) (int, error) {
	if !strings.HasPrefix(orderID, orderIDPrefix) {
		return 0, fmt.Errorf("unexpected order id format: %q", orderID)
	}
	rest := strings.TrimPrefix(orderID, orderIDPrefix)
	parts := strings.SplitN(rest, "_", 2)
	planID, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid plan in order id %q: %w", orderID, err)
	}
	return planID, nil
}
