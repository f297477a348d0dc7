package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/pseudosapiens/phrase-api/internal/model"
	"github.com/pseudosapiens/phrase-api/internal/repository"
	apperrors "github.com/pseudosapiens/phrase-api/pkg/errors"
)

const (
	planCacheTTL     = 5 * time.Minute
	planCacheCleanup = 10 * time.Minute
	allPlansKey      = "plans:active"
)

// Service is the plan registry and subscription lifecycle. Plans are
// read-mostly reference data, so lookups go through a short-lived cache;
// the engine still sees frequency changes within one cache window.
type Service struct {
	plans repository.PlanRepository
	subs  repository.SubscriptionRepository
	cache *cache.Cache
}

func NewService(plans repository.PlanRepository, subs repository.SubscriptionRepository) *Service {
	return &Service{
		plans: plans,
		subs:  subs,
		cache: cache.New(planCacheTTL, planCacheCleanup),
	}
}

func (s *Service) GetPlan(ctx context.Context, id int) (*model.Plan, error) {
	key := fmt.Sprintf("plan:%d", id)
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.Plan), nil
	}

	plan, err := s.plans.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}

	s.cache.Set(key, plan, cache.DefaultExpiration)
	return plan, nil
}

func (s *Service) ListActivePlans(ctx context.Context) ([]*model.Plan, error) {
	if cached, found := s.cache.Get(allPlansKey); found {
		return cached.([]*model.Plan), nil
	}

	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	s.cache.Set(allPlansKey, plans, cache.DefaultExpiration)
	return plans, nil
}

// GetActivePlan resolves the plan on the subscriber's currently active
// subscription. The eligibility gate receives this on every check, so
// upgrades and downgrades take effect immediately.
func (s *Service) GetActivePlan(ctx context.Context, subscriberID uuid.UUID) (*model.Plan, error) {
	sub, err := s.subs.GetActive(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("no active subscription: %w", err)
	}
	return s.GetPlan(ctx, sub.PlanID)
}

// Activate puts the subscriber on planID, superseding any prior active
// subscription atomically.
func (s *Service) Activate(ctx context.Context, subscriberID uuid.UUID, planID int, providerRef *string, expiresAt *time.Time) (*model.Subscription, error) {
	if _, err := s.GetPlan(ctx, planID); err != nil {
		return nil, apperrors.NotFound(fmt.Sprintf("plan %d", planID), err)
	}

	sub := &model.Subscription{
		SubscriberID: subscriberID,
		PlanID:       planID,
		ProviderRef:  providerRef,
		ExpiresAt:    expiresAt,
	}
	if err := s.subs.Activate(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}
	return sub, nil
}

func (s *Service) Cancel(ctx context.Context, subscriberID uuid.UUID) error {
	if err := s.subs.Cancel(ctx, subscriberID); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

func (s *Service) ListActiveSubscribers(ctx context.Context) ([]*model.ActiveSubscriber, error) {
	subs, err := s.subs.ListActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	// Resolve plans once per distinct id; the fanout reuses the cached
	// entries.
	for _, sub := range subs {
		plan, err := s.GetPlan(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		sub.Plan = *plan
	}
	return subs, nil
}
