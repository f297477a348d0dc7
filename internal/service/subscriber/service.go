package subscriber

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pseudosapiens/phrase-api/internal/model"
	"github.com/pseudosapiens/phrase-api/internal/repository"
	"github.com/pseudosapiens/phrase-api/internal/service/subscription"
	"github.com/pseudosapiens/phrase-api/pkg/auth"
	apperrors "github.com/pseudosapiens/phrase-api/pkg/errors"
)

type Service struct {
	repo   repository.SubscriberRepository
	subs   *subscription.Service
	tokens auth.TokenService
}

func NewService(repo repository.SubscriberRepository, subs *subscription.Service, tokens auth.TokenService) *Service {
	return &Service{repo: repo, subs: subs, tokens: tokens}
}

// Signup registers an email subscriber and puts them on the free plan.
// Idempotent per email: an existing subscriber keeps their current
// subscription (a paid plan is never downgraded by re-signing up).
func (s *Service) Signup(ctx context.Context, email string, name *string) (*model.Subscriber, error) {
	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		sub = &model.Subscriber{
			Email:      email,
			Name:       name,
			AuthMethod: model.AuthMethodEmail,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}
	}

	if _, err := s.subs.GetActivePlan(ctx, sub.ID); err != nil {
		if _, err := s.subs.Activate(ctx, sub.ID, model.PlanFree, nil, nil); err != nil {
			return nil, fmt.Errorf("failed to create free subscription: %w", err)
		}
	}

	return sub, nil
}

// SignupGoogle registers (or resolves) a subscriber from an OAuth
// profile. Identity verification happened upstream; the profile fields
// are stored opaquely.
func (s *Service) SignupGoogle(ctx context.Context, email, name, googleID string, avatarURL *string) (*model.Subscriber, error) {
	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		sub = &model.Subscriber{
			Email:      email,
			Name:       &name,
			GoogleID:   &googleID,
			AvatarURL:  avatarURL,
			AuthMethod: model.AuthMethodGoogle,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}
	}

	if _, err := s.subs.GetActivePlan(ctx, sub.ID); err != nil {
		if _, err := s.subs.Activate(ctx, sub.ID, model.PlanFree, nil, nil); err != nil {
			return nil, fmt.Errorf("failed to create free subscription: %w", err)
		}
	}

	return sub, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Subscriber, error) {
	return s.repo.Get(ctx, id)
}

// Unsubscribe cancels the active subscription named by a signed token.
// The subscriber row and their history survive; only delivery stops.
func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	id, err := s.tokens.ValidateUnsubscribeToken(token)
	if err != nil {
		return apperrors.Unauthorized(fmt.Errorf("invalid unsubscribe token: %w", err))
	}

	if err := s.subs.Cancel(ctx, id); err != nil {
		return apperrors.Conflict("already unsubscribed", err)
	}
	return nil
}
