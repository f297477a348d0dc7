package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseudosapiens/phrase-api/internal/model"
	apperrors "github.com/pseudosapiens/phrase-api/pkg/errors"
)

type fakePlanRepo struct {
	plans map[int]*model.Plan
	gets  int
}

func (r *fakePlanRepo) Get(ctx context.Context, id int) (*model.Plan, error) {
	r.gets++
	p, ok := r.plans[id]
	if !ok {
		return nil, errors.New("sql: no rows in result set")
	}
	return p, nil
}

func (r *fakePlanRepo) ListActive(ctx context.Context) ([]*model.Plan, error) {
	var out []*model.Plan
	for _, p := range r.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSubRepo struct {
	active map[uuid.UUID]*model.Subscription
}

func (r *fakeSubRepo) Activate(ctx context.Context, sub *model.Subscription) error {
	if r.active == nil {
		r.active = make(map[uuid.UUID]*model.Subscription)
	}
	sub.ID = uuid.New()
	sub.Status = model.SubscriptionStatusActive
	sub.StartedAt = time.Now()
	r.active[sub.SubscriberID] = sub
	return nil
}

func (r *fakeSubRepo) GetActive(ctx context.Context, subscriberID uuid.UUID) (*model.Subscription, error) {
	sub, ok := r.active[subscriberID]
	if !ok {
		return nil, errors.New("sql: no rows in result set")
	}
	return sub, nil
}

func (r *fakeSubRepo) Cancel(ctx context.Context, subscriberID uuid.UUID) error {
	if _, ok := r.active[subscriberID]; !ok {
		return errors.New("no active subscription found")
	}
	delete(r.active, subscriberID)
	return nil
}

func (r *fakeSubRepo) ListActiveSubscribers(ctx context.Context) ([]*model.ActiveSubscriber, error) {
	var out []*model.ActiveSubscriber
	for id, sub := range r.active {
		out = append(out, &model.ActiveSubscriber{SubscriberID: id, PlanID: sub.PlanID})
	}
	return out, nil
}

func testPlans() *fakePlanRepo {
	return &fakePlanRepo{plans: map[int]*model.Plan{
		0: {ID: 0, Name: "free", FrequencyHours: 56, MaxPerDay: 1, IsActive: true},
		2: {ID: 2, Name: "premium_2", FrequencyHours: 12, MaxPerDay: 2, IsActive: true},
	}}
}

func TestGetPlanCaches(t *testing.T) {
	ctx := context.Background()
	plans := testPlans()
	svc := NewService(plans, &fakeSubRepo{})

	p, err := svc.GetPlan(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "premium_2", p.Name)

	_, err = svc.GetPlan(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, plans.gets, "second lookup served from cache")
}

func TestActivateUnknownPlan(t *testing.T) {
	svc := NewService(testPlans(), &fakeSubRepo{})

	_, err := svc.Activate(context.Background(), uuid.New(), 99, nil, nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestActivateSupersedes(t *testing.T) {
	ctx := context.Background()
	subs := &fakeSubRepo{}
	svc := NewService(testPlans(), subs)
	subscriber := uuid.New()

	_, err := svc.Activate(ctx, subscriber, 0, nil, nil)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, subscriber, 2, nil, nil)
	require.NoError(t, err)

	plan, err := svc.GetActivePlan(ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.ID)
}

func TestListActiveSubscribersHydratesPlans(t *testing.T) {
	ctx := context.Background()
	subs := &fakeSubRepo{}
	svc := NewService(testPlans(), subs)

	a, b := uuid.New(), uuid.New()
	_, err := svc.Activate(ctx, a, 0, nil, nil)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, b, 2, nil, nil)
	require.NoError(t, err)

	active, err := svc.ListActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, sub := range active {
		assert.Equal(t, sub.PlanID, sub.Plan.ID)
		assert.NotZero(t, sub.Plan.FrequencyHours)
	}
}
