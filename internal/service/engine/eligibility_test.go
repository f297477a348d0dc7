package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

func dailyPlan() model.Plan {
	return model.Plan{ID: 1, FrequencyHours: 24, MaxPerDay: 1}
}

func TestIsDueNoHistory(t *testing.T) {
	svc := NewService(catalogOf(3), &fakeLedger{}, Config{})

	due, err := svc.IsDue(context.Background(), uuid.New(), dailyPlan(), time.Now())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestIsDueIntervalBoundary(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(3)
	ledger := &fakeLedger{}
	svc := NewService(catalog, ledger, Config{})
	subscriber := uuid.New()

	sentAt := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	_, err := svc.RecordSent(ctx, subscriber, catalog.phrases[0].ID, 1, sentAt)
	require.NoError(t, err)

	plan := dailyPlan()

	due, err := svc.IsDue(ctx, subscriber, plan, sentAt.Add(23*time.Hour+59*time.Minute))
	require.NoError(t, err)
	assert.False(t, due, "one minute short of the interval")

	due, err = svc.IsDue(ctx, subscriber, plan, sentAt.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, due, "exactly at the interval")
}

func TestIsDueFalseImmediatelyAfterSend(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(3)
	svc := NewService(catalog, &fakeLedger{}, Config{})
	subscriber := uuid.New()
	now := time.Now().UTC()

	due, err := svc.IsDue(ctx, subscriber, dailyPlan(), now)
	require.NoError(t, err)
	require.True(t, due)

	_, err = svc.RecordSent(ctx, subscriber, catalog.phrases[0].ID, 1, now)
	require.NoError(t, err)

	due, err = svc.IsDue(ctx, subscriber, dailyPlan(), now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestIsDueMaxPerDayCap(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(10)
	svc := NewService(catalog, &fakeLedger{}, Config{})
	subscriber := uuid.New()

	// Two-per-day plan with a short interval: the cap binds, not the
	// interval.
	plan := model.Plan{ID: 2, FrequencyHours: 1, MaxPerDay: 2}
	base := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	_, err := svc.RecordSent(ctx, subscriber, catalog.phrases[0].ID, 2, base)
	require.NoError(t, err)
	_, err = svc.RecordSent(ctx, subscriber, catalog.phrases[1].ID, 2, base.Add(2*time.Hour))
	require.NoError(t, err)

	due, err := svc.IsDue(ctx, subscriber, plan, base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.False(t, due, "daily cap reached")

	// The cap resets at the local day boundary.
	due, err = svc.IsDue(ctx, subscriber, plan, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, due)
}

func TestIsDuePlanChangeTakesEffectImmediately(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(5)
	svc := NewService(catalog, &fakeLedger{}, Config{})
	subscriber := uuid.New()

	sentAt := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	_, err := svc.RecordSent(ctx, subscriber, catalog.phrases[0].ID, 0, sentAt)
	require.NoError(t, err)

	now := sentAt.Add(13 * time.Hour)

	free := model.Plan{ID: 0, FrequencyHours: 56, MaxPerDay: 1}
	due, err := svc.IsDue(ctx, subscriber, free, now)
	require.NoError(t, err)
	require.False(t, due)

	// Upgraded mid-cycle: eligibility uses the currently active plan.
	premium := model.Plan{ID: 2, FrequencyHours: 12, MaxPerDay: 2}
	due, err = svc.IsDue(ctx, subscriber, premium, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestEvalDuePinnedTimes(t *testing.T) {
	loc := time.UTC
	plan := model.Plan{ID: 0, FrequencyHours: 56, MaxPerDay: 1, PinnedTimes: []string{"08:00"}}
	day := time.Date(2025, 9, 1, 0, 0, 0, 0, loc)

	// Before the pinned time: not due even with no history.
	assert.False(t, evalDue(plan, nil, 0, day.Add(7*time.Hour), loc))

	// Past the pinned time, nothing sent in today's window.
	assert.True(t, evalDue(plan, nil, 0, day.Add(9*time.Hour), loc))

	yesterday := day.Add(-16 * time.Hour)
	assert.True(t, evalDue(plan, &yesterday, 0, day.Add(9*time.Hour), loc))

	// Already covered today's window.
	covered := day.Add(8*time.Hour + 30*time.Minute)
	assert.False(t, evalDue(plan, &covered, 1, day.Add(10*time.Hour), loc))
}

func TestEvalDuePinnedTimesMultipleWindows(t *testing.T) {
	loc := time.UTC
	plan := model.Plan{ID: 2, FrequencyHours: 12, MaxPerDay: 2, PinnedTimes: []string{"08:00", "20:00"}}
	day := time.Date(2025, 9, 1, 0, 0, 0, 0, loc)

	morning := day.Add(8*time.Hour + 5*time.Minute)

	// Morning window sent; evening window not yet reached.
	assert.False(t, evalDue(plan, &morning, 1, day.Add(12*time.Hour), loc))

	// Evening window open and uncovered.
	assert.True(t, evalDue(plan, &morning, 1, day.Add(20*time.Hour+1*time.Minute), loc))
}

func TestDueSubscribers(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(5)
	svc := NewService(catalog, &fakeLedger{}, Config{})

	fresh := &model.ActiveSubscriber{SubscriberID: uuid.New(), Plan: dailyPlan()}
	recent := &model.ActiveSubscriber{SubscriberID: uuid.New(), Plan: dailyPlan()}

	now := time.Now().UTC()
	_, err := svc.RecordSent(ctx, recent.SubscriberID, catalog.phrases[0].ID, 1, now.Add(-time.Hour))
	require.NoError(t, err)

	due, err := svc.DueSubscribers(ctx, []*model.ActiveSubscriber{fresh, recent}, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, fresh.SubscriberID, due[0].SubscriberID)
}
