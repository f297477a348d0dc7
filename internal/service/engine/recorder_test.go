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

func TestRecordSentIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(3)
	ledger := &fakeLedger{}
	svc := NewService(catalog, ledger, Config{})

	subscriber := uuid.New()
	phrase := catalog.phrases[0].ID
	sentAt := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	wasNew, err := svc.RecordSent(ctx, subscriber, phrase, 1, sentAt)
	require.NoError(t, err)
	assert.True(t, wasNew)

	// Retry after a transport timeout whose send actually succeeded:
	// soft AlreadyRecorded signal, one logical row, timestamp intact.
	wasNew, err = svc.RecordSent(ctx, subscriber, phrase, 1, sentAt)
	require.NoError(t, err)
	assert.False(t, wasNew)

	rows := ledger.rowsFor(subscriber)
	require.Len(t, rows, 1)
	assert.Equal(t, sentAt, rows[0].SentAt)
	assert.Equal(t, model.DeliveryStatusSent, rows[0].Status)
}

func TestRecordSentRejectsReservedID(t *testing.T) {
	svc := NewService(catalogOf(1), &fakeLedger{}, Config{})

	_, err := svc.RecordSent(context.Background(), uuid.New(), model.CycleResetPhraseID, 1, time.Now())
	assert.Error(t, err)
}

func TestRecordFailedKeepsPhraseEligible(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(1)
	ledger := &fakeLedger{}
	svc := NewService(catalog, ledger, Config{})
	subscriber := uuid.New()

	err := svc.RecordFailed(ctx, subscriber, catalog.phrases[0].ID, 1, time.Now())
	require.NoError(t, err)

	// A failed delivery is not "seen": the only phrase is still the
	// candidate and no cycle reset triggers.
	sel, err := svc.SelectNext(ctx, subscriber)
	require.NoError(t, err)
	assert.False(t, sel.CycleReset)
	assert.Equal(t, catalog.phrases[0].ID, sel.Phrase.ID)
}

func TestRecordSentAfterFailureFlipsStatus(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(2)
	ledger := &fakeLedger{}
	svc := NewService(catalog, ledger, Config{})
	subscriber := uuid.New()
	phrase := catalog.phrases[0].ID

	require.NoError(t, svc.RecordFailed(ctx, subscriber, phrase, 1, time.Now()))

	wasNew, err := svc.RecordSent(ctx, subscriber, phrase, 1, time.Now())
	require.NoError(t, err)
	assert.False(t, wasNew, "failure row upgraded in place")

	rows := ledger.rowsFor(subscriber)
	require.Len(t, rows, 1)
	assert.Equal(t, model.DeliveryStatusSent, rows[0].Status)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(4)
	svc := NewService(catalog, &fakeLedger{}, Config{})
	subscriber := uuid.New()

	stats, err := svc.Stats(ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalPhrases)
	assert.Equal(t, 0, stats.PhrasesReceived)
	assert.False(t, stats.CycleCompleted)
	assert.Nil(t, stats.LastSentAt)

	sentAt := time.Now().UTC()
	_, err = svc.RecordSent(ctx, subscriber, catalog.phrases[0].ID, 1, sentAt)
	require.NoError(t, err)
	_, err = svc.RecordSent(ctx, subscriber, catalog.phrases[1].ID, 1, sentAt.Add(time.Hour))
	require.NoError(t, err)

	stats, err = svc.Stats(ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PhrasesReceived)
	assert.Equal(t, 2, stats.PhrasesRemaining)
	assert.InDelta(t, 50.0, stats.CompletionPct, 0.01)
	require.NotNil(t, stats.LastSentAt)
	assert.Equal(t, sentAt.Add(time.Hour), *stats.LastSentAt)
}

func TestRecordFailedNeverDowngradesSentRow(t *testing.T) {
	ctx := context.Background()
	catalog := catalogOf(2)
	ledger := &fakeLedger{}
	svc := NewService(catalog, ledger, Config{})
	subscriber := uuid.New()
	phrase := catalog.phrases[0].ID
	sentAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := svc.RecordSent(ctx, subscriber, phrase, 1, sentAt)
	require.NoError(t, err)

	// After a cycle reset the selector can retry an already-delivered
	// phrase; a transport failure on that retry must not erase the
	// delivery from the seen set.
	require.NoError(t, svc.RecordFailed(ctx, subscriber, phrase, 1, sentAt.Add(time.Hour)))

	rows := ledger.rowsFor(subscriber)
	require.Len(t, rows, 1)
	assert.Equal(t, model.DeliveryStatusSent, rows[0].Status)
	assert.Equal(t, sentAt, rows[0].SentAt)
}
