package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestNotificationCleanupJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	repo := &fakeNotificationPruner{batches: []int64{42}}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		DB:         stubTxRunner{},
		Repository: repo,
		Retention:  48 * time.Hour,
	})
	require.NoError(t, err)
	job.(*notificationCleanupJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []int{defaultPruneBatch}, repo.limits)
	require.True(t, repo.cutoff.Equal(now.Add(-48*time.Hour)))
}

func TestNotificationCleanupJobDeletesInBatches(t *testing.T) {
	repo := &fakeNotificationPruner{batches: []int64{2, 2, 1}}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		DB:         stubTxRunner{},
		Repository: repo,
		BatchSize:  2,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []int{2, 2, 2}, repo.limits)
}

func TestNotificationCleanupJobStopsWhenCancelled(t *testing.T) {
	repo := &fakeNotificationPruner{batches: []int64{2, 2, 2}}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		DB:         stubTxRunner{},
		Repository: repo,
		BatchSize:  2,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	repo.afterCall = cancel
	require.ErrorIs(t, job.Run(ctx), context.Canceled)
	require.Len(t, repo.limits, 1)
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		DB:         stubTxRunner{},
		Repository: &fakeNotificationPruner{},
	})
	require.NoError(t, err)
	require.Equal(t, defaultNotificationRetention, job.(*notificationCleanupJob).params.Retention)
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		DB:         stubTxRunner{},
		Repository: &fakeNotificationPruner{err: errors.New("boom")},
	})
	require.NoError(t, err)
	require.ErrorContains(t, job.Run(context.Background()), "boom")
}

type fakeNotificationPruner struct {
	cutoff    time.Time
	batches   []int64
	limits    []int
	err       error
	afterCall func()
}

func (f *fakeNotificationPruner) DeleteReadBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	f.cutoff = cutoff
	f.limits = append(f.limits, limit)
	if f.afterCall != nil {
		f.afterCall()
	}
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}
