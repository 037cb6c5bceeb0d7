package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"gorm.io/gorm"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

// NotificationCleanupJobParams configure pruning of read feed entries.
type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationPruner
	Retention  time.Duration
	BatchSize  int
}

type notificationPruner interface {
	DeleteReadBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

type notificationCleanupJob struct {
	params NotificationCleanupJobParams
	now    func() time.Time
}

func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("notifications repository required")
	}
	if params.Retention <= 0 {
		params.Retention = defaultNotificationRetention
	}
	return &notificationCleanupJob{params: params, now: time.Now}, nil
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

// Run removes feed entries read before the retention cutoff. Unread entries
// stay regardless of age.
func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.params.Retention)
	deleted, err := pruneBatches(ctx, j.params.DB, j.params.BatchSize, func(tx *gorm.DB, limit int) (int64, error) {
		return j.params.Repository.DeleteReadBefore(ctx, tx, cutoff, limit)
	})
	logCtx := j.params.Logger.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	if err != nil {
		return fmt.Errorf("notification cleanup after %d rows: %w", deleted, err)
	}
	j.params.Logger.Info(logCtx, "notification cleanup complete")
	return nil
}
