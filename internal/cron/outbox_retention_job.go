package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultDeadAttempts    = 10
)

// OutboxRetentionJobParams configure pruning of delivered and dead order events.
type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxPruner
	Retention  time.Duration
	// Rows that failed this many times without publishing count as dead.
	DeadAttempts int
	BatchSize    int
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount, limit int) (int64, error)
}

type outboxRetentionJob struct {
	params OutboxRetentionJobParams
	now    func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	if params.Retention <= 0 {
		params.Retention = defaultOutboxRetention
	}
	if params.DeadAttempts <= 0 {
		params.DeadAttempts = defaultDeadAttempts
	}
	return &outboxRetentionJob{params: params, now: time.Now}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.params.Retention)
	deleted, err := pruneBatches(ctx, j.params.DB, j.params.BatchSize, func(tx *gorm.DB, limit int) (int64, error) {
		return j.params.Repository.DeletePublishedBefore(ctx, tx, cutoff, j.params.DeadAttempts, limit)
	})
	if err != nil {
		return fmt.Errorf("outbox retention after %d rows: %w", deleted, err)
	}
	logCtx := j.params.Logger.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"dead_attempts": j.params.DeadAttempts,
		"rows_deleted":  deleted,
	})
	j.params.Logger.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
