package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/metrics"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	maxPollBackoff     = 10 * time.Second
	pollJitter         = 250 * time.Millisecond
	sendTimeout        = 15 * time.Second
)

type pinger interface {
	Ping(context.Context) error
}

type txRunner interface {
	pinger
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// RelayParams wire a Relay. Broker is pinged at startup; Topics hands out a
// publisher per topic name.
type RelayParams struct {
	Config   config.OutboxConfig
	Logger   *logger.Logger
	DB       txRunner
	Broker   pinger
	Store    outboxStore
	Registry eventResolver
	Topics   topicSource
	Metrics  *metrics.OutboxMetrics
}

// Relay moves committed outbox rows onto Pub/Sub. Each row ends a pass in
// exactly one state: published, scheduled for retry, or pinned as terminal.
type Relay struct {
	logg        *logger.Logger
	db          txRunner
	broker      pinger
	store       outboxStore
	registry    eventResolver
	topics      topicSource
	metrics     *metrics.OutboxMetrics
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	var missing error
	for name, ok := range map[string]bool{
		"logger":         p.Logger != nil,
		"database":       p.DB != nil,
		"broker":         p.Broker != nil,
		"outbox store":   p.Store != nil,
		"event registry": p.Registry != nil,
		"topic source":   p.Topics != nil,
	} {
		if !ok {
			missing = multierr.Append(missing, fmt.Errorf("%s is required", name))
		}
	}
	if missing != nil {
		return nil, missing
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		broker:      p.Broker,
		store:       p.Store,
		registry:    p.Registry,
		topics:      p.Topics,
		metrics:     p.Metrics,
		batchSize:   p.Config.BatchSize,
		maxAttempts: p.Config.MaxAttempts,
		poll:        time.Duration(p.Config.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPoll
	}
	return r, nil
}

// Run drains the outbox until ctx ends. Full batches are followed by another
// pass at once; empty passes wait one poll interval and failed passes back
// off exponentially up to maxPollBackoff.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	pace := pacer{base: r.poll, ceiling: maxPollBackoff}
	for {
		handled, err := r.drain(ctx)
		if err != nil {
			r.logg.Error(ctx, "outbox pass failed", err)
		}
		wait := pace.next(handled > 0, err != nil)
		if err := sleepCtx(ctx, wait); err != nil {
			r.logg.Info(ctx, "outbox relay context canceled")
			return err
		}
	}
}

func (r *Relay) ready(ctx context.Context) error {
	err := multierr.Combine(
		wrapPing("database", r.db.Ping(ctx)),
		wrapPing("pubsub", r.broker.Ping(ctx)),
	)
	if err != nil {
		return err
	}
	r.logg.Info(ctx, "outbox relay dependencies ready")
	return nil
}

func wrapPing(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s ping failed: %w", name, err)
}

// drain runs one pass over a locked batch and reports how many rows it
// handled. Bookkeeping errors abort the pass and roll the batch back.
func (r *Relay) drain(ctx context.Context) (int, error) {
	handled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.store.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch batch: %w", err)
		}
		for _, row := range rows {
			if err := r.record(ctx, tx, row, r.deliver(ctx, row)); err != nil {
				return err
			}
			handled++
		}
		return nil
	})
	return handled, err
}

// pacer decides how long the loop sleeps between passes.
type pacer struct {
	base    time.Duration
	ceiling time.Duration
	backoff time.Duration
}

func (p *pacer) next(busy, failed bool) time.Duration {
	switch {
	case failed:
		if p.backoff < p.base {
			p.backoff = p.base
		}
		p.backoff = min(p.backoff*2, p.ceiling)
		return p.backoff + jitter()
	case busy:
		p.backoff = 0
		return 0
	default:
		p.backoff = 0
		return p.base + jitter()
	}
}

func jitter() time.Duration {
	return rand.N(pollJitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var errNoPublisher = errors.New("no publisher for topic")
