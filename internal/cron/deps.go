package cron

import (
	"context"

	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"gorm.io/gorm"
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
