package cron

import (
	"context"

	"gorm.io/gorm"
)

const defaultPruneBatch = 500

type batchDelete func(tx *gorm.DB, limit int) (int64, error)

// pruneBatches deletes through del in transactions of at most batch rows
// until a batch comes back short, so long backlogs never hold one big lock.
func pruneBatches(ctx context.Context, db txRunner, batch int, del batchDelete) (int64, error) {
	if batch <= 0 {
		batch = defaultPruneBatch
	}
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		var n int64
		err := db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = del(tx, batch)
			return err
		})
		total += n
		if err != nil {
			return total, err
		}
		if n < int64(batch) {
			return total, nil
		}
	}
}
