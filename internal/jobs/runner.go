// Package jobs holds the background maintenance work run on a cron schedule.
package jobs

import (
	"context"
	"time"

	"rentstore/internal/logger"
)

// jobTimeout bounds a single run so a stuck gateway cannot pile up overlapping runs.
const jobTimeout = 2 * time.Minute

// NotificationRetrier re-enqueues notification tasks that failed earlier.
type NotificationRetrier interface {
	RetryFailed(ctx context.Context) (int, error)
}

// ResetCodePurger clears password reset codes past their expiry.
type ResetCodePurger interface {
	PurgeExpiredResetCodes(ctx context.Context) (int64, error)
}

// Runner executes the individual jobs.
type Runner struct {
	notifications NotificationRetrier
	accounts      ResetCodePurger
}

func NewRunner(notifications NotificationRetrier, accounts ResetCodePurger) *Runner {
	return &Runner{notifications: notifications, accounts: accounts}
}

// runWithRecovery wraps job execution with panic recovery
func (r *Runner) runWithRecovery(name string, job func(ctx context.Context)) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Job panicked", "job", name, "panic", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Debug("Starting job", "job", name)
	job(ctx)
	logger.Debug("Job completed", "job", name)
}

// RetryFailedNotifications puts failed order confirmations back on the queue.
func (r *Runner) RetryFailedNotifications() {
	r.runWithRecovery("RetryFailedNotifications", func(ctx context.Context) {
		n, err := r.notifications.RetryFailed(ctx)
		if err != nil {
			logger.Error("Failed to retry notifications", "requeued", n, "error", err)
			return
		}
		if n > 0 {
			logger.Info("Requeued failed notifications", "count", n)
		}
	})
}

func (r *Runner) PurgeExpiredResetCodes() {
	r.runWithRecovery("PurgeExpiredResetCodes", func(ctx context.Context) {
		n, err := r.accounts.PurgeExpiredResetCodes(ctx)
		if err != nil {
			logger.Error("Failed to purge expired reset codes", "error", err)
			return
		}
		if n > 0 {
			logger.Info("Purged expired reset codes", "count", n)
		}
	})
}
