package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	JobOrderExpiry       = "order_expiry"
	JobStaleStreams      = "stale_streams"
	JobNotificationPurge = "notification_purge"

	// maxBatchesPerRun bounds one run so a large backlog is drained over several ticks
	maxBatchesPerRun = 50
	defaultBatchSize = 100
)

// OrderExpirer cancels pending orders older than ttl. store.OrderService implements it.
type OrderExpirer interface {
	ExpirePendingOrders(ctx context.Context, ttl time.Duration, batchSize int) (int, error)
}

// StreamCloser ends live streams that ran longer than maxDuration. stream.Service implements it.
type StreamCloser interface {
	CloseStaleStreams(ctx context.Context, maxDuration time.Duration, batchSize int) (int, error)
}

// NotificationPurger deletes read notifications older than retention
type NotificationPurger interface {
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

// drain calls step until it handles fewer than batch items
func drain(ctx context.Context, batch int, step func(ctx context.Context, batch int) (int, error)) (int, error) {
	total := 0
	for range maxBatchesPerRun {
		n, err := step(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
		if n < batch {
			break
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// NewOrderExpiryJob cancels and restocks unpaid orders
func NewOrderExpiryJob(orders OrderExpirer, ttl time.Duration, logger *zap.Logger) Job {
	return JobFunc{
		JobName: JobOrderExpiry,
		Fn: func(ctx context.Context) error {
			n, err := drain(ctx, defaultBatchSize, func(ctx context.Context, batch int) (int, error) {
				return orders.ExpirePendingOrders(ctx, ttl, batch)
			})
			if n > 0 {
				logger.Info("Expired pending orders", zap.Int("orders", n))
			}
			return err
		},
	}
}

// NewStaleStreamJob ends streams that have been live for too long
func NewStaleStreamJob(streams StreamCloser, maxDuration time.Duration, logger *zap.Logger) Job {
	return JobFunc{
		JobName: JobStaleStreams,
		Fn: func(ctx context.Context) error {
			n, err := drain(ctx, defaultBatchSize, func(ctx context.Context, batch int) (int, error) {
				return streams.CloseStaleStreams(ctx, maxDuration, batch)
			})
			if n > 0 {
				logger.Info("Closed stale streams", zap.Int("streams", n))
			}
			return err
		},
	}
}

// NewNotificationPurgeJob removes read notifications past retention
func NewNotificationPurgeJob(notifications NotificationPurger, retention time.Duration, logger *zap.Logger) Job {
	return JobFunc{
		JobName: JobNotificationPurge,
		Fn: func(ctx context.Context) error {
			n, err := notifications.PurgeRead(ctx, retention)
			if n > 0 {
				logger.Info("Purged read notifications", zap.Int64("notifications", n))
			}
			return err
		},
	}
}
