package bot

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	initialRetryInterval = 2 * time.Second
	maxRetryInterval     = 32 * time.Second
)

func newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryInterval
	b.MaxInterval = maxRetryInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // Never stop retrying
	return backoff.WithContext(b, ctx)
}

// retry runs op until it succeeds, sleeping 2, 4, 8, 16, 32, 32, ...
// seconds between attempts. The first attempt runs immediately. An
// error wrapped in backoff.Permanent stops the loop and is returned
// unwrapped. The only other way out is cancelling ctx.
func retry[T any](ctx context.Context, name string, op func() (T, error)) (T, error) {
	return retryWithTimer(ctx, name, op, nil)
}

func retryWithTimer[T any](ctx context.Context, name string, op func() (T, error), timer backoff.Timer) (T, error) {
	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		retryAttempts.WithLabelValues(name).Inc()
		log.WithFields(log.Fields{
			"op":      name,
			"attempt": attempt,
			"error":   err,
		}).Infof("Operation failed, reattempting in %s", next)
	}

	return backoff.RetryNotifyWithTimerAndData(op, newBackOff(ctx), notify, timer)
}

// retryNoData is retry for operations that only return an error
func retryNoData(ctx context.Context, name string, op func() error) error {
	_, err := retry(ctx, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
