package services

import (
	"context"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"
	"rapidaid/pkg/logger"
)

// withRetry runs fn up to the store retry budget with linear backoff. Domain
// errors are final; only transient store failures are retried.
func withRetry(ctx context.Context, log *logger.Logger, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= utils.StoreRetryAttempts; attempt++ {
		err = fn()
		if err == nil || models.IsDomainErr(err) {
			return err
		}

		if attempt < utils.StoreRetryAttempts {
			log.WithField("op", op).WithField("attempt", attempt).WithError(err).
				Warn("Transient store failure, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(utils.StoreRetryBaseDelay * time.Duration(attempt)):
			}
		}
	}
	return err
}
