package services

import (
	"context"
	"errors"
	"testing"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryRecoversFromTransientFailures(t *testing.T) {
	log := testLogger(t)
	calls := 0

	err := withRetry(context.Background(), log, "test op", func() error {
		calls++
		if calls < 3 {
			return errStoreDown
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryDomainErrorsAreFinal(t *testing.T) {
	log := testLogger(t)
	calls := 0

	err := withRetry(context.Background(), log, "test op", func() error {
		calls++
		return models.ErrConflictAlreadyBound
	})

	assert.ErrorIs(t, err, models.ErrConflictAlreadyBound)
	assert.Equal(t, 1, calls)
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	log := testLogger(t)
	calls := 0

	err := withRetry(context.Background(), log, "test op", func() error {
		calls++
		return errStoreDown
	})

	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, utils.StoreRetryAttempts, calls)
}

func TestWithRetryStopsOnCanceledContext(t *testing.T) {
	log := testLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, log, "test op", func() error {
		return errors.New("still failing")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
