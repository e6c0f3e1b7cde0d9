package verifier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

func TestOrderLocks_Exclusive(t *testing.T) {
	locks := newOrderLocks(time.Second)
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "ord-1")
	require.NoError(t, err)

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		r, err := locks.Acquire(ctx, "ord-1")
		if err == nil {
			acquired.Store(true)
			r()
		}
		close(done)
	}()

	// Second acquirer must wait while the lock is held
	time.Sleep(50 * time.Millisecond)
	assert.False(t, acquired.Load())

	release()
	<-done
	assert.True(t, acquired.Load())
}

func TestOrderLocks_IndependentOrders(t *testing.T) {
	locks := newOrderLocks(100 * time.Millisecond)
	ctx := context.Background()

	r1, err := locks.Acquire(ctx, "ord-1")
	require.NoError(t, err)
	defer r1()

	// A different order id does not contend
	r2, err := locks.Acquire(ctx, "ord-2")
	require.NoError(t, err)
	r2()
}

func TestOrderLocks_Timeout(t *testing.T) {
	locks := newOrderLocks(50 * time.Millisecond)
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "ord-1")
	require.NoError(t, err)
	defer release()

	_, err = locks.Acquire(ctx, "ord-1")
	assert.ErrorIs(t, err, types.ErrLockTimeout)
	assert.True(t, types.IsRetryable(err))
}

func TestOrderLocks_CallerCancellation(t *testing.T) {
	locks := newOrderLocks(time.Second)

	release, err := locks.Acquire(context.Background(), "ord-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Acquire(ctx, "ord-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrderLocks_EntriesCleanedUp(t *testing.T) {
	locks := newOrderLocks(time.Second)

	release, err := locks.Acquire(context.Background(), "ord-1")
	require.NoError(t, err)
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestRetryOnConflict(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}
	ctx := context.Background()

	t.Run("succeeds after conflicts", func(t *testing.T) {
		calls := 0
		got, err := retryOnConflict(ctx, cfg, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, types.ErrConflict
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		_, err := retryOnConflict(ctx, cfg, func() (int, error) {
			calls++
			return 0, types.ErrConflict
		})
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Equal(t, cfg.MaxAttempts, calls)
	})

	t.Run("other errors surface immediately", func(t *testing.T) {
		boom := errors.New("storage down")
		calls := 0
		_, err := retryOnConflict(ctx, cfg, func() (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}
