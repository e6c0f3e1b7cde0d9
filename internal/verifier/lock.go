package verifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

// orderLocks serializes mutating operations per order id. Locks for distinct
// orders are independent, so scans against different orders never contend.
// Acquisition waits at most timeout before failing with types.ErrLockTimeout,
// so a stuck scanner cannot wedge an order indefinitely.
type orderLocks struct {
	mu      sync.Mutex
	locks   map[string]*orderLock
	timeout time.Duration
}

type orderLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newOrderLocks(timeout time.Duration) *orderLocks {
	return &orderLocks{
		locks:   make(map[string]*orderLock),
		timeout: timeout,
	}
}

// Acquire takes the lock for orderID, waiting up to the configured timeout.
// The returned release function must be called exactly once.
func (l *orderLocks) Acquire(ctx context.Context, orderID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &orderLock{sem: semaphore.NewWeighted(1)}
		l.locks[orderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := entry.sem.Acquire(waitCtx, 1); err != nil {
		l.release(orderID, entry, false)
		// Distinguish caller cancellation from lock wait expiry
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.ErrLockTimeout
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(orderID, entry, true) })
	}, nil
}

func (l *orderLocks) release(orderID string, entry *orderLock, held bool) {
	if held {
		entry.sem.Release(1)
	}
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, orderID)
	}
	l.mu.Unlock()
}
