package verifier

import (
	"context"
	"errors"
	"time"

	"github.com/JihedeMedini/rfid-verify/internal/metrics"
	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

// RetryConfig configures the bounded retry of conflicted read-modify-write
// cycles
type RetryConfig struct {
	MaxAttempts int           // Maximum attempts including the first
	BaseDelay   time.Duration // Initial delay between attempts
	MaxDelay    time.Duration // Cap on the backoff delay
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns sensible defaults for conflict retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   25 * time.Millisecond,
		MaxDelay:    250 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// retryOnConflict executes fn, retrying with exponential backoff only when it
// fails with types.ErrConflict. Any other error is surfaced immediately;
// conflicts beyond the attempt budget surface as the last conflict error.
func retryOnConflict[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, types.ErrConflict) {
			return zero, err
		}
		lastErr = err
		metrics.ConflictRetriesTotal.Inc()

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
