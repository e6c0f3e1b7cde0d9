package types

import "errors"

// Domain errors shared across the engine, storage, and API layers.
// Business rejections are NOT errors; they surface as VerificationResult.
var (
	// Not-found family
	ErrOrderNotFound = errors.New("order not found")
	ErrLineNotFound  = errors.New("order line not found")

	// Concurrency family, retryable by the caller
	ErrConflict    = errors.New("order modified concurrently")
	ErrLockTimeout = errors.New("timed out waiting for order lock")

	// Validation
	ErrInvalidOrderKind = errors.New("invalid order kind")
	ErrInvalidTargetQty = errors.New("target quantity must be positive")
	ErrQuantityMismatch = errors.New("verified quantity does not match scanned tags")
	ErrEmptyTagID       = errors.New("tag id cannot be empty")
)

// IsRetryable reports whether the caller may retry the operation as-is
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrLockTimeout)
}
