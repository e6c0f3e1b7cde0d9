package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JihedeMedini/rfid-verify/internal/metrics"
	"github.com/JihedeMedini/rfid-verify/internal/storage"
	"github.com/JihedeMedini/rfid-verify/internal/tagsvc"
	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

// Scan outcome messages reported to operators
const (
	msgOrderNotFound  = "order not found"
	msgTagUnassigned  = "tag is not assigned to any item"
	msgItemNotOnOrder = "item not on this order"
	msgAlreadyScanned = "already scanned"
	msgQtyExceeded    = "quantity exceeded"
	msgOrderFailed    = "verification failed for this order; reset before scanning"
	msgAccepted       = "tag verified"
)

// DefaultLockTimeout bounds the wait for an order's critical section
const DefaultLockTimeout = 5 * time.Second

// Config contains configuration for the verifier
type Config struct {
	LockTimeout time.Duration // Per-order lock wait bound (default: 5s)
	Retry       RetryConfig   // Conflict retry policy
}

// Verifier implements the order fulfillment verification engine: it matches
// tag scans against order lines, tracks partial completion, rejects
// duplicates and over-scans, and drives the order verification state machine.
type Verifier struct {
	store    storage.Storage
	resolver tagsvc.Resolver
	locks    *orderLocks
	retry    RetryConfig
	log      *zap.SugaredLogger
}

// New creates a new Verifier instance
func New(store storage.Storage, resolver tagsvc.Resolver, log *zap.SugaredLogger, config *Config) *Verifier {
	if config == nil {
		config = &Config{}
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = DefaultRetryConfig()
	}
	return &Verifier{
		store:    store,
		resolver: resolver,
		locks:    newOrderLocks(config.LockTimeout),
		retry:    config.Retry,
		log:      log,
	}
}

// VerifyTag matches one tag scan against the order's lines. Operator-level
// rejections (unknown tag, item not on order, duplicate, exceeded quantity)
// come back as a VerificationResult; only infrastructure failures are
// returned as errors.
func (v *Verifier) VerifyTag(ctx context.Context, orderID, tagID string) (*types.VerificationResult, error) {
	start := time.Now()
	result, err := v.verifyTag(ctx, orderID, tagID)
	if err == nil {
		metrics.ScansTotal.WithLabelValues(string(result.Status)).Inc()
		metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}
	return result, err
}

func (v *Verifier) verifyTag(ctx context.Context, orderID, tagID string) (*types.VerificationResult, error) {
	if tagID == "" {
		return nil, types.ErrEmptyTagID
	}

	// Order existence is checked before tag resolution so an unknown order
	// is reported as such even when the tag is also unbound.
	if _, err := v.store.GetOrder(ctx, orderID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return rejection(tagID, "", types.ScanInvalid, msgOrderNotFound, ""), nil
		}
		return nil, fmt.Errorf("verifier: failed loading order %s: %w", orderID, err)
	}

	// Tag resolution is a side-effect-free read; no need to hold the order
	// lock across it.
	itemID, err := v.resolver.ResolveItemForTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, tagsvc.ErrTagUnassigned) {
			return rejection(tagID, "", types.ScanInvalid, msgTagUnassigned, ""), nil
		}
		return nil, fmt.Errorf("verifier: tag resolution failed for %s: %w", tagID, err)
	}

	release, err := v.acquire(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	return retryOnConflict(ctx, v.retry, func() (*types.VerificationResult, error) {
		order, err := v.store.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, types.ErrOrderNotFound
			}
			return nil, fmt.Errorf("verifier: failed loading order %s: %w", orderID, err)
		}

		line := order.LineForItem(itemID)
		if line == nil {
			return rejection(tagID, itemID, types.ScanInvalid, msgItemNotOnOrder, order.Status), nil
		}
		// Duplicate detection precedes the quantity check: a re-scan of an
		// already-counted tag must never be reported as "exceeded".
		if line.HasTag(tagID) {
			return rejection(tagID, itemID, types.ScanDuplicate, msgAlreadyScanned, order.Status), nil
		}
		if line.VerifiedQty >= line.TargetQty {
			return rejection(tagID, itemID, types.ScanWarning, msgQtyExceeded, order.Status), nil
		}
		// A failed order accepts no further scans; reset is the only way out
		if order.Status == types.StatusFailed {
			return rejection(tagID, itemID, types.ScanInvalid, msgOrderFailed, order.Status), nil
		}

		line.ScannedTags = append(line.ScannedTags, tagID)
		line.VerifiedQty++
		order.Status = NextStatus(order.Status, EventScanAccepted, order.AllLinesSatisfied())

		if err := v.store.SaveOrder(ctx, order); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, types.ErrOrderNotFound
			}
			return nil, err
		}

		v.log.Infow("tag accepted",
			"order", orderID, "tag", tagID, "item", itemID,
			"verified", line.VerifiedQty, "target", line.TargetQty,
			"status", order.Status)

		snapshot := *line
		snapshot.ScannedTags = append([]string(nil), line.ScannedTags...)
		return &types.VerificationResult{
			TagID:       tagID,
			ItemID:      itemID,
			IsValid:     true,
			Status:      types.ScanValid,
			Message:     msgAccepted,
			Line:        &snapshot,
			OrderStatus: order.Status,
		}, nil
	})
}

// SubmitVerification closes out an order's verification: COMPLETE when every
// line has reached its target, FAILED otherwise. The committed status is
// re-derived from current line data, so repeated submissions are idempotent.
// Each submission is appended to the audit trail.
func (v *Verifier) SubmitVerification(ctx context.Context, orderID string) (types.VerificationStatus, error) {
	release, err := v.acquire(ctx, orderID)
	if err != nil {
		return "", err
	}
	defer release()

	status, err := retryOnConflict(ctx, v.retry, func() (types.VerificationStatus, error) {
		order, err := v.store.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", types.ErrOrderNotFound
			}
			return "", fmt.Errorf("verifier: failed loading order %s: %w", orderID, err)
		}

		order.Status = NextStatus(order.Status, EventSubmit, order.AllLinesSatisfied())
		if err := v.store.SaveOrder(ctx, order); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", types.ErrOrderNotFound
			}
			return "", err
		}

		totalTarget, totalFound := totals(order)
		sub := &types.Submission{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			Status:      order.Status,
			TotalTarget: totalTarget,
			TotalFound:  totalFound,
			SubmittedAt: time.Now().Unix(),
		}
		if err := v.store.AppendSubmission(ctx, sub); err != nil {
			return "", fmt.Errorf("verifier: failed recording submission: %w", err)
		}

		return order.Status, nil
	})
	if err != nil {
		return "", err
	}

	metrics.SubmissionsTotal.WithLabelValues(string(status)).Inc()
	v.log.Infow("verification submitted", "order", orderID, "status", status)
	return status, nil
}

// ResetVerification rolls the order back to NOT_STARTED: every line's count
// goes to zero and its scanned tags are cleared. Legal from any state.
func (v *Verifier) ResetVerification(ctx context.Context, orderID string) error {
	release, err := v.acquire(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	_, err = retryOnConflict(ctx, v.retry, func() (struct{}, error) {
		order, err := v.store.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return struct{}{}, types.ErrOrderNotFound
			}
			return struct{}{}, fmt.Errorf("verifier: failed loading order %s: %w", orderID, err)
		}

		for _, line := range order.Lines {
			line.VerifiedQty = 0
			line.ScannedTags = nil
		}
		order.Status = NextStatus(order.Status, EventReset, false)

		if err := v.store.SaveOrder(ctx, order); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return struct{}{}, types.ErrOrderNotFound
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	metrics.ResetsTotal.Inc()
	v.log.Infow("verification reset", "order", orderID)
	return nil
}

// GetVerificationSummary aggregates progress across all lines. Pure read; it
// may run concurrently with writers and can be stale by one in-flight
// mutation.
func (v *Verifier) GetVerificationSummary(ctx context.Context, orderID string) (*types.VerificationSummary, error) {
	order, err := v.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	totalTarget, totalVerified := totals(order)
	progress := 0.0
	if totalTarget > 0 {
		progress = float64(totalVerified) / float64(totalTarget)
	}
	return &types.VerificationSummary{
		OrderID:       orderID,
		TotalTarget:   totalTarget,
		TotalVerified: totalVerified,
		Progress:      progress,
		// Reflects the committed status, not a recomputation: an order whose
		// quantities were satisfied after a FAILED submit stays not-complete
		// until resubmitted.
		IsComplete: order.Status == types.StatusComplete,
	}, nil
}

// GetOrderByID returns an order snapshot
func (v *Verifier) GetOrderByID(ctx context.Context, orderID string) (*types.Order, error) {
	order, err := v.store.GetOrder(ctx, orderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrOrderNotFound
	}
	return order, err
}

// GetAllOrders returns snapshots of every order
func (v *Verifier) GetAllOrders(ctx context.Context) ([]*types.Order, error) {
	return v.store.ListOrders(ctx)
}

// GetSubmissions returns the audit trail for an order, oldest first
func (v *Verifier) GetSubmissions(ctx context.Context, orderID string) ([]*types.Submission, error) {
	return v.store.ListSubmissions(ctx, orderID)
}

// CreateOrder registers an externally originated order for verification.
// Missing order and line ids are assigned.
func (v *Verifier) CreateOrder(ctx context.Context, order *types.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	for _, line := range order.Lines {
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
	}
	order.Status = types.StatusNotStarted
	if err := v.store.CreateOrder(ctx, order); err != nil {
		return err
	}
	v.log.Infow("order registered", "order", order.ID, "ref", order.ExternalRef,
		"kind", order.Kind, "lines", len(order.Lines))
	return nil
}

func (v *Verifier) acquire(ctx context.Context, orderID string) (func(), error) {
	release, err := v.locks.Acquire(ctx, orderID)
	if err != nil {
		if errors.Is(err, types.ErrLockTimeout) {
			metrics.LockTimeoutsTotal.Inc()
			v.log.Warnw("order lock wait timed out", "order", orderID)
		}
		return nil, err
	}
	return release, nil
}

func rejection(tagID, itemID string, status types.ScanStatus, message string, orderStatus types.VerificationStatus) *types.VerificationResult {
	return &types.VerificationResult{
		TagID:       tagID,
		ItemID:      itemID,
		IsValid:     false,
		Status:      status,
		Message:     message,
		OrderStatus: orderStatus,
	}
}

func totals(order *types.Order) (target, verified int) {
	for _, line := range order.Lines {
		target += line.TargetQty
		verified += line.VerifiedQty
	}
	return target, verified
}
