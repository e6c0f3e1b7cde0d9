package verifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/JihedeMedini/rfid-verify/internal/logger"
	"github.com/JihedeMedini/rfid-verify/internal/storage"
	"github.com/JihedeMedini/rfid-verify/internal/tagsvc"
	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

func setupVerifier(t *testing.T) (*Verifier, *storage.SQLiteStorage) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	v := New(store, tagsvc.NewStoreResolver(store), logger.NewNop(), nil)
	return v, store
}

// seedOrder creates an order with one line per (item, target) pair
func seedOrder(t *testing.T, store *storage.SQLiteStorage, id string, targets map[string]int) {
	order := &types.Order{
		ID:          id,
		ExternalRef: "REF-" + id,
		Kind:        types.KindShipping,
	}
	// Deterministic line order for assertions
	for _, item := range []string{"item-a", "item-b", "item-c"} {
		if target, ok := targets[item]; ok {
			order.Lines = append(order.Lines, &types.OrderLine{
				ID:        "line-" + item,
				ItemID:    item,
				TargetQty: target,
			})
		}
	}
	require.NoError(t, store.CreateOrder(context.Background(), order))
}

func assignTag(t *testing.T, store *storage.SQLiteStorage, tagID, itemID string) {
	require.NoError(t, store.AssignTag(context.Background(), tagID, itemID))
}

func TestVerifyTag_Accept(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 2})
	assignTag(t, store, "TAG-1", "item-a")

	result, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, types.ScanValid, result.Status)
	assert.Equal(t, "item-a", result.ItemID)
	assert.Equal(t, types.StatusInProgress, result.OrderStatus)
	require.NotNil(t, result.Line)
	assert.Equal(t, 1, result.Line.VerifiedQty)
	assert.Equal(t, []string{"TAG-1"}, result.Line.ScannedTags)

	// Persisted
	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, order.Status)
	assert.Equal(t, 1, order.Lines[0].VerifiedQty)
}

func TestVerifyTag_OrderNotFound(t *testing.T) {
	v, store := setupVerifier(t)
	assignTag(t, store, "TAG-1", "item-a")

	result, err := v.VerifyTag(context.Background(), "nope", "TAG-1")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, types.ScanInvalid, result.Status)
	assert.Equal(t, "order not found", result.Message)
}

func TestVerifyTag_TagUnassigned(t *testing.T) {
	v, store := setupVerifier(t)
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})

	result, err := v.VerifyTag(context.Background(), "ord-1", "TAG-GHOST")
	require.NoError(t, err)
	assert.Equal(t, types.ScanInvalid, result.Status)
	assert.Equal(t, "tag is not assigned to any item", result.Message)
}

func TestVerifyTag_ItemNotOnOrder(t *testing.T) {
	v, store := setupVerifier(t)
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})
	assignTag(t, store, "TAG-X", "item-x")

	result, err := v.VerifyTag(context.Background(), "ord-1", "TAG-X")
	require.NoError(t, err)
	assert.Equal(t, types.ScanInvalid, result.Status)
	assert.Equal(t, "item not on this order", result.Message)
	assert.Equal(t, "item-x", result.ItemID)
}

func TestVerifyTag_DuplicateIsIdempotent(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 3})
	assignTag(t, store, "TAG-1", "item-a")

	first, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)
	require.True(t, first.IsValid)

	second, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)
	assert.False(t, second.IsValid)
	assert.Equal(t, types.ScanDuplicate, second.Status)
	assert.Equal(t, "already scanned", second.Message)

	// Count unchanged
	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 1, order.Lines[0].VerifiedQty)
	assert.Len(t, order.Lines[0].ScannedTags, 1)
}

func TestVerifyTag_DuplicateBeforeExceeded(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})
	assignTag(t, store, "TAG-T", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-T")
	require.NoError(t, err)

	// Line is at target; re-scanning the same tag is a duplicate, not an
	// exceeded warning
	result, err := v.VerifyTag(ctx, "ord-1", "TAG-T")
	require.NoError(t, err)
	assert.Equal(t, types.ScanDuplicate, result.Status)
}

func TestVerifyTag_ExceededWithDistinctTag(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})
	assignTag(t, store, "TAG-T", "item-a")
	assignTag(t, store, "TAG-U", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-T")
	require.NoError(t, err)

	result, err := v.VerifyTag(ctx, "ord-1", "TAG-U")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, types.ScanWarning, result.Status)
	assert.Equal(t, "quantity exceeded", result.Message)

	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 1, order.Lines[0].VerifiedQty)
}

func TestVerifyTag_CompletesOrder(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1, "item-b": 1})
	assignTag(t, store, "TAG-A", "item-a")
	assignTag(t, store, "TAG-B", "item-b")

	first, err := v.VerifyTag(ctx, "ord-1", "TAG-A")
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, first.OrderStatus)

	second, err := v.VerifyTag(ctx, "ord-1", "TAG-B")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, second.OrderStatus)
}

func TestVerifyTag_CompleteOrderStaysComplete(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})
	assignTag(t, store, "TAG-A", "item-a")
	assignTag(t, store, "TAG-B", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-A")
	require.NoError(t, err)

	// Scanning against the satisfied line of a complete order warns and
	// never mutates
	result, err := v.VerifyTag(ctx, "ord-1", "TAG-B")
	require.NoError(t, err)
	assert.Equal(t, types.ScanWarning, result.Status)
	assert.Equal(t, types.StatusComplete, result.OrderStatus)
}

func TestVerifyTag_FailedOrderRejectsScans(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 2})
	assignTag(t, store, "TAG-1", "item-a")
	assignTag(t, store, "TAG-2", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)

	status, err := v.SubmitVerification(ctx, "ord-1")
	require.NoError(t, err)
	require.Equal(t, types.StatusFailed, status)

	// A fresh valid tag is rejected until reset
	result, err := v.VerifyTag(ctx, "ord-1", "TAG-2")
	require.NoError(t, err)
	assert.Equal(t, types.ScanInvalid, result.Status)
	assert.Equal(t, types.StatusFailed, result.OrderStatus)

	// But a duplicate still reports as duplicate
	result, err = v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)
	assert.Equal(t, types.ScanDuplicate, result.Status)
}

func TestVerifyTag_EmptyTag(t *testing.T) {
	v, store := setupVerifier(t)
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})

	_, err := v.VerifyTag(context.Background(), "ord-1", "")
	assert.ErrorIs(t, err, types.ErrEmptyTagID)
}

func TestSubmit_PartialFails(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 2})
	assignTag(t, store, "TAG-1", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)

	// Submit with 1 of 2 verified downgrades the order to FAILED
	status, err := v.SubmitVerification(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, status)

	// Idempotent: a second submit re-derives the same status
	status, err = v.SubmitVerification(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, status)

	// Both submissions are on the audit trail
	subs, err := v.GetSubmissions(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, types.StatusFailed, subs[0].Status)
	assert.Equal(t, 2, subs[0].TotalTarget)
	assert.Equal(t, 1, subs[0].TotalFound)
}

func TestSubmit_Complete(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})
	assignTag(t, store, "TAG-1", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)

	status, err := v.SubmitVerification(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, status)
}

func TestSubmit_NotFound(t *testing.T) {
	v, _ := setupVerifier(t)

	_, err := v.SubmitVerification(context.Background(), "nope")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestReset_Completeness(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 2, "item-b": 1})
	assignTag(t, store, "TAG-1", "item-a")
	assignTag(t, store, "TAG-2", "item-b")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)
	_, err = v.SubmitVerification(ctx, "ord-1")
	require.NoError(t, err)

	require.NoError(t, v.ResetVerification(ctx, "ord-1"))

	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusNotStarted, order.Status)
	for _, line := range order.Lines {
		assert.Zero(t, line.VerifiedQty)
		assert.Empty(t, line.ScannedTags)
	}

	// Scanning works again after the reset
	result, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestSummary(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 3, "item-b": 1})
	assignTag(t, store, "TAG-1", "item-a")

	_, err := v.VerifyTag(ctx, "ord-1", "TAG-1")
	require.NoError(t, err)

	summary, err := v.GetVerificationSummary(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTarget)
	assert.Equal(t, 1, summary.TotalVerified)
	assert.InDelta(t, 0.25, summary.Progress, 1e-9)
	assert.False(t, summary.IsComplete)
}

func TestSummary_ZeroTarget(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	require.NoError(t, store.CreateOrder(ctx, &types.Order{
		ID: "empty", ExternalRef: "REF-empty", Kind: types.KindIncoming,
	}))

	summary, err := v.GetVerificationSummary(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalTarget)
	assert.Zero(t, summary.Progress)

	// Submitting an empty order trivially completes it
	status, err := v.SubmitVerification(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, status)
}

func TestSummary_IsCompleteTracksStatusNotQuantities(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()
	seedOrder(t, store, "ord-1", map[string]int{"item-a": 1})
	assignTag(t, store, "TAG-1", "item-a")

	_, err := v.SubmitVerification(ctx, "ord-1")
	require.NoError(t, err)

	// Satisfy the line behind the engine's back
	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	order.Lines[0].VerifiedQty = 1
	order.Lines[0].ScannedTags = []string{"TAG-1"}
	require.NoError(t, store.SaveOrder(ctx, order))

	// Quantities are satisfied but the committed status is still FAILED
	summary, err := v.GetVerificationSummary(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalVerified)
	assert.False(t, summary.IsComplete)
}

func TestConcurrentScans_NoLostUpdates(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()

	const n = 8
	seedOrder(t, store, "ord-1", map[string]int{"item-a": n})
	for i := 0; i < n; i++ {
		assignTag(t, store, fmt.Sprintf("TAG-%d", i), "item-a")
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		tag := fmt.Sprintf("TAG-%d", i)
		g.Go(func() error {
			result, err := v.VerifyTag(ctx, "ord-1", tag)
			if err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("scan of %s rejected: %s", tag, result.Message)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, n, order.Lines[0].VerifiedQty)
	assert.Len(t, order.Lines[0].ScannedTags, n)
	assert.Equal(t, types.StatusComplete, order.Status)
}

func TestConcurrentScans_InvariantHolds(t *testing.T) {
	v, store := setupVerifier(t)
	ctx := context.Background()

	// More scanners than capacity: some succeed, some warn, the invariant
	// verified == |tags| <= target must hold throughout
	const n, target = 10, 4
	seedOrder(t, store, "ord-1", map[string]int{"item-a": target})
	for i := 0; i < n; i++ {
		assignTag(t, store, fmt.Sprintf("TAG-%d", i), "item-a")
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		tag := fmt.Sprintf("TAG-%d", i)
		g.Go(func() error {
			_, err := v.VerifyTag(ctx, "ord-1", tag)
			return err
		})
	}
	require.NoError(t, g.Wait())

	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, target, order.Lines[0].VerifiedQty)
	assert.Len(t, order.Lines[0].ScannedTags, target)
	assert.NoError(t, order.Validate())
}

func TestCreateOrder_AssignsIDs(t *testing.T) {
	v, _ := setupVerifier(t)
	ctx := context.Background()

	order := &types.Order{
		ExternalRef: "PO-77",
		Kind:        types.KindTransfer,
		Lines:       []*types.OrderLine{{ItemID: "item-a", TargetQty: 1}},
	}
	require.NoError(t, v.CreateOrder(ctx, order))
	assert.NotEmpty(t, order.ID)
	assert.NotEmpty(t, order.Lines[0].ID)
	assert.Equal(t, types.StatusNotStarted, order.Status)
}
