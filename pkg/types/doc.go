// Package types provides shared domain types for the RFID verification service.
//
// The central type is Order, a shipping/transfer/return/incoming document made
// of OrderLine entries. Each line carries a target quantity and the set of tag
// identifiers already accepted toward it. The invariant maintained everywhere:
//
//	line.VerifiedQty == len(line.ScannedTags)
//	line.VerifiedQty <= line.TargetQty
//
// VerificationResult reports the outcome of a single scan. Operator-level
// outcomes (duplicate scan, quantity exceeded, item not on order) are carried
// as data in the result, while infrastructure failures (storage, lock timeout,
// write conflict) are returned as errors from this package's sentinel set.
//
// Orders carry an optimistic-concurrency Version; storage rejects a save whose
// version no longer matches the stored record with ErrConflict.
package types
