// Package verifier implements the order fulfillment verification engine.
//
// The engine consumes a tag resolver and the order store to match physical
// tag scans against order lines, maintaining per-line quantity accounting and
// an order-level verification state machine.
//
// # Scan Validation
//
// VerifyTag evaluates, in order with first match winning:
//
//  1. Unknown order            -> invalid, no mutation
//  2. Unbound tag              -> invalid, no mutation
//  3. Item not on the order    -> invalid, no mutation
//  4. Tag already counted      -> duplicate, no mutation
//  5. Line target already met  -> warning, no mutation
//  6. Otherwise accept: the tag joins the line's scanned set, the count
//     increments by one, and the order status is recomputed, all persisted
//     atomically.
//
// Duplicate detection runs before the quantity check so a re-scan after the
// target is met reports "already scanned", not "quantity exceeded".
//
// # State Machine
//
// Order status moves NOT_STARTED -> IN_PROGRESS -> COMPLETE under scanning.
// SubmitVerification is the authoritative close-out and the only source of
// FAILED; ResetVerification returns any state to NOT_STARTED with all counts
// cleared. A FAILED order accepts no further scans until reset.
//
// # Concurrency
//
// All mutating operations on one order are serialized by a per-order lock
// with a bounded wait; operations on distinct orders proceed independently.
// Saves carry an optimistic version token, and conflicted read-modify-write
// cycles are retried a bounded number of times with exponential backoff
// before surfacing types.ErrConflict. Summary reads take no lock and may be
// stale by at most one in-flight mutation.
package verifier
