// Package storage provides SQLite-based persistence for orders and their
// verification state.
//
// The storage layer manages:
//   - Order records and their lines
//   - Accepted tag scans per line
//   - The append-only verification submission audit trail
//   - Tag-to-item assignments
//
// # Database Schema
//
// Tables:
//   - orders: order metadata, verification status, and the version column
//   - order_lines: item/quantity targets, creation order preserved
//   - scanned_tags: accepted tags per line, unique per (order, line, tag)
//   - verification_submissions: append-only audit of submitted verifications
//   - tag_assignments: tag-to-item bindings for the resolver
//
// # Whole-record Saves
//
// The verification engine performs read-modify-write cycles over a complete
// order record. SaveOrder therefore rewrites the order, its lines, and its
// scanned tags in a single transaction, guarded by the order's version:
//
//	order, _ := store.GetOrder(ctx, id)
//	mutate(order)
//	err := store.SaveOrder(ctx, order) // types.ErrConflict if raced
//
// A conflicting save leaves the stored record untouched; callers re-read and
// retry.
//
// # Build Tags
//
// Two driver configurations are supported:
//
// CGO build (cgo_sqlite tag), using github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
//
// Pure Go build (default), using modernc.org/sqlite:
//
//	CGO_ENABLED=0 go build ./...
package storage
