package storage

import (
	"context"
	"errors"

	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate record
	ErrAlreadyExists = errors.New("already exists")
)

// Storage defines the interface for persisting orders, their verification
// state, the submission audit trail, and tag-to-item assignments.
//
// SaveOrder rewrites the whole order record as a unit. Implementations must
// compare the order's Version against the stored record and return
// types.ErrConflict when they differ, so concurrent writers never silently
// overwrite each other.
type Storage interface {
	// Order operations
	CreateOrder(ctx context.Context, order *types.Order) error
	GetOrder(ctx context.Context, orderID string) (*types.Order, error)
	ListOrders(ctx context.Context) ([]*types.Order, error)
	SaveOrder(ctx context.Context, order *types.Order) error

	// Submission audit trail (append-only)
	AppendSubmission(ctx context.Context, sub *types.Submission) error
	ListSubmissions(ctx context.Context, orderID string) ([]*types.Submission, error)

	// Tag assignment operations
	AssignTag(ctx context.Context, tagID, itemID string) error
	UnassignTag(ctx context.Context, tagID string) error
	ResolveTag(ctx context.Context, tagID string) (string, error)

	Close() error
}
