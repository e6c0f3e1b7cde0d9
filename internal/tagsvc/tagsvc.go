package tagsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/JihedeMedini/rfid-verify/internal/storage"
)

// ErrTagUnassigned is returned when a tag has no item bound to it
var ErrTagUnassigned = errors.New("tag is not assigned to any item")

// Resolver looks up the inventory item a tag is currently bound to.
// Resolution is a fast, side-effect-free read; the verification engine calls
// it without holding any order lock.
type Resolver interface {
	ResolveItemForTag(ctx context.Context, tagID string) (string, error)
}

// StoreResolver resolves tags against the local tag_assignments table
type StoreResolver struct {
	store storage.Storage
}

// NewStoreResolver creates a resolver backed by local storage
func NewStoreResolver(store storage.Storage) *StoreResolver {
	return &StoreResolver{store: store}
}

// ResolveItemForTag returns the bound item id, or ErrTagUnassigned
func (r *StoreResolver) ResolveItemForTag(ctx context.Context, tagID string) (string, error) {
	itemID, err := r.store.ResolveTag(ctx, tagID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrTagUnassigned
	}
	if err != nil {
		return "", fmt.Errorf("tagsvc: failed resolving tag %s: %w", tagID, err)
	}
	return itemID, nil
}
