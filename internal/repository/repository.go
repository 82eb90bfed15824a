package repository

import (
	"context"

	"github.com/Lava-10/knowMoreQR/internal/domain"
)

// CatalogRepository is the read side of the catalog store.
type CatalogRepository interface {
	// Get returns the entry with the given id or a NotFound error.
	Get(ctx context.Context, id string) (*domain.CatalogEntry, error)

	// List returns every entry in natural catalog order (created_at, id).
	List(ctx context.Context) ([]domain.CatalogEntry, error)

	// GetMany returns the entries for ids, in the order of ids. Missing ids
	// are omitted without error.
	GetMany(ctx context.Context, ids []string) ([]domain.CatalogEntry, error)
}

// WishlistRepository persists wishlist membership.
type WishlistRepository interface {
	// Add inserts the pair. When it already exists the stored entry is
	// returned and created is false.
	Add(ctx context.Context, userID int64, tagID string) (entry *domain.WishlistEntry, created bool, err error)

	// Remove deletes the pair and reports whether a row was removed.
	Remove(ctx context.Context, userID int64, tagID string) (bool, error)

	// Clear deletes every entry of the user and returns how many were removed.
	Clear(ctx context.Context, userID int64) (int64, error)

	// List returns the user's entries, most recent first.
	List(ctx context.Context, userID int64) ([]domain.WishlistEntry, error)

	// Contains reports whether the pair exists.
	Contains(ctx context.Context, userID int64, tagID string) (bool, error)
}
