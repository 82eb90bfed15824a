package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/pkg/database"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using
// PostgreSQL. Uniqueness of (user_id, tag_id) is enforced by the table
// constraint, not by locking.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add inserts the pair or, when a concurrent or earlier add won, returns the
// stored row with created=false.
func (r *WishlistRepository) Add(ctx context.Context, userID int64, tagID string) (_ *domain.WishlistEntry, created bool, err error) {
	if _, perr := uuid.Parse(tagID); perr != nil {
		return nil, false, apperrors.InvalidInput("tag id must be a valid UUID")
	}

	query := `
		INSERT INTO wishlist_items (user_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, tag_id) DO NOTHING
		RETURNING user_id, tag_id::text, created_at`

	ctx, end := database.TraceQuery(ctx, "AddWishlistItem", query)
	defer func() { end(err) }()

	var e domain.WishlistEntry
	err = r.db.QueryRow(ctx, query, userID, tagID).Scan(&e.UserID, &e.CatalogEntryID, &e.CreatedAt)
	if err == nil {
		return &e, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert wishlist item: %w", err)
	}

	existing := `
		SELECT user_id, tag_id::text, created_at
		FROM wishlist_items
		WHERE user_id = $1 AND tag_id = $2`

	err = r.db.QueryRow(ctx, existing, userID, tagID).Scan(&e.UserID, &e.CatalogEntryID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Removed between the insert and the read.
			return nil, false, apperrors.Conflict("wishlist item changed concurrently, retry the request")
		}
		return nil, false, fmt.Errorf("get existing wishlist item: %w", err)
	}
	return &e, false, nil
}

// Remove deletes the pair. Removing a non-member reports false.
func (r *WishlistRepository) Remove(ctx context.Context, userID int64, tagID string) (_ bool, err error) {
	if _, perr := uuid.Parse(tagID); perr != nil {
		return false, nil
	}

	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND tag_id = $2`

	ctx, end := database.TraceQuery(ctx, "RemoveWishlistItem", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, userID, tagID)
	if err != nil {
		return false, fmt.Errorf("delete wishlist item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Clear deletes all entries of the user.
func (r *WishlistRepository) Clear(ctx context.Context, userID int64) (_ int64, err error) {
	query := `DELETE FROM wishlist_items WHERE user_id = $1`

	ctx, end := database.TraceQuery(ctx, "ClearWishlist", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("clear wishlist: %w", err)
	}
	return ct.RowsAffected(), nil
}

// List returns the user's entries, most recent first.
func (r *WishlistRepository) List(ctx context.Context, userID int64) (_ []domain.WishlistEntry, err error) {
	query := `
		SELECT user_id, tag_id::text, created_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	ctx, end := database.TraceQuery(ctx, "ListWishlist", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	entries := []domain.WishlistEntry{}
	for rows.Next() {
		var e domain.WishlistEntry
		if err := rows.Scan(&e.UserID, &e.CatalogEntryID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist: %w", err)
	}
	return entries, nil
}

// Contains reports whether the user saved the tag.
func (r *WishlistRepository) Contains(ctx context.Context, userID int64, tagID string) (_ bool, err error) {
	if _, perr := uuid.Parse(tagID); perr != nil {
		return false, nil
	}

	query := `SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE user_id = $1 AND tag_id = $2)`

	ctx, end := database.TraceQuery(ctx, "ContainsWishlistItem", query)
	defer func() { end(err) }()

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, tagID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	return exists, nil
}
