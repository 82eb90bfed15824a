package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/internal/repository"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
	"github.com/Lava-10/knowMoreQR/pkg/logger"
)

// EventPublisher announces wishlist mutations.
type EventPublisher interface {
	PublishItemAdded(ctx context.Context, userID int64, tagID string) error
	PublishItemRemoved(ctx context.Context, userID int64, tagID string) error
	PublishCleared(ctx context.Context, userID int64) error
}

// WishlistService implements the business logic for wishlist membership.
// The wishlist and the catalog live in separate stores: the catalog check on
// add is advisory and entries whose catalog data disappeared are skipped
// when resolving.
type WishlistService struct {
	wishlist  repository.WishlistRepository
	catalog   repository.CatalogRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewWishlistService creates a new wishlist service. publisher may be nil.
func NewWishlistService(
	wishlist repository.WishlistRepository,
	catalog repository.CatalogRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) *WishlistService {
	return &WishlistService{
		wishlist:  wishlist,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

func validateUser(userID int64) error {
	if userID <= 0 {
		return apperrors.InvalidInput("user id is required")
	}
	return nil
}

// Add saves tagID for the user. Adding an entry twice returns the existing
// entry.
func (s *WishlistService) Add(ctx context.Context, userID int64, tagID string) (*domain.WishlistEntry, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	tagID = strings.TrimSpace(tagID)
	if tagID == "" {
		return nil, apperrors.InvalidInput("tag id is required")
	}

	if _, err := s.catalog.Get(ctx, tagID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("tag", tagID)
		}
		return nil, fmt.Errorf("check tag %s: %w", tagID, err)
	}

	entry, created, err := s.wishlist.Add(ctx, userID, tagID)
	if err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}
	if !created {
		return entry, nil
	}

	if s.publisher != nil {
		if err := s.publisher.PublishItemAdded(ctx, userID, tagID); err != nil {
			s.log(ctx).ErrorContext(ctx, "failed to publish wishlist.item_added event",
				slog.String("tag_id", tagID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log(ctx).InfoContext(ctx, "item added to wishlist",
		slog.Int64("user_id", userID),
		slog.String("tag_id", tagID),
	)

	return entry, nil
}

// Remove deletes tagID from the user's wishlist and reports whether it was
// there.
func (s *WishlistService) Remove(ctx context.Context, userID int64, tagID string) (bool, error) {
	if err := validateUser(userID); err != nil {
		return false, err
	}

	removed, err := s.wishlist.Remove(ctx, userID, tagID)
	if err != nil {
		return false, fmt.Errorf("remove wishlist item: %w", err)
	}
	if !removed {
		return false, nil
	}

	if s.publisher != nil {
		if err := s.publisher.PublishItemRemoved(ctx, userID, tagID); err != nil {
			s.log(ctx).ErrorContext(ctx, "failed to publish wishlist.item_removed event",
				slog.String("tag_id", tagID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log(ctx).InfoContext(ctx, "item removed from wishlist",
		slog.Int64("user_id", userID),
		slog.String("tag_id", tagID),
	)

	return true, nil
}

// Clear empties the user's wishlist. Clearing an empty wishlist succeeds.
func (s *WishlistService) Clear(ctx context.Context, userID int64) error {
	if err := validateUser(userID); err != nil {
		return err
	}

	n, err := s.wishlist.Clear(ctx, userID)
	if err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}

	if n > 0 && s.publisher != nil {
		if err := s.publisher.PublishCleared(ctx, userID); err != nil {
			s.log(ctx).ErrorContext(ctx, "failed to publish wishlist.cleared event",
				slog.String("error", err.Error()),
			)
		}
	}

	s.log(ctx).InfoContext(ctx, "wishlist cleared",
		slog.Int64("user_id", userID),
		slog.Int64("removed", n),
	)

	return nil
}

// List returns the user's entries, most recent first.
func (s *WishlistService) List(ctx context.Context, userID int64) ([]domain.WishlistEntry, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	entries, err := s.wishlist.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	return entries, nil
}

// ListResolvedEntries returns the catalog entries on the user's wishlist in
// wishlist order. Entries missing from the catalog are skipped.
func (s *WishlistService) ListResolvedEntries(ctx context.Context, userID int64) ([]domain.CatalogEntry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []domain.CatalogEntry{}, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.CatalogEntryID
	}

	found, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve wishlist entries: %w", err)
	}

	byID := make(map[string]domain.CatalogEntry, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	resolved := make([]domain.CatalogEntry, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			s.log(ctx).DebugContext(ctx, "skipping wishlist entry without catalog data",
				slog.Int64("user_id", userID),
				slog.String("tag_id", id),
			)
			continue
		}
		resolved = append(resolved, e)
	}
	return resolved, nil
}

// Contains reports whether tagID is on the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID int64, tagID string) (bool, error) {
	if err := validateUser(userID); err != nil {
		return false, err
	}

	ok, err := s.wishlist.Contains(ctx, userID, tagID)
	if err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	return ok, nil
}

func (s *WishlistService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
