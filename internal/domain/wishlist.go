package domain

import "time"

// WishlistEntry records that a user saved a catalog entry. The pair
// (UserID, CatalogEntryID) is unique.
type WishlistEntry struct {
	UserID         int64     `json:"userId"`
	CatalogEntryID string    `json:"tagId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Event types published after wishlist mutations.
const (
	EventWishlistItemAdded   = "wishlist.item_added"
	EventWishlistItemRemoved = "wishlist.item_removed"
	EventWishlistCleared     = "wishlist.cleared"
)

// WishlistEventData is the payload of wishlist events.
type WishlistEventData struct {
	UserID int64  `json:"user_id"`
	TagID  string `json:"tag_id,omitempty"`
}
