package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/pkg/httputil"
)

// WishlistService is the wishlist API the REST endpoints use.
type WishlistService interface {
	Add(ctx context.Context, userID int64, tagID string) (*domain.WishlistEntry, error)
	Remove(ctx context.Context, userID int64, tagID string) (bool, error)
	Clear(ctx context.Context, userID int64) error
	List(ctx context.Context, userID int64) ([]domain.WishlistEntry, error)
	ListResolvedEntries(ctx context.Context, userID int64) ([]domain.CatalogEntry, error)
	Contains(ctx context.Context, userID int64, tagID string) (bool, error)
}

// WishlistHandler handles HTTP requests for direct wishlist operations.
type WishlistHandler struct {
	service WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Response DTOs ---

// RemoveResponse reports whether a DELETE removed anything.
type RemoveResponse struct {
	TagID   string `json:"tagId"`
	Removed bool   `json:"removed"`
}

// MembershipResponse reports whether a tag is on the wishlist.
type MembershipResponse struct {
	TagID      string `json:"tagId"`
	InWishlist bool   `json:"inWishlist"`
}

// --- Handlers ---

// ListItems handles GET /api/v1/wishlist
func (h *WishlistHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items, err := h.service.ListResolvedEntries(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}

// ListEntries handles GET /api/v1/wishlist/entries
func (h *WishlistHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

// AddItem handles POST /api/v1/wishlist/{tagId}
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	tagID, ok := httputil.ParseUUID(w, chi.URLParam(r, "tagId"))
	if !ok {
		return
	}

	entry, err := h.service.Add(r.Context(), userID, tagID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entry})
}

// RemoveItem handles DELETE /api/v1/wishlist/{tagId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	tagID, ok := httputil.ParseUUID(w, chi.URLParam(r, "tagId"))
	if !ok {
		return
	}

	removed, err := h.service.Remove(r.Context(), userID, tagID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: RemoveResponse{TagID: tagID.String(), Removed: removed},
	})
}

// Clear handles DELETE /api/v1/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Contains handles GET /api/v1/wishlist/{tagId}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	tagID, ok := httputil.ParseUUID(w, chi.URLParam(r, "tagId"))
	if !ok {
		return
	}

	in, err := h.service.Contains(r.Context(), userID, tagID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MembershipResponse{TagID: tagID.String(), InWishlist: in},
	})
}
