package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
)

var wishlistColumns = []string{"user_id", "tag_id", "created_at"}

// ─────────────────────────────────────────────────────────────────────────────
// Add
// ─────────────────────────────────────────────────────────────────────────────

func TestWishlistRepository_Add_Inserted(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("INSERT INTO wishlist_items .+ ON CONFLICT \\(user_id, tag_id\\) DO NOTHING").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnRows(pgxmock.NewRows(wishlistColumns).AddRow(int64(42), tagBlueSweater, now))

	entry, created, err := repo.Add(context.Background(), 42, tagBlueSweater)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(42), entry.UserID)
	assert.Equal(t, tagBlueSweater, entry.CatalogEntryID)
	assert.Equal(t, now, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Add_ExistingReturnsStoredRow(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	earlier := now.Add(-time.Hour)
	mock.ExpectQuery("INSERT INTO wishlist_items").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT user_id, tag_id::text, created_at FROM wishlist_items WHERE user_id = \\$1 AND tag_id = \\$2").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnRows(pgxmock.NewRows(wishlistColumns).AddRow(int64(42), tagBlueSweater, earlier))

	entry, created, err := repo.Add(context.Background(), 42, tagBlueSweater)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, earlier, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Add_RemovedConcurrently(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("INSERT INTO wishlist_items").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT user_id").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnError(pgx.ErrNoRows)

	_, _, err := repo.Add(context.Background(), 42, tagBlueSweater)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Add_InvalidTagID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	_, _, err := repo.Add(context.Background(), 42, "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Add_DBError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("INSERT INTO wishlist_items").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnError(errors.New("connection refused"))

	_, _, err := repo.Add(context.Background(), 42, tagBlueSweater)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert wishlist item")
}

// ─────────────────────────────────────────────────────────────────────────────
// Remove / Clear
// ─────────────────────────────────────────────────────────────────────────────

func TestWishlistRepository_Remove(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"member", 1, true},
		{"non-member", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			defer mock.Close()
			repo := NewWishlistRepository(mock)

			mock.ExpectExec("DELETE FROM wishlist_items WHERE user_id = \\$1 AND tag_id = \\$2").
				WithArgs(int64(42), tagBlueSweater).
				WillReturnResult(pgxmock.NewResult("DELETE", tc.affected))

			removed, err := repo.Remove(context.Background(), 42, tagBlueSweater)
			require.NoError(t, err)
			assert.Equal(t, tc.want, removed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWishlistRepository_Remove_MalformedIDIsNoop(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	removed, err := repo.Remove(context.Background(), 42, "nope")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_Clear(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectExec("DELETE FROM wishlist_items WHERE user_id = \\$1").
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.Clear(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────────────────────────────────────
// List / Contains
// ─────────────────────────────────────────────────────────────────────────────

func TestWishlistRepository_List_MostRecentFirst(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("SELECT user_id, tag_id::text, created_at FROM wishlist_items WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(wishlistColumns).
			AddRow(int64(42), tagBlueShirt, now).
			AddRow(int64(42), tagBlueSweater, now.Add(-time.Minute)))

	entries, err := repo.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, tagBlueShirt, entries[0].CatalogEntryID)
	assert.Equal(t, tagBlueSweater, entries[1].CatalogEntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("SELECT user_id").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(wishlistColumns))

	entries, err := repo.List(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestWishlistRepository_Contains(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42), tagBlueSweater).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Contains(context.Background(), 42, tagBlueSweater)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
