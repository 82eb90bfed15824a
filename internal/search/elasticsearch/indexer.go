package elasticsearch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lava-10/knowMoreQR/internal/repository"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
)

const reindexBatchSize = 500

// Reindex copies the whole catalog from repo into the index and returns the
// number of entries written.
func (l *Lookup) Reindex(ctx context.Context, repo repository.CatalogRepository) (int, error) {
	entries, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex: load catalog: %w", err)
	}

	for start := 0; start < len(entries); start += reindexBatchSize {
		end := min(start+reindexBatchSize, len(entries))
		if err := l.BulkIndex(ctx, entries[start:end]); err != nil {
			return start, fmt.Errorf("reindex: batch at %d: %w", start, err)
		}
	}

	l.logger.InfoContext(ctx, "catalog reindexed",
		slog.String("index", l.indexName),
		slog.Int("count", len(entries)),
	)
	return len(entries), nil
}

// Refresh re-reads one entry from repo and indexes it, or deletes it from
// the index when it no longer exists.
func (l *Lookup) Refresh(ctx context.Context, repo repository.CatalogRepository, id string) error {
	entry, err := repo.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return l.Delete(ctx, id)
		}
		return fmt.Errorf("refresh tag %s: %w", id, err)
	}
	return l.Index(ctx, entry)
}
