package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/internal/repository"
)

// Lookup finds catalog entries whose name or series contains a query,
// ignoring case. Results keep natural catalog order and an empty query
// matches nothing.
type Lookup interface {
	FindByText(ctx context.Context, query string) ([]domain.CatalogEntry, error)
}

// ScanLookup implements Lookup with a full scan of the catalog. It is meant
// for small catalogs; the Elasticsearch lookup keeps the same semantics with
// an index.
type ScanLookup struct {
	repo repository.CatalogRepository
}

var _ Lookup = (*ScanLookup)(nil)

// NewScanLookup creates a lookup scanning repo.
func NewScanLookup(repo repository.CatalogRepository) *ScanLookup {
	return &ScanLookup{repo: repo}
}

// FindByText returns every entry matching query in catalog order.
func (l *ScanLookup) FindByText(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.CatalogEntry{}, nil
	}

	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}

	matches := []domain.CatalogEntry{}
	for i := range entries {
		if entries[i].MatchesText(query) {
			matches = append(matches, entries[i])
		}
	}
	return matches, nil
}
