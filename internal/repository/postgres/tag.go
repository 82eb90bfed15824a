package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/pkg/database"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
)

// Prices are selected as text so they round-trip into decimal.Decimal
// without float conversion.
const tagColumns = `id, company_id, name, series, unit_price::text, sale_price::text, description,
		colourways, carbon_footprint, water_usage, recycled_content_percent,
		waste_reduction_practices, views, saves, created_at`

// TagRepository implements repository.CatalogRepository over the tags table.
// It never writes.
type TagRepository struct {
	db database.DBTX
}

// NewTagRepository creates a new PostgreSQL-backed catalog repository.
func NewTagRepository(db database.DBTX) *TagRepository {
	return &TagRepository{db: db}
}

// Get retrieves a tag by its ID. Ids that are not UUIDs cannot exist and
// report NotFound without a query.
func (r *TagRepository) Get(ctx context.Context, id string) (_ *domain.CatalogEntry, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return nil, apperrors.NotFound("tag", id)
	}

	query := `SELECT ` + tagColumns + `
		FROM tags
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetTag", query)
	defer func() { end(err) }()

	entry, err := scanTag(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tag", id)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return entry, nil
}

// List returns all tags in insertion order.
func (r *TagRepository) List(ctx context.Context) (_ []domain.CatalogEntry, err error) {
	query := `SELECT ` + tagColumns + `
		FROM tags
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListTags", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return collectTags(rows)
}

// GetMany returns the tags for ids in the order of ids. Unknown and
// malformed ids are left out.
func (r *TagRepository) GetMany(ctx context.Context, ids []string) (_ []domain.CatalogEntry, err error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, perr := uuid.Parse(id); perr == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []domain.CatalogEntry{}, nil
	}

	query := `SELECT ` + tagColumns + `
		FROM tags
		WHERE id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetManyTags", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, valid)
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	found, err := collectTags(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.CatalogEntry, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]domain.CatalogEntry, 0, len(found))
	for _, id := range valid {
		if e, ok := byID[id]; ok {
			out = append(out, e)
			delete(byID, id)
		}
	}
	return out, nil
}

func collectTags(rows pgx.Rows) ([]domain.CatalogEntry, error) {
	defer rows.Close()

	entries := []domain.CatalogEntry{}
	for rows.Next() {
		e, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return entries, nil
}

func scanTag(row pgx.Row) (*domain.CatalogEntry, error) {
	var (
		e                    domain.CatalogEntry
		unitPrice, salePrice string
		colourways           []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.Name,
		&e.Series,
		&unitPrice,
		&salePrice,
		&e.Description,
		&colourways,
		&e.CarbonFootprint,
		&e.WaterUsage,
		&e.RecycledContentPercent,
		&e.WasteReductionPractices,
		&e.Views,
		&e.Saves,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if e.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, fmt.Errorf("parse unit price of tag %s: %w", e.ID, err)
	}
	if e.SalePrice, err = decimal.NewFromString(salePrice); err != nil {
		return nil, fmt.Errorf("parse sale price of tag %s: %w", e.ID, err)
	}

	e.Colourways = []domain.Colourway{}
	if len(colourways) > 0 {
		if err := json.Unmarshal(colourways, &e.Colourways); err != nil {
			return nil, fmt.Errorf("unmarshal colourways of tag %s: %w", e.ID, err)
		}
	}
	return &e, nil
}
