// Command seed loads a small demo catalog into the tags table and can print
// an access token for local testing of the wishlist endpoints.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Lava-10/knowMoreQR/internal/auth"
	"github.com/Lava-10/knowMoreQR/internal/config"
	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/migrations"
	"github.com/Lava-10/knowMoreQR/pkg/database"
	"github.com/Lava-10/knowMoreQR/pkg/logger"
)

// tagNamespace makes demo ids stable across runs so re-seeding updates rows
// instead of duplicating them.
var tagNamespace = uuid.MustParse("6f1c9a52-3d0e-4f0b-9b8e-2a6f4c1d7e90")

type seedTag struct {
	companyID  int64
	name       string
	series     string
	unitPrice  string
	salePrice  string
	carbon     float64
	water      float64
	recycled   float64
	colourways []domain.Colourway
}

var demoCatalog = []seedTag{
	{1, "Blue Sweatshirt", "Essentials", "49.99", "39.99", 12.5, 900, 40,
		[]domain.Colourway{{Name: "blue", Hex: "#1f4e9c"}, {Name: "navy", Hex: "#1b2a49"}}},
	{1, "Red Hoodie", "Essentials", "59.99", "59.99", 34.0, 1500, 15,
		[]domain.Colourway{{Name: "red", Hex: "#b22222"}, {Name: "black", Hex: "#111111"}}},
	{1, "Blue Denim Jacket", "Heritage", "89.00", "79.00", 72.0, 7500, 5,
		[]domain.Colourway{{Name: "blue", Hex: "#3b5b92"}}},
	{2, "Green Linen Shirt", "Summer", "45.00", "45.00", 8.2, 600, 60,
		[]domain.Colourway{{Name: "green", Hex: "#4f7942"}, {Name: "white", Hex: "#fafafa"}}},
	{2, "Black Wool Coat", "Winter", "199.00", "169.00", 95.4, 11000, 10,
		[]domain.Colourway{{Name: "black", Hex: "#0b0b0b"}, {Name: "grey", Hex: "#7a7a7a"}}},
	{2, "Organic Cotton Tee", "Essentials", "19.99", "14.99", 4.1, 2700, 80,
		[]domain.Colourway{{Name: "white", Hex: "#ffffff"}, {Name: "green", Hex: "#2e8b57"}}},
	{3, "Recycled Running Shoes", "Active", "120.00", "99.00", 48.7, 4000, 65,
		[]domain.Colourway{{Name: "red", Hex: "#d7263d"}, {Name: "white", Hex: "#f5f5f5"}}},
}

const upsertTag = `INSERT INTO tags (id, company_id, name, series, unit_price, sale_price, description,
		colourways, carbon_footprint, water_usage, recycled_content_percent, waste_reduction_practices)
	VALUES ($1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7, $8::text::jsonb, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		company_id = EXCLUDED.company_id,
		name = EXCLUDED.name,
		series = EXCLUDED.series,
		unit_price = EXCLUDED.unit_price,
		sale_price = EXCLUDED.sale_price,
		description = EXCLUDED.description,
		colourways = EXCLUDED.colourways,
		carbon_footprint = EXCLUDED.carbon_footprint,
		water_usage = EXCLUDED.water_usage,
		recycled_content_percent = EXCLUDED.recycled_content_percent,
		waste_reduction_practices = EXCLUDED.waste_reduction_practices`

func main() {
	tokenFor := flag.Int64("token-for", 0, "print an access token for this user id after seeding")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed token")
	skipCatalog := flag.Bool("skip-catalog", false, "only print the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("wishlist-seed", cfg.LogLevel)

	if !*skipCatalog {
		if err := seedCatalog(cfg, log); err != nil {
			log.Error("seed failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *tokenFor > 0 {
		token, err := auth.NewTokenValidator(cfg.JWTSecret, cfg.JWTIssuer).Issue(*tokenFor, *tokenTTL)
		if err != nil {
			log.Error("issue token failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
	}
}

func seedCatalog(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, t := range demoCatalog {
		id, err := insertTag(ctx, pool, t)
		if err != nil {
			return err
		}
		log.Info("seeded tag",
			slog.String("id", id),
			slog.String("name", t.name),
			slog.Float64("carbon_footprint", t.carbon),
		)
	}
	log.Info("demo catalog seeded", slog.Int("count", len(demoCatalog)))
	return nil
}

func insertTag(ctx context.Context, pool *pgxpool.Pool, t seedTag) (string, error) {
	// Reject typos in the table above before they reach the database.
	for _, p := range []string{t.unitPrice, t.salePrice} {
		if _, err := decimal.NewFromString(p); err != nil {
			return "", fmt.Errorf("price %q of %s: %w", p, t.name, err)
		}
	}
	colourways, err := json.Marshal(t.colourways)
	if err != nil {
		return "", fmt.Errorf("marshal colourways of %s: %w", t.name, err)
	}

	id := uuid.NewSHA1(tagNamespace, []byte(t.name)).String()
	_, err = pool.Exec(ctx, upsertTag,
		id, t.companyID, t.name, t.series, t.unitPrice, t.salePrice,
		fmt.Sprintf("%s from the %s series.", t.name, t.series),
		string(colourways), t.carbon, t.water, t.recycled, "",
	)
	if err != nil {
		return "", fmt.Errorf("upsert tag %s: %w", t.name, err)
	}
	return id, nil
}
