package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Colourway is one colour variant of a catalog entry.
type Colourway struct {
	Name  string `json:"name"`
	Hex   string `json:"hex"`
	Image string `json:"image"`
}

// CatalogEntry is a product record ("tag") registered by a company. This
// service only reads catalog entries.
type CatalogEntry struct {
	ID                      string          `json:"id"`
	CompanyID               int64           `json:"companyId"`
	Name                    string          `json:"name"`
	Series                  string          `json:"series"`
	UnitPrice               decimal.Decimal `json:"unitPrice"`
	SalePrice               decimal.Decimal `json:"salePrice"`
	Description             string          `json:"description"`
	Colourways              []Colourway     `json:"colourways"`
	CarbonFootprint         float64         `json:"carbonFootprint"`
	WaterUsage              float64         `json:"waterUsage"`
	RecycledContentPercent  float64         `json:"recycledContentPercent"`
	WasteReductionPractices string          `json:"wasteReductionPractices"`
	Views                   int64           `json:"views"`
	Saves                   int64           `json:"saves"`
	CreatedAt               time.Time       `json:"createdAt"`
}

// MatchesText reports whether the lower-cased query is a substring of the
// entry's name or series, ignoring case.
func (e *CatalogEntry) MatchesText(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strings.ToLower(e.Series), q)
}

// MatchesName is MatchesText restricted to the display name.
func (e *CatalogEntry) MatchesName(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(e.Name), q)
}

// HasColour reports whether any colourway is named colour, ignoring case.
func (e *CatalogEntry) HasColour(colour string) bool {
	for _, c := range e.Colourways {
		if strings.EqualFold(c.Name, colour) {
			return true
		}
	}
	return false
}

// CatalogEvent is the payload of catalog change events published by the
// catalog management service.
type CatalogEvent struct {
	TagID string `json:"tag_id"`
}
