package catalog

import (
	"regexp"
	"strings"

	"github.com/Lava-10/knowMoreQR/internal/domain"
)

// Carbon bucket thresholds in kg CO2-equivalent.
const (
	mediumCarbonFrom = 30.0
	highCarbonFrom   = 60.0
)

// BucketFor returns the carbon bucket of a footprint value.
func BucketFor(carbonFootprint float64) string {
	switch {
	case carbonFootprint < mediumCarbonFrom:
		return domain.CarbonLow
	case carbonFootprint < highCarbonFrom:
		return domain.CarbonMedium
	default:
		return domain.CarbonHigh
	}
}

// Matches reports whether entry satisfies both the colour and the carbon
// criteria. An unrecognised bucket never matches.
func Matches(entry *domain.CatalogEntry, criteria domain.FilterCriteria) bool {
	return matchesColour(entry, criteria.Colour) && matchesCarbon(entry, criteria.CarbonBucket)
}

func matchesColour(entry *domain.CatalogEntry, colour string) bool {
	if colour == "" {
		return true
	}
	return entry.HasColour(colour)
}

func matchesCarbon(entry *domain.CatalogEntry, bucket string) bool {
	if bucket == "" {
		return true
	}
	v := entry.CarbonFootprint
	switch strings.ToLower(bucket) {
	case domain.CarbonLow:
		return v < mediumCarbonFrom
	case domain.CarbonMedium:
		return v >= mediumCarbonFrom && v < highCarbonFrom
	case domain.CarbonHigh:
		return v >= highCarbonFrom
	default:
		return false
	}
}

var (
	bucketBeforeCarbon = regexp.MustCompile(`\b(low|medium|high)\b[\s-]*(?:carbon|co2|footprint|emissions?)\b`)
	bucketAfterCarbon  = regexp.MustCompile(`\b(?:carbon|co2|footprint|emissions?)\b[\s-]*(?:footprint[\s-]*)?(?:is[\s-]+)?(low|medium|high)\b`)
	nonWord            = regexp.MustCompile(`[^a-z0-9]+`)
)

// ExtractCriteria reads filter criteria out of a free-text query. The carbon
// bucket is taken from phrases such as "high carbon" or "co2 low". The
// colour is the longest palette colour named in the query as whole words.
func ExtractCriteria(query string, palette []string) domain.FilterCriteria {
	q := strings.ToLower(query)

	var criteria domain.FilterCriteria
	if m := bucketBeforeCarbon.FindStringSubmatch(q); m != nil {
		criteria.CarbonBucket = m[1]
	} else if m := bucketAfterCarbon.FindStringSubmatch(q); m != nil {
		criteria.CarbonBucket = m[1]
	}

	words := " " + strings.TrimSpace(nonWord.ReplaceAllString(q, " ")) + " "
	best := 0
	for _, colour := range palette {
		c := strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(colour), " "))
		if c == "" || !strings.Contains(words, " "+c+" ") {
			continue
		}
		if len(c) > best {
			best = len(c)
			criteria.Colour = strings.TrimSpace(colour)
		}
	}
	return criteria
}

// DescriptiveCriteria is ExtractCriteria for bulk removal. ok is false
// unless the criteria are non-empty and the query says nothing beyond them:
// "blue high carbon items" qualifies, "blue hoodie" does not because
// "hoodie" names an item rather than describing one.
func DescriptiveCriteria(query string, palette []string) (criteria domain.FilterCriteria, ok bool) {
	criteria = ExtractCriteria(query, palette)
	if criteria.IsEmpty() {
		return criteria, false
	}

	consumed := make(map[string]bool)
	if criteria.Colour != "" {
		for _, w := range strings.Fields(nonWord.ReplaceAllString(strings.ToLower(criteria.Colour), " ")) {
			consumed[w] = true
		}
	}
	if criteria.CarbonBucket != "" {
		consumed[criteria.CarbonBucket] = true
		for _, w := range carbonWords {
			consumed[w] = true
		}
	}

	for _, w := range strings.Fields(nonWord.ReplaceAllString(strings.ToLower(query), " ")) {
		if !consumed[w] && !fillerWords[w] {
			return criteria, false
		}
	}
	return criteria, true
}

var carbonWords = []string{"carbon", "co2", "footprint", "emission", "emissions", "is"}

// fillerWords may surround a descriptive filter without naming anything.
var fillerWords = map[string]bool{
	"a": true, "all": true, "and": true, "any": true, "anything": true, "are": true,
	"every": true, "everything": true, "from": true, "in": true,
	"item": true, "items": true, "my": true, "of": true, "ones": true,
	"stuff": true, "that": true, "the": true, "thing": true, "things": true,
	"where": true, "which": true, "wishlist": true, "with": true,
}

// Palette returns the distinct colourway names of entries, lower-cased, in
// first-seen order.
func Palette(entries []domain.CatalogEntry) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range entries {
		for _, cw := range entries[i].Colourways {
			name := strings.ToLower(strings.TrimSpace(cw.Name))
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
