package domain

import "strings"

// Intent is the classified goal of a natural-language wishlist command.
type Intent string

const (
	IntentAdd     Intent = "add"
	IntentRemove  Intent = "remove"
	IntentView    Intent = "view"
	IntentClear   Intent = "clear"
	IntentUnknown Intent = "unknown"
	IntentError   Intent = "error"
)

// NormalizeIntent folds a raw model intent onto the closed intent set.
// "list" and "show" are synonyms of view, "empty" of clear. Anything else
// not in the set becomes IntentUnknown.
func NormalizeIntent(raw string) Intent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "add":
		return IntentAdd
	case "remove":
		return IntentRemove
	case "view", "list", "show":
		return IntentView
	case "clear", "empty":
		return IntentClear
	case "error":
		return IntentError
	default:
		return IntentUnknown
	}
}

// ParsedCommand is the structured reading of one command. Intent holds the
// model's intent as returned; callers normalise it with NormalizeIntent.
type ParsedCommand struct {
	Intent       string
	ItemQuery    string
	ErrorMessage string
	// Raw is the model output the command was parsed from.
	Raw string
}

// AIAnalysis is the diagnostic surfaced to the user: the raw model output,
// or the error message when the parse failed.
func (p ParsedCommand) AIAnalysis() string {
	if p.ErrorMessage != "" {
		return p.ErrorMessage
	}
	return p.Raw
}

// Carbon footprint buckets, in kg CO2-equivalent.
const (
	CarbonLow    = "low"
	CarbonMedium = "medium"
	CarbonHigh   = "high"
)

// FilterCriteria selects catalog entries by colour and carbon bucket. Empty
// fields do not filter.
type FilterCriteria struct {
	Colour       string
	CarbonBucket string
}

// IsEmpty reports whether the criteria filter nothing.
func (c FilterCriteria) IsEmpty() bool {
	return c.Colour == "" && c.CarbonBucket == ""
}

// CommandResult is the response to a wishlist command. WishlistItems is nil
// when no snapshot was attached.
type CommandResult struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	AIAnalysis    string         `json:"aiAnalysis"`
	WishlistItems []CatalogEntry `json:"wishlistItems"`
}
