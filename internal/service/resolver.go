package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lava-10/knowMoreQR/internal/catalog"
	"github.com/Lava-10/knowMoreQR/internal/domain"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
	"github.com/Lava-10/knowMoreQR/pkg/logger"
)

const tracerName = "github.com/Lava-10/knowMoreQR/internal/service"

// User-facing messages.
const (
	MsgSpecifyAdd    = "Please specify which item to add."
	MsgSpecifyRemove = "Please specify which item to remove."
	MsgView          = "Here is your current wishlist."
	MsgCleared       = "Your wishlist has been cleared."
	MsgUnrecognized  = "Sorry, I could not understand that command."
	MsgFailed        = "Something went wrong while updating your wishlist. Please try again."
	MsgCancelled     = "The request was cancelled before your wishlist was changed."
)

// Command outcomes, used as the outcome metric label.
const (
	outcomeSuccess      = "success"
	outcomeRejected     = "rejected"
	outcomeNoMatch      = "no_match"
	outcomeNotFound     = "not_found"
	outcomeUnrecognized = "unrecognized"
	outcomeCancelled    = "cancelled"
	outcomeFailed       = "failed"
)

var commandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wishlist_commands_total",
		Help: "Total number of natural-language wishlist commands by intent and outcome",
	},
	[]string{"intent", "outcome"},
)

// IntentParser classifies a free-text command. It reports failures through
// the returned command, never as an error.
type IntentParser interface {
	Parse(ctx context.Context, text string) domain.ParsedCommand
}

// CommandResolver turns a free-text command into wishlist changes. Each
// call is independent: ambiguous matches are resolved by applying the first
// match and saying so in the message.
type CommandResolver struct {
	parser   IntentParser
	lookup   catalog.Lookup
	wishlist *WishlistService
	logger   *slog.Logger
}

// NewCommandResolver creates a resolver.
func NewCommandResolver(parser IntentParser, lookup catalog.Lookup, wishlist *WishlistService, logger *slog.Logger) *CommandResolver {
	return &CommandResolver{
		parser:   parser,
		lookup:   lookup,
		wishlist: wishlist,
		logger:   logger,
	}
}

// Resolve interprets text for userID and applies it. Only a missing user or
// a blank command produce an error; every other failure is reported in the
// result with Success false.
func (r *CommandResolver) Resolve(ctx context.Context, userID int64, text string) (*domain.CommandResult, error) {
	if userID <= 0 {
		return nil, apperrors.Unauthorized("an authenticated user is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("command is required")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "resolver.Resolve")
	defer span.End()

	parsed := r.parser.Parse(ctx, text)
	intent := domain.NormalizeIntent(parsed.Intent)
	query := strings.TrimSpace(parsed.ItemQuery)
	span.SetAttributes(
		attribute.String("command.intent", string(intent)),
		attribute.Bool("command.has_query", query != ""),
	)

	res := &domain.CommandResult{AIAnalysis: parsed.AIAnalysis()}

	var outcome string
	switch {
	case ctx.Err() != nil:
		outcome = r.cancelled(res)
	case intent == domain.IntentAdd:
		outcome = r.add(ctx, userID, query, res)
	case intent == domain.IntentRemove:
		outcome = r.remove(ctx, userID, query, res)
	case intent == domain.IntentView:
		res.Message = MsgView
		outcome = r.attachSnapshot(ctx, userID, res)
	case intent == domain.IntentClear:
		outcome = r.clear(ctx, userID, res)
	default:
		outcome = r.unrecognized(ctx, parsed, res)
	}

	r.finish(ctx, span, userID, intent, outcome, res)
	return res, nil
}

func (r *CommandResolver) add(ctx context.Context, userID int64, query string, res *domain.CommandResult) string {
	if query == "" {
		res.Message = MsgSpecifyAdd
		return outcomeRejected
	}

	matches, err := r.lookup.FindByText(ctx, query)
	if err != nil {
		return r.failed(ctx, res, "find catalog items", err)
	}
	if len(matches) == 0 {
		res.Message = fmt.Sprintf("Could not find any item matching '%s'.", query)
		return outcomeNoMatch
	}

	target := matches[0]
	if ctx.Err() != nil {
		return r.cancelled(res)
	}
	if _, err := r.wishlist.Add(ctx, userID, target.ID); err != nil {
		if apperrors.IsNotFound(err) {
			res.Message = fmt.Sprintf("'%s' is no longer available in the catalog.", target.Name)
			return outcomeNotFound
		}
		return r.failed(ctx, res, "add wishlist item", err)
	}

	if len(matches) > 1 {
		res.Message = fmt.Sprintf("Found multiple items matching '%s'. Adding the first one: '%s'.", query, target.Name)
	} else {
		res.Message = fmt.Sprintf("Added '%s' to your wishlist.", target.Name)
	}
	return r.attachSnapshot(ctx, userID, res)
}

func (r *CommandResolver) remove(ctx context.Context, userID int64, query string, res *domain.CommandResult) string {
	if query == "" {
		res.Message = MsgSpecifyRemove
		return outcomeRejected
	}

	current, err := r.wishlist.ListResolvedEntries(ctx, userID)
	if err != nil {
		return r.failed(ctx, res, "list wishlist", err)
	}

	var matches []domain.CatalogEntry
	for i := range current {
		if current[i].MatchesName(query) {
			matches = append(matches, current[i])
		}
	}

	if len(matches) == 0 {
		return r.removeByFilter(ctx, userID, query, current, res)
	}

	target := matches[0]
	if ctx.Err() != nil {
		return r.cancelled(res)
	}
	removed, err := r.wishlist.Remove(ctx, userID, target.ID)
	if err != nil {
		return r.failed(ctx, res, "remove wishlist item", err)
	}
	if !removed {
		// Removed concurrently since the wishlist was read.
		res.Message = fmt.Sprintf("'%s' was not found in your wishlist.", query)
		return outcomeNoMatch
	}

	if len(matches) > 1 {
		res.Message = fmt.Sprintf("Found multiple items matching '%s' in your wishlist. Removing the first one: '%s'.", query, target.Name)
	} else {
		res.Message = fmt.Sprintf("Removed '%s' from your wishlist.", target.Name)
	}
	return r.attachSnapshot(ctx, userID, res)
}

// removeByFilter handles descriptive removals such as "remove blue high
// carbon items": every wishlist entry matching the criteria is removed. A
// query that also names something, like "blue hoodie", removes nothing.
func (r *CommandResolver) removeByFilter(ctx context.Context, userID int64, query string, current []domain.CatalogEntry, res *domain.CommandResult) string {
	notFound := func() string {
		res.Message = fmt.Sprintf("'%s' was not found in your wishlist.", query)
		return outcomeNoMatch
	}

	criteria, ok := catalog.DescriptiveCriteria(query, catalog.Palette(current))
	if !ok {
		return notFound()
	}

	var targets []string
	for i := range current {
		if catalog.Matches(&current[i], criteria) {
			targets = append(targets, current[i].ID)
		}
	}
	if len(targets) == 0 {
		return notFound()
	}

	if ctx.Err() != nil {
		return r.cancelled(res)
	}
	removed := 0
	for _, id := range targets {
		ok, err := r.wishlist.Remove(ctx, userID, id)
		if err != nil {
			return r.failed(ctx, res, "remove wishlist items by filter", err)
		}
		if ok {
			removed++
		}
	}

	r.log(ctx).InfoContext(ctx, "removed wishlist items by filter",
		slog.String("colour", criteria.Colour),
		slog.String("carbon_bucket", criteria.CarbonBucket),
		slog.Int("removed", removed),
	)

	res.Message = fmt.Sprintf("Removed %d item(s) matching your filter from your wishlist.", removed)
	return r.attachSnapshot(ctx, userID, res)
}

func (r *CommandResolver) clear(ctx context.Context, userID int64, res *domain.CommandResult) string {
	if ctx.Err() != nil {
		return r.cancelled(res)
	}
	if err := r.wishlist.Clear(ctx, userID); err != nil {
		return r.failed(ctx, res, "clear wishlist", err)
	}
	res.Success = true
	res.Message = MsgCleared
	return outcomeSuccess
}

func (r *CommandResolver) unrecognized(ctx context.Context, parsed domain.ParsedCommand, res *domain.CommandResult) string {
	res.Message = MsgUnrecognized
	if analysis := res.AIAnalysis; analysis != "" {
		res.Message += " AI analysis: " + analysis
	}

	l := r.log(ctx)
	if domain.NormalizeIntent(parsed.Intent) == domain.IntentError {
		l.WarnContext(ctx, "command could not be parsed", slog.String("error", parsed.ErrorMessage))
	} else {
		l.InfoContext(ctx, "command not recognised",
			slog.String("intent", parsed.Intent),
			slog.String("item_query", parsed.ItemQuery),
		)
	}
	return outcomeUnrecognized
}

// attachSnapshot marks res successful and attaches the current wishlist.
func (r *CommandResolver) attachSnapshot(ctx context.Context, userID int64, res *domain.CommandResult) string {
	items, err := r.wishlist.ListResolvedEntries(ctx, userID)
	if err != nil {
		return r.failed(ctx, res, "list wishlist", err)
	}
	res.Success = true
	res.WishlistItems = items
	return outcomeSuccess
}

func (r *CommandResolver) failed(ctx context.Context, res *domain.CommandResult, op string, err error) string {
	r.log(ctx).ErrorContext(ctx, "wishlist command failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	trace.SpanFromContext(ctx).RecordError(err)
	res.Success = false
	res.Message = MsgFailed
	res.WishlistItems = nil
	return outcomeFailed
}

func (r *CommandResolver) cancelled(res *domain.CommandResult) string {
	res.Success = false
	res.Message = MsgCancelled
	return outcomeCancelled
}

func (r *CommandResolver) finish(ctx context.Context, span trace.Span, userID int64, intent domain.Intent, outcome string, res *domain.CommandResult) {
	commandsTotal.WithLabelValues(string(intent), outcome).Inc()
	span.SetAttributes(attribute.String("command.outcome", outcome))
	if outcome == outcomeFailed {
		span.SetStatus(codes.Error, "wishlist command failed")
	}

	r.log(ctx).InfoContext(ctx, "wishlist command resolved",
		slog.Int64("user_id", userID),
		slog.String("intent", string(intent)),
		slog.String("outcome", outcome),
		slog.Bool("success", res.Success),
	)
}

func (r *CommandResolver) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, r.logger)
}
