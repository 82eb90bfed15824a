package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	pkgkafka "github.com/Lava-10/knowMoreQR/pkg/kafka"
)

// Kafka topic constants for catalog events consumed by the wishlist service.
// The catalog owner publishes them; this service only reacts.
const (
	TopicTagCreated = pkgkafka.TopicPrefix + ".tag.created"
	TopicTagUpdated = pkgkafka.TopicPrefix + ".tag.updated"
	TopicTagDeleted = pkgkafka.TopicPrefix + ".tag.deleted"
)

// CatalogTopics lists every topic CatalogConsumer handles.
var CatalogTopics = []string{TopicTagCreated, TopicTagUpdated, TopicTagDeleted}

// CacheInvalidator drops cached catalog data for one entry.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// IndexRefresher re-reads one entry from the catalog store and updates the
// search index, deleting the document when the entry is gone.
type IndexRefresher interface {
	Refresh(ctx context.Context, id string) error
}

// IndexRefreshFunc adapts a plain function to IndexRefresher.
type IndexRefreshFunc func(ctx context.Context, id string) error

// Refresh calls f(ctx, id).
func (f IndexRefreshFunc) Refresh(ctx context.Context, id string) error {
	return f(ctx, id)
}

// CatalogConsumer keeps the catalog cache and search index in step with
// catalog changes. Either collaborator may be nil when disabled.
type CatalogConsumer struct {
	cache  CacheInvalidator
	index  IndexRefresher
	logger *slog.Logger
}

// NewCatalogConsumer creates a consumer for catalog change events.
func NewCatalogConsumer(cache CacheInvalidator, index IndexRefresher, logger *slog.Logger) *CatalogConsumer {
	return &CatalogConsumer{
		cache:  cache,
		index:  index,
		logger: logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *CatalogConsumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicTagCreated, TopicTagUpdated, TopicTagDeleted:
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data domain.CatalogEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if data.TagID == "" {
		data.TagID = event.AggregateID
	}
	if data.TagID == "" {
		c.logger.WarnContext(ctx, "catalog event without tag id",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	// The cache goes first so the index refresh reads fresh data.
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, data.TagID); err != nil {
			return fmt.Errorf("invalidate cached tag %s: %w", data.TagID, err)
		}
	}
	if c.index != nil {
		if err := c.index.Refresh(ctx, data.TagID); err != nil {
			return fmt.Errorf("refresh indexed tag %s: %w", data.TagID, err)
		}
	}

	c.logger.InfoContext(ctx, "applied catalog change",
		slog.String("event_type", event.EventType),
		slog.String("tag_id", data.TagID),
	)

	return nil
}
