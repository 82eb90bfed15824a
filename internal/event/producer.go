package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	pkgkafka "github.com/Lava-10/knowMoreQR/pkg/kafka"
)

// Kafka topic constants for wishlist domain events.
const (
	TopicWishlistItemAdded   = pkgkafka.TopicPrefix + ".wishlist.item_added"
	TopicWishlistItemRemoved = pkgkafka.TopicPrefix + ".wishlist.item_removed"
	TopicWishlistCleared     = pkgkafka.TopicPrefix + ".wishlist.cleared"
)

// Aggregate type constant.
const AggregateTypeWishlist = "wishlist"

// Source identifier for events originating from the wishlist service.
const SourceWishlistService = "wishlist-service"

// Publisher is the part of *pkgkafka.Producer the event producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes wishlist domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the wishlist service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishItemAdded publishes a wishlist.item_added event.
func (p *Producer) PublishItemAdded(ctx context.Context, userID int64, tagID string) error {
	return p.publish(ctx, TopicWishlistItemAdded, domain.EventWishlistItemAdded,
		domain.WishlistEventData{UserID: userID, TagID: tagID})
}

// PublishItemRemoved publishes a wishlist.item_removed event.
func (p *Producer) PublishItemRemoved(ctx context.Context, userID int64, tagID string) error {
	return p.publish(ctx, TopicWishlistItemRemoved, domain.EventWishlistItemRemoved,
		domain.WishlistEventData{UserID: userID, TagID: tagID})
}

// PublishCleared publishes a wishlist.cleared event.
func (p *Producer) PublishCleared(ctx context.Context, userID int64) error {
	return p.publish(ctx, TopicWishlistCleared, domain.EventWishlistCleared,
		domain.WishlistEventData{UserID: userID})
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, data domain.WishlistEventData) error {
	aggregateID := strconv.FormatInt(data.UserID, 10)

	event, err := pkgkafka.NewEventFromContext(ctx, eventType, aggregateID, AggregateTypeWishlist, SourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published wishlist event",
		slog.String("event_type", eventType),
		slog.Int64("user_id", data.UserID),
		slog.String("tag_id", data.TagID),
	)

	return nil
}
