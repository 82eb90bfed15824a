package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	pkgkafka "github.com/Lava-10/knowMoreQR/pkg/kafka"
	"github.com/Lava-10/knowMoreQR/pkg/logger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Fakes ---

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, event: event})
	return nil
}

type recordingCache struct {
	ids []string
	err error
}

func (c *recordingCache) Invalidate(_ context.Context, id string) error {
	c.ids = append(c.ids, id)
	return c.err
}

// --- Producer ---

func TestProducer_PublishItemAdded(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, newTestLogger())

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, p.PublishItemAdded(ctx, 42, "tag-1"))

	require.Len(t, pub.sent, 1)
	sent := pub.sent[0]
	assert.Equal(t, "knowmoreqr.wishlist.item_added", sent.topic)
	assert.Equal(t, domain.EventWishlistItemAdded, sent.event.EventType)
	assert.Equal(t, "42", sent.event.AggregateID)
	assert.Equal(t, AggregateTypeWishlist, sent.event.AggregateType)
	assert.Equal(t, SourceWishlistService, sent.event.Source)
	assert.Equal(t, "corr-1", sent.event.CorrelationID)

	var data domain.WishlistEventData
	require.NoError(t, sent.event.UnmarshalData(&data))
	assert.Equal(t, domain.WishlistEventData{UserID: 42, TagID: "tag-1"}, data)
}

func TestProducer_PublishRemovedAndCleared(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, newTestLogger())

	require.NoError(t, p.PublishItemRemoved(context.Background(), 7, "tag-2"))
	require.NoError(t, p.PublishCleared(context.Background(), 7))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, TopicWishlistItemRemoved, pub.sent[0].topic)
	assert.Equal(t, TopicWishlistCleared, pub.sent[1].topic)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(pub.sent[1].event.Data, &raw))
	assert.NotContains(t, raw, "tag_id")
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducer(&recordingPublisher{err: errors.New("broker down")}, newTestLogger())

	err := p.PublishCleared(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish wishlist.cleared event")
	assert.Contains(t, err.Error(), "broker down")
}

// --- Catalog consumer ---

func catalogEvent(t *testing.T, eventType, aggregateID, tagID string) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.NewEvent(eventType, aggregateID, "tag", "catalog-service", domain.CatalogEvent{TagID: tagID})
	require.NoError(t, err)
	return ev
}

func TestCatalogConsumer_InvalidatesThenRefreshes(t *testing.T) {
	var order []string
	cache := &recordingCache{}
	refresh := IndexRefreshFunc(func(_ context.Context, id string) error {
		order = append(order, "refresh:"+id)
		assert.Equal(t, []string{id}, cache.ids, "cache must be invalidated before refresh")
		return nil
	})
	c := NewCatalogConsumer(cache, refresh, newTestLogger())

	for _, topic := range CatalogTopics {
		cache.ids = nil
		require.NoError(t, c.Handle(context.Background(), catalogEvent(t, topic, "", "tag-9")))
	}

	assert.Equal(t, []string{"refresh:tag-9", "refresh:tag-9", "refresh:tag-9"}, order)
}

func TestCatalogConsumer_FallsBackToAggregateID(t *testing.T) {
	cache := &recordingCache{}
	c := NewCatalogConsumer(cache, nil, newTestLogger())

	require.NoError(t, c.Handle(context.Background(), catalogEvent(t, TopicTagDeleted, "tag-agg", "")))
	assert.Equal(t, []string{"tag-agg"}, cache.ids)
}

func TestCatalogConsumer_IgnoresUnknownAndEmpty(t *testing.T) {
	cache := &recordingCache{}
	c := NewCatalogConsumer(cache, nil, newTestLogger())

	require.NoError(t, c.Handle(context.Background(), catalogEvent(t, "knowmoreqr.company.created", "x", "x")))
	require.NoError(t, c.Handle(context.Background(), catalogEvent(t, TopicTagUpdated, "", "")))
	assert.Empty(t, cache.ids)
}

func TestCatalogConsumer_PropagatesFailures(t *testing.T) {
	c := NewCatalogConsumer(&recordingCache{err: errors.New("redis down")}, nil, newTestLogger())
	err := c.Handle(context.Background(), catalogEvent(t, TopicTagUpdated, "", "tag-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidate cached tag tag-1")

	failing := IndexRefreshFunc(func(context.Context, string) error { return errors.New("es down") })
	c = NewCatalogConsumer(nil, failing, newTestLogger())
	err = c.Handle(context.Background(), catalogEvent(t, TopicTagUpdated, "", "tag-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh indexed tag tag-1")
}

func TestCatalogConsumer_BadPayload(t *testing.T) {
	c := NewCatalogConsumer(&recordingCache{}, nil, newTestLogger())
	ev := &pkgkafka.Event{EventType: TopicTagCreated, Data: json.RawMessage(`"nope"`)}
	assert.Error(t, c.Handle(context.Background(), ev))
}
