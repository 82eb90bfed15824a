package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		out = append(out, m.Offset)
	}
	return out
}

func eventMessage(t *testing.T, offset int64, eventType string) kafka.Message {
	t.Helper()
	event, err := NewEvent(eventType, "tag-1", "tag", "catalog", map[string]string{"id": "tag-1"})
	require.NoError(t, err)
	raw, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "knowmoreqr.catalog.changed", Offset: offset, Value: raw}
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{GroupID: "wishlist-catalog", Topic: "knowmoreqr.catalog.changed", MaxRetries: 2, RetryDelay: time.Millisecond}
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		eventMessage(t, 1, "catalog.tag_updated"),
		eventMessage(t, 2, "catalog.tag_deleted"),
	}}

	var mu sync.Mutex
	var seen []string
	handler := func(_ context.Context, e *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventType)
		return nil
	}

	c := newConsumerWithReader(reader, testConsumerConfig(), handler, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	assert.Equal(t, []string{"catalog.tag_updated", "catalog.tag_deleted"}, seen)
	mu.Unlock()
	assert.Equal(t, []int64{1, 2}, reader.committedOffsets())
	assert.True(t, reader.closed)
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	reader := &fakeReader{}
	attempts := 0
	handler := func(context.Context, *Event) error {
		attempts++
		if attempts == 1 {
			return errors.New("cache unavailable")
		}
		return nil
	}

	c := newConsumerWithReader(reader, testConsumerConfig(), handler, testLogger())
	assert.True(t, c.process(context.Background(), eventMessage(t, 5, "catalog.tag_updated")))

	assert.Equal(t, 2, attempts)
	assert.Equal(t, []int64{5}, reader.committedOffsets())
}

func TestConsumer_PoisonMessageGoesToDLQ(t *testing.T) {
	reader := &fakeReader{}
	dlqWriter := &fakeWriter{}
	dlq := &DLQProducer{writer: dlqWriter, logger: testLogger()}

	handler := func(context.Context, *Event) error { return errors.New("always fails") }
	c := newConsumerWithReader(reader, testConsumerConfig(), handler, testLogger(), WithDLQ(dlq))

	assert.True(t, c.process(context.Background(), eventMessage(t, 9, "catalog.tag_updated")))

	require.Len(t, dlqWriter.msgs, 1)
	parked := dlqWriter.msgs[0]
	assert.Equal(t, "knowmoreqr.dlq.knowmoreqr.catalog.changed", parked.Topic)
	assert.Equal(t, "always fails", header(parked, "dlq.error"))
	assert.Equal(t, "9", header(parked, "dlq.original_offset"))
	assert.Equal(t, "wishlist-catalog", header(parked, "dlq.consumer_group"))
	assert.Equal(t, []int64{9}, reader.committedOffsets())
}

func TestConsumer_UndecodableMessageCommitted(t *testing.T) {
	reader := &fakeReader{}
	called := false
	handler := func(context.Context, *Event) error { called = true; return nil }
	c := newConsumerWithReader(reader, testConsumerConfig(), handler, testLogger())

	assert.True(t, c.process(context.Background(), kafka.Message{Topic: "t", Offset: 3, Value: []byte("not json")}))

	assert.False(t, called)
	assert.Equal(t, []int64{3}, reader.committedOffsets())
}

func TestConsumer_CancelDuringBackoffStops(t *testing.T) {
	reader := &fakeReader{}
	cfg := testConsumerConfig()
	cfg.RetryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	handler := func(context.Context, *Event) error {
		cancel()
		return errors.New("fail")
	}
	c := newConsumerWithReader(reader, cfg, handler, testLogger())

	assert.False(t, c.process(ctx, eventMessage(t, 1, "catalog.tag_updated")))
	assert.Empty(t, reader.committedOffsets())
}

func TestConsumerConfig_Defaults(t *testing.T) {
	cfg := ConsumerConfig{}.withDefaults()
	assert.Equal(t, 1, cfg.MinBytes)
	assert.Equal(t, 10<<20, cfg.MaxBytes)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryDelay)
}
