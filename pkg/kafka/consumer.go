package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicPrefix prefixes every topic owned by this system.
const TopicPrefix = "knowmoreqr"

// Topic builds "<prefix>.<domain>.<action>".
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// messageReader is the subset of *kafka.Reader the consumer depends on.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topic      string
	MinBytes   int
	MaxBytes   int
	MaxRetries int
	RetryDelay time.Duration
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.MinBytes == 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = 10 << 20
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 100 * time.Millisecond
	}
	return c
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithDLQ parks messages that exhausted their retries on a dead-letter topic
// instead of dropping them.
func WithDLQ(dlq *DLQProducer) ConsumerOption {
	return func(c *Consumer) { c.dlq = dlq }
}

// Consumer reads one topic as part of a consumer group. Messages are committed
// after the handler succeeds, after they are parked on the DLQ, or when they
// cannot be decoded at all.
type Consumer struct {
	reader    messageReader
	cfg       ConsumerConfig
	handler   Handler
	dlq       *DLQProducer
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewConsumer creates a consumer for cfg.Topic in cfg.GroupID.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	cfg = cfg.withDefaults()
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumerWithReader(r, cfg, handler, logger, opts...)
}

func newConsumerWithReader(r messageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:  r,
		cfg:     cfg.withDefaults(),
		handler: handler,
		logger:  logger.With(slog.String("topic", cfg.Topic), slog.String("group", cfg.GroupID)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "consumer started")
	defer func() {
		c.logger.Info("consumer stopping")
		_ = c.Close()
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.ErrorContext(ctx, "failed to fetch message", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.RetryDelay):
			}
			continue
		}

		if !c.process(ctx, msg) {
			return nil
		}
	}
}

// process handles one message and reports whether consumption should go on.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	start := time.Now()
	defer func() {
		consumerProcessingDuration.WithLabelValues(msg.Topic, c.cfg.GroupID).Observe(time.Since(start).Seconds())
	}()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.Int64("offset", msg.Offset),
		)
		c.fail(ctx, msg, err)
		return true
	}

	msgCtx := extractTraceContext(ctx, &msg)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if lastErr = c.handler(msgCtx, event); lastErr == nil {
			break
		}
		c.logger.WarnContext(ctx, "handler failed",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
		)
		if attempt < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(time.Duration(attempt) * c.cfg.RetryDelay):
			}
		}
	}

	if lastErr != nil {
		c.fail(ctx, msg, lastErr)
		return true
	}

	consumerMessagesProcessed.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
	c.commit(ctx, msg)
	return true
}

// fail parks msg on the DLQ when one is configured and commits it either way
// so a poison message cannot block the partition.
func (c *Consumer) fail(ctx context.Context, msg kafka.Message, cause error) {
	consumerMessagesFailed.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()

	if c.dlq != nil {
		if err := c.dlq.Publish(ctx, msg, cause, c.cfg.GroupID); err != nil {
			c.logger.ErrorContext(ctx, "failed to park message on DLQ", slog.String("error", err.Error()))
		} else {
			consumerDLQPublished.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
		}
	} else {
		c.logger.ErrorContext(ctx, "dropping message after retries",
			slog.Int64("offset", msg.Offset),
			slog.String("error", cause.Error()),
		)
	}
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
